package main

import (
	"fmt"
	"os"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/config"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/mccorkel/mnr-hackathon-mobile/pkg/zerolog_config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "fasten",
		Short:         "Personal health record client for a Fasten gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := zerolog_config.Startup(cfg.LogOptions("fasten")); err != nil {
				return err
			}
			metrics.Configure(cfg.MetricsOptions())
			return nil
		},
	}

	conf := func() *config.Config { return cfg }
	rootCmd.AddCommand(domainCmd(conf))
	rootCmd.AddCommand(registerCmd(conf))
	rootCmd.AddCommand(loginCmd(conf))
	rootCmd.AddCommand(logoutCmd(conf))
	rootCmd.AddCommand(statusCmd(conf))
	rootCmd.AddCommand(selfCmd(conf))
	rootCmd.AddCommand(fetchCmd(conf))
	rootCmd.AddCommand(serveCmd(conf))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

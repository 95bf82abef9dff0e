package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/config"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/gateway"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func domainCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain [url]",
		Short: "Show or change the gateway domain",
		Long: "Show the stored gateway domain, or switch to a new one. Switching " +
			"clears the stored session and preferences.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, prefs, err := openStore(conf())
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 0 {
				domain, err := prefs.Domain()
				if err != nil {
					return err
				}
				if domain == "" {
					domain = conf().FastenDomain
				}
				if domain == "" {
					return errNoDomain
				}
				fmt.Fprintln(cmd.OutOrStdout(), domain)
				return nil
			}

			baseURL, err := gateway.NormalizeDomain(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}

			skipCheck, _ := cmd.Flags().GetBool("skip-check")
			if !skipCheck {
				client := gateway.NewClient(baseURL, conf().HTTPTimeout)
				status, err := client.Ping(cmd.Context())
				if err != nil {
					return fmt.Errorf("could not reach %s: %w", baseURL, err)
				}
				log.Info().Str("domain", baseURL).Int("status", status).Msg("Gateway reachable")
			}

			if err := prefs.ChangeDomain(baseURL); err != nil {
				return fmt.Errorf("failed to store domain: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Domain set to %s\n", baseURL)
			return nil
		},
	}
	cmd.Flags().Bool("skip-check", false, "Store the domain without checking it is reachable")
	return cmd
}

func registerCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			if err := a.session.Register(cmd.Context(), username, password, email); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created, sign in with \"fasten login\"")
			return nil
		},
	}
	cmd.Flags().String("username", "", "Account username")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	return cmd
}

func loginCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			username, _ := cmd.Flags().GetString("username")
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			if err := a.session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", strings.TrimSpace(username))
			return nil
		},
	}
	cmd.Flags().String("username", "", "Account username")
	cmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	return cmd
}

func logoutCmd(conf func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func statusCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.session.Status(time.Now())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			return renderStatus(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

func selfCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self [patient-id]",
		Short: "List the patients on the account, or choose which one is you",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				if err := a.prefs.SetPatientRelationship(args[0], storage.RelationshipSelf); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Self-patient set to %s\n", args[0])
				return nil
			}

			sm, err := a.syncManager()
			if err != nil {
				return err
			}
			cycle, err := sm.Sync(cmd.Context())
			if err != nil {
				return err
			}
			selfID, err := a.prefs.SelfPatientID()
			if err != nil {
				return err
			}
			return renderPatients(cmd.OutOrStdout(), cycle.Snapshot.Patients, selfID)
		},
	}
	return cmd
}

func fetchCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch records from the gateway and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, _ := cmd.Flags().GetString("view")
			category, _ := cmd.Flags().GetString("category")
			asJSON, _ := cmd.Flags().GetBool("json")

			render, ok := views[view]
			if !ok {
				return fmt.Errorf("unknown view %q, expected records, vitals, categories or patients", view)
			}

			a, err := newApp(conf())
			if err != nil {
				return err
			}
			defer a.Close()

			sm, err := a.syncManager()
			if err != nil {
				return err
			}
			cycle, err := sm.Sync(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cycle.Message != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), cycle.Message)
			}
			return render(out, cycle, viewOptions{JSON: asJSON, Category: category})
		},
	}
	cmd.Flags().String("view", "records", "What to print: records, vitals, categories or patients")
	cmd.Flags().String("category", "", "Only print records in this category")
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

// readPassword takes the password from stdin when --password-stdin is set,
// otherwise from FASTEN_PASSWORD
func readPassword(cmd *cobra.Command) (string, error) {
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	return os.Getenv("FASTEN_PASSWORD"), nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/api"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/config"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/orchestrator"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest records over a local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("refresh-interval")
			return runServer(cmd.Context(), conf(), interval)
		},
	}
	cmd.Flags().Duration("refresh-interval", 15*time.Minute, "How often to refetch records, 0 to only refresh on request")
	return cmd
}

func runServer(parent context.Context, cfg *config.Config, interval time.Duration) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sm, err := a.syncManager()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	orchestrator.NewSignalHandler().HandleSignals(ctx, cancel)
	metrics.StartSystemMetrics(ctx, 15*time.Second)

	sm.Trigger(ctx)
	tickerDone := make(chan struct{})
	if interval > 0 {
		go func() {
			defer close(tickerDone)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					sm.Trigger(ctx)
				}
			}
		}()
	} else {
		close(tickerDone)
	}

	router := api.SetupRoutes(api.NewHandlers(ctx, sm, a.session))
	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.APIPort).Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down API server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	// the ticker must stop triggering before waiting on in-flight cycles
	<-tickerDone
	sm.Wait()
	return nil
}

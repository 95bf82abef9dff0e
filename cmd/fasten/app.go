package main

import (
	"errors"
	"fmt"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/auth"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/config"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/gateway"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/orchestrator"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/storage"
	"github.com/rs/zerolog/log"
)

var errNoDomain = errors.New("no domain configured, run \"fasten domain <url>\" or set FASTEN_DOMAIN")

// app holds the wired components a command works with
type app struct {
	cfg     *config.Config
	store   storage.Store
	prefs   *storage.Preferences
	client  *gateway.Client
	session *auth.Session
}

// openStore opens the preference store without touching the gateway
func openStore(cfg *config.Config) (storage.Store, *storage.Preferences, error) {
	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	return store, storage.NewPreferences(store), nil
}

// newApp opens the store and builds a gateway client for the stored domain,
// falling back to FASTEN_DOMAIN
func newApp(cfg *config.Config) (*app, error) {
	store, prefs, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	domain, err := prefs.Domain()
	if err != nil {
		store.Close()
		return nil, err
	}
	if domain == "" {
		domain = cfg.FastenDomain
	}
	if domain == "" {
		store.Close()
		return nil, errNoDomain
	}
	baseURL, err := gateway.NormalizeDomain(domain)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: %q", err, domain)
	}

	client := gateway.NewClient(baseURL, cfg.HTTPTimeout)
	log.Debug().Str("domain", baseURL).Str("backend", cfg.StorageBackend).Msg("Client ready")

	return &app{
		cfg:     cfg,
		store:   store,
		prefs:   prefs,
		client:  client,
		session: auth.NewSession(client, prefs),
	}, nil
}

func (a *app) syncManager() (*orchestrator.SyncManager, error) {
	kinds, err := a.cfg.Kinds()
	if err != nil {
		return nil, err
	}
	fetcher := orchestrator.NewFetcher(a.client, a.session)
	return orchestrator.NewSyncManager(fetcher, a.prefs, kinds), nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close preference store")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range keys {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.StorageBackend != "leveldb" {
		t.Errorf("Expected leveldb backend, got %s", cfg.StorageBackend)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.APIPort != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.APIPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("ENABLE_BUSINESS_METRICS", "true")
	t.Setenv("RESOURCE_KINDS", "Patient, Observation")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.StorageBackend != "memory" || cfg.HTTPTimeout != 5*time.Second || !cfg.EnableBusinessMetrics {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	kinds, err := cfg.Kinds()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != fhir.KindPatient || kinds[1] != fhir.KindObservation {
		t.Errorf("Unexpected kinds: %v", kinds)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	os.Unsetenv("FASTEN_DOMAIN")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FASTEN_DOMAIN=https://fasten.example.com\n"), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("FASTEN_DOMAIN") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.FastenDomain != "https://fasten.example.com" {
		t.Errorf("Expected domain from env file, got %q", cfg.FastenDomain)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{"Memory", Config{StorageBackend: "memory", HTTPTimeout: time.Second}, false},
		{"Unknown backend", Config{StorageBackend: "redis", HTTPTimeout: time.Second}, true},
		{"Couchbase without URL", Config{StorageBackend: "couchbase", HTTPTimeout: time.Second}, true},
		{"Zero timeout", Config{StorageBackend: "memory"}, true},
		{"Unknown kind", Config{StorageBackend: "memory", HTTPTimeout: time.Second, ResourceKinds: "Observation,Basic"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected an error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

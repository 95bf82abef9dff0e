package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"leveldb": func(t *testing.T) Store {
			s, err := Open(Options{Backend: BackendLevelDB, Path: filepath.Join(t.TempDir(), "prefs")})
			if err != nil {
				t.Fatalf("Failed to open leveldb store: %v", err)
			}
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
			if err := s.Set("k", "v1"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := s.Set("k", "v2"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if v, err := s.Get("k"); err != nil || v != "v2" {
				t.Errorf("Expected v2, got %q (%v)", v, err)
			}
			if err := s.Remove("k"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if err := s.Remove("k"); err != nil {
				t.Errorf("Expected removing an absent key to succeed, got %v", err)
			}
			if _, err := s.Get("k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound after remove, got %v", err)
			}
		})
	}
}

func TestLevelStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs")

	s, err := OpenLevelStore(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if err := s.Set(KeyDomain, "https://fasten.example.com"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	s.Close()

	reopened, err := OpenLevelStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer reopened.Close()

	if v, _ := reopened.Get(KeyDomain); v != "https://fasten.example.com" {
		t.Errorf("Expected value to survive reopen, got %q", v)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "redis"}); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://db.local", "couchbases://db.local"},
		{"couchbase://db.local", "couchbase://db.local"},
		{"db.cloud.couchbase.com", "couchbases://db.cloud.couchbase.com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := connectionString(tt.url); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

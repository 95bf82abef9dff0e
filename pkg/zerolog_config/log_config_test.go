package zerolog_config

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{App: "fasten", Level: "warn", Console: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("Unexpected log output: %q", out)
	}
}

func TestNewLoggerShipsToElasticsearch(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	var console bytes.Buffer
	logger := NewLogger(Options{App: "fasten", ElasticsearchURL: server.URL, Index: "logs", Console: &console})
	logger.Info().Str("resource_kind", "Observation").Msg("Fetched resources")

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/logs/_doc" {
		t.Fatalf("Expected one document posted to /logs/_doc, got %v", paths)
	}
	if !strings.Contains(bodies[0], "Fetched resources") || !strings.Contains(bodies[0], "resource_kind") {
		t.Errorf("Unexpected document: %s", bodies[0])
	}
	if !strings.Contains(console.String(), "Fetched resources") {
		t.Error("Expected console output as well")
	}
}

func TestStartupRequiresIndex(t *testing.T) {
	if err := Startup(Options{ElasticsearchURL: "http://localhost:9200"}); err == nil {
		t.Error("Expected an error without an index")
	}
}

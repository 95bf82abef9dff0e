package zerolog_config

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

var startupLoggerOnce = &sync.Once{}

// Options configures the global logger
type Options struct {
	// App is added to every entry as the "app" field
	App string
	// Level is a zerolog level name; unknown names fall back to info
	Level string
	// ElasticsearchURL enables shipping ECS-formatted entries when set
	ElasticsearchURL string
	// Index is the Elasticsearch index entries are written to
	Index string
	// Console receives human-readable output, os.Stderr when nil
	Console io.Writer
}

// ElasticsearchWriter sends log entries directly to Elasticsearch
type ElasticsearchWriter struct {
	URL    string
	Client *http.Client
}

func (ew ElasticsearchWriter) Write(p []byte) (n int, err error) {
	client := ew.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(ew.URL+"/_doc", "application/json", bytes.NewReader(p))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("elasticsearch returned %d", resp.StatusCode)
	}
	return len(p), nil
}

// ParseLevel maps a level name to a zerolog level, info when unknown
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// NewLogger builds a logger from opts without touching the global one
func NewLogger(opts Options) zerolog.Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}

	var out io.Writer = consoleWriter
	if opts.ElasticsearchURL != "" {
		ecsLogger := ecszerolog.New(&ElasticsearchWriter{
			URL:    strings.TrimRight(opts.ElasticsearchURL, "/") + "/" + opts.Index,
			Client: &http.Client{Timeout: 5 * time.Second},
		})
		out = zerolog.MultiLevelWriter(ecsLogger, consoleWriter)
	}

	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().Str("app", opts.App).
		Timestamp().Logger()
}

// Startup installs the global logger once. Later calls are ignored.
func Startup(opts Options) error {
	if opts.ElasticsearchURL != "" && opts.Index == "" {
		return fmt.Errorf("an index is required when shipping logs to elasticsearch")
	}
	startupLoggerOnce.Do(func() {
		log.Logger = NewLogger(opts)
	})
	return nil
}

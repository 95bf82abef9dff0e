package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/storage"
	"github.com/mccorkel/mnr-hackathon-mobile/pkg/zerolog_config"
	"github.com/spf13/viper"
)

// Config holds the client settings, read from the environment and an
// optional .env file
type Config struct {
	FastenDomain string `mapstructure:"FASTEN_DOMAIN"`

	StorageBackend    string `mapstructure:"STORAGE_BACKEND"`
	StoragePath       string `mapstructure:"STORAGE_PATH"`
	CouchbaseURL      string `mapstructure:"COUCHBASE_URL"`
	CouchbaseUsername string `mapstructure:"COUCHBASE_USERNAME"`
	CouchbasePassword string `mapstructure:"COUCHBASE_PASSWORD"`
	CouchbaseBucket   string `mapstructure:"COUCHBASE_BUCKET"`

	HTTPTimeout   time.Duration `mapstructure:"HTTP_TIMEOUT"`
	ResourceKinds string        `mapstructure:"RESOURCE_KINDS"`

	LogLevel         string `mapstructure:"LOG_LEVEL"`
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
	LogIndex         string `mapstructure:"LOG_INDEX"`

	APIPort               string `mapstructure:"API_PORT"`
	EnableBusinessMetrics bool   `mapstructure:"ENABLE_BUSINESS_METRICS"`
	EnableSystemMetrics   bool   `mapstructure:"ENABLE_SYSTEM_METRICS"`
}

var keys = []string{
	"FASTEN_DOMAIN",
	"STORAGE_BACKEND",
	"STORAGE_PATH",
	"COUCHBASE_URL",
	"COUCHBASE_USERNAME",
	"COUCHBASE_PASSWORD",
	"COUCHBASE_BUCKET",
	"HTTP_TIMEOUT",
	"RESOURCE_KINDS",
	"LOG_LEVEL",
	"ELASTICSEARCH_URL",
	"LOG_INDEX",
	"API_PORT",
	"ENABLE_BUSINESS_METRICS",
	"ENABLE_SYSTEM_METRICS",
}

// Load reads .env files (if present) into the environment and builds the
// config from it. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// missing files are fine
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetDefault("STORAGE_BACKEND", string(storage.BackendLevelDB))
	v.SetDefault("STORAGE_PATH", ".fasten")
	v.SetDefault("COUCHBASE_BUCKET", "fasten")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_INDEX", "fasten-logs")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("ENABLE_BUSINESS_METRICS", false)
	v.SetDefault("ENABLE_SYSTEM_METRICS", false)

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Kinds returns the resource kinds to query, the default list when unset
func (c *Config) Kinds() ([]fhir.ResourceKind, error) {
	if strings.TrimSpace(c.ResourceKinds) == "" {
		return fhir.DefaultQueryKinds, nil
	}

	var kinds []fhir.ResourceKind
	for _, name := range strings.Split(c.ResourceKinds, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !fhir.IsKnown(name) {
			return nil, fmt.Errorf("RESOURCE_KINDS: unknown resource kind %q", name)
		}
		kinds = append(kinds, fhir.ParseResourceKind(name))
	}
	return kinds, nil
}

// StorageOptions maps the storage settings onto storage.Options
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:           storage.Backend(c.StorageBackend),
		Path:              c.StoragePath,
		CouchbaseURL:      c.CouchbaseURL,
		CouchbaseUsername: c.CouchbaseUsername,
		CouchbasePassword: c.CouchbasePassword,
		CouchbaseBucket:   c.CouchbaseBucket,
		ConnectTimeout:    c.HTTPTimeout,
	}
}

func (c *Config) MetricsOptions() metrics.Options {
	return metrics.Options{
		Business: c.EnableBusinessMetrics,
		System:   c.EnableSystemMetrics,
	}
}

func (c *Config) LogOptions(app string) zerolog_config.Options {
	return zerolog_config.Options{
		App:              app,
		Level:            c.LogLevel,
		ElasticsearchURL: c.ElasticsearchURL,
		Index:            c.LogIndex,
	}
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	switch storage.Backend(c.StorageBackend) {
	case storage.BackendMemory:
	case storage.BackendLevelDB:
		if c.StoragePath == "" {
			return fmt.Errorf("STORAGE_PATH is required for the leveldb backend")
		}
	case storage.BackendCouchbase:
		if c.CouchbaseURL == "" {
			return fmt.Errorf("COUCHBASE_URL is required for the couchbase backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be \"memory\", \"leveldb\" or \"couchbase\", got %q", c.StorageBackend)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if _, err := c.Kinds(); err != nil {
		return err
	}
	return nil
}

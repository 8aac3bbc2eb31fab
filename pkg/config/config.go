// Package config loads service configuration from defaults, an optional YAML
// file, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServiceConfig holds fields common to every binary.
type ServiceConfig struct {
	LogLevel        string        `yaml:"log_level" env:"REFDATA_LOG_LEVEL"`
	LogPretty       bool          `yaml:"log_pretty" env:"REFDATA_LOG_PRETTY"`
	HTTPPort        string        `yaml:"http_port" env:"REFDATA_HTTP_PORT"`
	ServiceName     string        `yaml:"service_name" env:"REFDATA_SERVICE_NAME"`
	Preload         bool          `yaml:"preload" env:"REFDATA_PRELOAD"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"REFDATA_SHUTDOWN_TIMEOUT"`
}

// ProviderConfig selects the backing provider.
type ProviderConfig struct {
	Type string `yaml:"type" env:"REFDATA_PROVIDER"`
}

// BundleConfig locates the local bundle. With no path or bucket the embedded
// bundle is used.
type BundleConfig struct {
	Path      string `yaml:"path" env:"REFDATA_BUNDLE_PATH"`
	GCSBucket string `yaml:"gcs_bucket" env:"REFDATA_BUNDLE_BUCKET"`
	GCSObject string `yaml:"gcs_object" env:"REFDATA_BUNDLE_OBJECT"`
}

// RemoteConfig selects the hosted store and optional table name overrides,
// keyed by logical collection name.
type RemoteConfig struct {
	Backend string            `yaml:"backend" env:"REFDATA_REMOTE_BACKEND"`
	Tables  map[string]string `yaml:"tables"`
}

type SupabaseConfig struct {
	URL     string        `yaml:"url" env:"SUPABASE_URL"`
	APIKey  string        `yaml:"api_key" env:"SUPABASE_ANON_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"SUPABASE_TIMEOUT"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" env:"REFDATA_FIRESTORE_PROJECT"`
	CredentialsFile string `yaml:"credentials_file" env:"REFDATA_FIRESTORE_CREDENTIALS"`
}

type BigQueryConfig struct {
	ProjectID       string `yaml:"project_id" env:"REFDATA_BIGQUERY_PROJECT"`
	DatasetID       string `yaml:"dataset_id" env:"REFDATA_BIGQUERY_DATASET"`
	CredentialsFile string `yaml:"credentials_file" env:"REFDATA_BIGQUERY_CREDENTIALS"`
}

// RedisConfig configures the optional shared mirror.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled" env:"REFDATA_REDIS_ENABLED"`
	Addr      string `yaml:"addr" env:"REDIS_ADDR"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" env:"REFDATA_REDIS_PREFIX"`
}

// Config is the full service configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Provider  ProviderConfig  `yaml:"provider"`
	Bundle    BundleConfig    `yaml:"bundle"`
	Remote    RemoteConfig    `yaml:"remote"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Firestore FirestoreConfig `yaml:"firestore"`
	BigQuery  BigQueryConfig  `yaml:"bigquery"`
	Redis     RedisConfig     `yaml:"redis"`
}

// Backends accepted by remote.backend.
const (
	BackendSupabase  = "supabase"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendBigQuery  = "bigquery"
)

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel:        "info",
			HTTPPort:        ":8080",
			ServiceName:     "refdata-api",
			ShutdownTimeout: 10 * time.Second,
		},
		Provider: ProviderConfig{Type: "local"},
		Remote:   RemoteConfig{Backend: BackendSupabase},
		Supabase: SupabaseConfig{Timeout: 10 * time.Second},
		Redis:    RedisConfig{Addr: "localhost:6379", KeyPrefix: "refdata:"},
	}
}

// Load builds a Config. path and envFile are optional; a named file that does
// not exist is an error, an empty name is skipped. Variables already set in the
// environment win over the .env file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	cfg.Provider.Type = strings.ToLower(strings.TrimSpace(cfg.Provider.Type))
	cfg.Remote.Backend = strings.ToLower(strings.TrimSpace(cfg.Remote.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can act on. Missing credentials are not
// an error here; the remote provider reports them on first use.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider.Type {
	case "local", "remote":
	default:
		errs = append(errs, fmt.Errorf("provider.type must be local or remote, got %q", c.Provider.Type))
	}
	switch c.Remote.Backend {
	case BackendSupabase, BackendPostgres, BackendFirestore, BackendBigQuery:
	default:
		errs = append(errs, fmt.Errorf("remote.backend %q is not supported", c.Remote.Backend))
	}
	if c.Bundle.Path != "" && c.Bundle.GCSBucket != "" {
		errs = append(errs, errors.New("bundle.path and bundle.gcs_bucket are mutually exclusive"))
	}
	if c.Bundle.GCSBucket != "" && c.Bundle.GCSObject == "" {
		errs = append(errs, errors.New("bundle.gcs_object is required with bundle.gcs_bucket"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	Session   SessionConfig   `mapstructure:"session"`
	Security  SecurityConfig  `mapstructure:"security"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Output    OutputConfig    `mapstructure:"output"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DB        DBConfig        `mapstructure:"db"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// CrawlConfig selects the start mode and the crawl ceilings. Exactly one of
// keywords(+location), company, or urls must be provided.
type CrawlConfig struct {
	Keywords   string   `mapstructure:"keywords"`
	Location   string   `mapstructure:"location"`
	Company    string   `mapstructure:"company"`
	URLs       []string `mapstructure:"urls"`
	MaxPages   int      `mapstructure:"max_pages"`
	MaxJobs    int      `mapstructure:"max_jobs"`
	TimeFilter string   `mapstructure:"time_filter"`
}

// SessionConfig carries optional authenticated-session cookies.
type SessionConfig struct {
	LiAt       string `mapstructure:"li_at"`
	JSessionID string `mapstructure:"jsessionid"`
}

// SecurityConfig tunes retry behavior for challenged requests.
type SecurityConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// HTTPConfig configures the fetcher transport.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	FloorPerHost   float64 `mapstructure:"floor_per_host"`
}

// OutputConfig controls the dataset files written per run.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// StorageConfig selects the artifact blob store.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
	Snapshots bool   `mapstructure:"snapshots"`
}

// DBConfig controls the relational job store.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// PublisherConfig holds metadata for the crawl-summary publisher.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features and the rotating file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKEDIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates a Config from an already-initialized
// Viper instance (the CLI path, where flags and files are bound globally).
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults seeds every knob the crawler understands.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_pages", 5)
	v.SetDefault("crawl.max_jobs", 0)
	v.SetDefault("crawl.time_filter", "r86400")
	v.SetDefault("security.max_attempts", 3)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.floor_per_host", 1.0)
	v.SetDefault("output.dir", "data/datasets")
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("storage.prefix", "runs")
	v.SetDefault("storage.snapshots", false)
	v.SetDefault("db.provider", "noop")
	v.SetDefault("db.table", "job_records")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	modes := 0
	if c.Crawl.Keywords != "" {
		modes++
	}
	if c.Crawl.Company != "" {
		modes++
	}
	if len(c.Crawl.URLs) > 0 {
		modes++
	}
	if modes == 0 {
		return fmt.Errorf("one of crawl.keywords, crawl.company, or crawl.urls must be set")
	}
	if modes > 1 {
		return fmt.Errorf("crawl.keywords, crawl.company, and crawl.urls are mutually exclusive")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0")
	}
	if c.Crawl.MaxJobs < 0 {
		return fmt.Errorf("crawl.max_jobs must be >= 0")
	}
	if c.Security.MaxAttempts <= 0 {
		return fmt.Errorf("security.max_attempts must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set when storage.provider is local")
		}
	case "memory", "noop", "":
	default:
		return fmt.Errorf("storage.provider %q is not one of gcs, local, memory, noop", c.Storage.Provider)
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "noop", "":
	default:
		return fmt.Errorf("db.provider %q is not one of postgres, noop", c.DB.Provider)
	}
	switch c.Publisher.Provider {
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.TopicName == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic_name must be set when publisher.provider is pubsub")
		}
	case "memory", "noop", "":
	default:
		return fmt.Errorf("publisher.provider %q is not one of pubsub, memory, noop", c.Publisher.Provider)
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
crawl:
  keywords: golang
  location: Berlin
  max_pages: 3
  max_jobs: 40
  time_filter: r604800
session:
  li_at: cookie-value
security:
  max_attempts: 2
http:
  timeout_seconds: 45
  floor_per_host: 0.5
output:
  dir: /tmp/datasets
storage:
  provider: local
  local_dir: /tmp/artifacts
  prefix: crawls
  snapshots: true
db:
  provider: postgres
  dsn: postgres://crawler@localhost/jobs
  table: linkedin_jobs
publisher:
  provider: memory
server:
  enabled: true
  port: 9090
auth:
  enabled: true
  api_key: secret
logging:
  development: false
  file: /tmp/crawler.log
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Crawl.Keywords != "golang" || cfg.Crawl.Location != "Berlin" {
		t.Fatalf("expected crawl mode overrides to apply: %+v", cfg.Crawl)
	}
	if cfg.Crawl.MaxPages != 3 || cfg.Crawl.MaxJobs != 40 {
		t.Fatalf("expected crawl ceilings 3/40, got %d/%d", cfg.Crawl.MaxPages, cfg.Crawl.MaxJobs)
	}
	if cfg.Crawl.TimeFilter != "r604800" {
		t.Fatalf("expected time filter override, got %q", cfg.Crawl.TimeFilter)
	}
	if cfg.Session.LiAt != "cookie-value" {
		t.Fatalf("expected session cookie, got %q", cfg.Session.LiAt)
	}
	if cfg.Storage.Provider != "local" || cfg.Storage.LocalDir != "/tmp/artifacts" || !cfg.Storage.Snapshots {
		t.Fatalf("expected storage overrides to apply: %+v", cfg.Storage)
	}
	if cfg.DB.Provider != "postgres" || cfg.DB.Table != "linkedin_jobs" {
		t.Fatalf("expected db overrides to apply: %+v", cfg.DB)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 9090 {
		t.Fatalf("expected server enabled on 9090: %+v", cfg.Server)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Logging.Development || cfg.Logging.File != "/tmp/crawler.log" {
		t.Fatalf("expected logging overrides to apply: %+v", cfg.Logging)
	}
	if got := cfg.RequestTimeout(); got != 45*time.Second {
		t.Fatalf("expected request timeout 45s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
crawl:
  urls:
    - https://www.linkedin.com/jobs/view/4012345678
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawl.MaxPages != 5 || cfg.Crawl.MaxJobs != 0 {
		t.Fatalf("expected default ceilings 5/0, got %d/%d", cfg.Crawl.MaxPages, cfg.Crawl.MaxJobs)
	}
	if cfg.Crawl.TimeFilter != "r86400" {
		t.Fatalf("expected default time filter r86400, got %q", cfg.Crawl.TimeFilter)
	}
	if cfg.Security.MaxAttempts != 3 {
		t.Fatalf("expected default max attempts 3, got %d", cfg.Security.MaxAttempts)
	}
	if cfg.Storage.Provider != "noop" || cfg.DB.Provider != "noop" || cfg.Publisher.Provider != "noop" {
		t.Fatalf("expected noop providers by default: %+v %+v %+v", cfg.Storage, cfg.DB, cfg.Publisher)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Crawl:    CrawlConfig{Keywords: "golang", MaxPages: 5},
		Security: SecurityConfig{MaxAttempts: 3},
		HTTP:     HTTPConfig{TimeoutSeconds: 10},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "no start mode",
			cfg: func() Config {
				c := base
				c.Crawl.Keywords = ""
				return c
			}(),
			want: "one of crawl.keywords",
		},
		{
			name: "conflicting start modes",
			cfg: func() Config {
				c := base
				c.Crawl.Company = "Acme"
				return c
			}(),
			want: "mutually exclusive",
		},
		{
			name: "negative max pages",
			cfg: func() Config {
				c := base
				c.Crawl.MaxPages = -1
				return c
			}(),
			want: "crawl.max_pages",
		},
		{
			name: "invalid max attempts",
			cfg: func() Config {
				c := base
				c.Security.MaxAttempts = 0
				return c
			}(),
			want: "security.max_attempts",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.HTTP.TimeoutSeconds = 0
				return c
			}(),
			want: "http.timeout_seconds",
		},
		{
			name: "gcs without bucket",
			cfg: func() Config {
				c := base
				c.Storage.Provider = "gcs"
				return c
			}(),
			want: "storage.gcs_bucket",
		},
		{
			name: "unknown storage provider",
			cfg: func() Config {
				c := base
				c.Storage.Provider = "s3"
				return c
			}(),
			want: "storage.provider",
		},
		{
			name: "postgres without dsn",
			cfg: func() Config {
				c := base
				c.DB.Provider = "postgres"
				return c
			}(),
			want: "db.dsn",
		},
		{
			name: "pubsub without topic",
			cfg: func() Config {
				c := base
				c.Publisher.Provider = "pubsub"
				c.Publisher.ProjectID = "proj"
				return c
			}(),
			want: "publisher.project_id and publisher.topic_name",
		},
		{
			name: "server enabled without port",
			cfg: func() Config {
				c := base
				c.Server.Enabled = true
				return c
			}(),
			want: "server.port",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

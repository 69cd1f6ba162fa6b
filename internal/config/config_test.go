package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  enabled: true
  port: 9090
fetch:
  user_agent: harvester-agent
  timeout_seconds: 45
headless:
  enabled: true
  max_parallel: 2
  nav_timeout_seconds: 30
database:
  dsn: postgres://localhost/harvester
  max_conns: 20
archive:
  backend: local
  local_dir: /tmp/archive
pubsub:
  project_id: proj
  topic_name: harvester-runs
export:
  path: listings.csv
  format: csv
logging:
  development: false
sources:
  fsbocom:
    enabled: true
    min_delay: 2s
    max_delay: 5s
    jitter: true
    max_listings: 100
    allowed_states: ["FL", "IL"]
  craigslist:
    enabled: false
    use_headless: true
    max_pages: 3
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || !cfg.Server.Enabled {
		t.Fatalf("expected server overrides to apply, got %+v", cfg.Server)
	}
	if cfg.Fetch.UserAgent != "harvester-agent" {
		t.Fatalf("expected fetch overrides to apply, got %+v", cfg.Fetch)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Fatalf("expected fetch timeout 45s, got %v", got)
	}
	source, ok := cfg.Sources["fsbocom"]
	if !ok || !source.Enabled || source.MaxListings != 100 {
		t.Fatalf("expected fsbocom source to be loaded: %+v", cfg.Sources)
	}
	if source.MinDelay != 2*time.Second || source.MaxDelay != 5*time.Second {
		t.Fatalf("expected delays to parse as durations: %+v", source)
	}
	if len(source.AllowedStates) != 2 || source.AllowedStates[0] != "FL" {
		t.Fatalf("expected allowed states to load: %+v", source.AllowedStates)
	}
	enabled := cfg.EnabledSources()
	if len(enabled) != 1 || enabled[0] != "fsbocom" {
		t.Fatalf("expected only fsbocom enabled, got %v", enabled)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.TimeoutSeconds != 30 {
		t.Fatalf("expected default fetch timeout, got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Export.Format != "csv" {
		t.Fatalf("expected default export format csv, got %q", cfg.Export.Format)
	}
	if !cfg.Logging.Development {
		t.Fatalf("expected development logging by default")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 8080},
		Fetch:  FetchConfig{TimeoutSeconds: 30},
		Export: ExportConfig{Format: "csv"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Enabled = true
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.Fetch.TimeoutSeconds = 0
				return c
			}(),
			want: "fetch.timeout_seconds",
		},
		{
			name: "headless missing max parallel",
			cfg: func() Config {
				c := base
				c.Headless.Enabled = true
				c.Headless.MaxParallel = 0
				return c
			}(),
			want: "headless.max_parallel",
		},
		{
			name: "unknown archive backend",
			cfg: func() Config {
				c := base
				c.Archive.Backend = "s3"
				return c
			}(),
			want: "archive.backend",
		},
		{
			name: "local archive missing dir",
			cfg: func() Config {
				c := base
				c.Archive.Backend = "local"
				return c
			}(),
			want: "archive.local_dir",
		},
		{
			name: "gcs archive missing bucket",
			cfg: func() Config {
				c := base
				c.Archive.Backend = "gcs"
				return c
			}(),
			want: "archive.gcs_bucket",
		},
		{
			name: "pubsub missing topic",
			cfg: func() Config {
				c := base
				c.PubSub.ProjectID = "proj"
				return c
			}(),
			want: "pubsub.topic_name",
		},
		{
			name: "bad export format",
			cfg: func() Config {
				c := base
				c.Export.Format = "pdf"
				return c
			}(),
			want: "export.format",
		},
		{
			name: "inverted source delays",
			cfg: func() Config {
				c := base
				c.Sources = map[string]scrape.SourceConfig{
					"fsbocom": {MinDelay: 5 * time.Second, MaxDelay: 2 * time.Second},
				}
				return c
			}(),
			want: "sources.fsbocom",
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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
feed:
  url: wss://processor.example.com/stream
  module_address: "0xface"
  arena_address: "0xcafe"
database:
  host: localhost
  port: 5432
  name: emojicoin
  user: indexer
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Feed.URL != "wss://processor.example.com/stream" {
		t.Errorf("Feed.URL = %q, want %q", cfg.Feed.URL, "wss://processor.example.com/stream")
	}
	if cfg.Feed.ModuleAddress != "0xface" {
		t.Errorf("Feed.ModuleAddress = %q, want %q", cfg.Feed.ModuleAddress, "0xface")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
feed:
  url: wss://processor.example.com/stream
  module_address: "0xface"
database:
  host: localhost
  name: emojicoin
  user: indexer
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadAndValidateAppliesDefaults(t *testing.T) {
	yaml := `
feed:
  url: wss://processor.example.com/stream
  module_address: "0xface"
database:
  host: localhost
  name: emojicoin
  user: indexer
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Feed.ChannelBuffer != DefaultChannelBuffer {
		t.Errorf("Feed.ChannelBuffer = %d, want default %d", cfg.Feed.ChannelBuffer, DefaultChannelBuffer)
	}
	if cfg.Feed.RetryBudget != DefaultRetryBudget {
		t.Errorf("Feed.RetryBudget = %d, want default %d", cfg.Feed.RetryBudget, DefaultRetryBudget)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.MaxConns != DefaultMaxConns {
		t.Errorf("Database.MaxConns = %d, want default %d", cfg.Database.MaxConns, DefaultMaxConns)
	}
	if cfg.Broker.Port != DefaultBrokerPort {
		t.Errorf("Broker.Port = %d, want default %d", cfg.Broker.Port, DefaultBrokerPort)
	}
	if cfg.API.MetricsPath != DefaultMetricsPath {
		t.Errorf("API.MetricsPath = %q, want default %q", cfg.API.MetricsPath, DefaultMetricsPath)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Feed: FeedConfig{
			URL:           "wss://processor.example.com/stream",
			ModuleAddress: "0xface",
			ChannelBuffer: 1000,
			RetryBudget:   10,
		},
		Database: DBConfig{
			Host: "localhost", Name: "emojicoin", User: "indexer", Password: "pass",
			MaxConns: 10, MinConns: 2,
		},
		Broker:   BrokerConfig{Port: 3009, SendBuffer: 256},
		API:      APIConfig{Port: 9090},
		Backfill: BackfillConfig{Workers: 4, BatchSize: 1000},
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing feed url",
			mutate:  func(c *Config) { c.Feed.URL = "" },
			wantErr: "feed.url is required",
		},
		{
			name:    "missing module address",
			mutate:  func(c *Config) { c.Feed.ModuleAddress = "" },
			wantErr: "feed.module_address is required",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host is required",
		},
		{
			name:    "missing database password",
			mutate:  func(c *Config) { c.Database.Password = "" },
			wantErr: "database.password is required",
		},
		{
			name:    "min_conns exceeds max_conns",
			mutate:  func(c *Config) { c.Database.MinConns = 20 },
			wantErr: "database.min_conns (20) cannot exceed max_conns (10)",
		},
		{
			name:    "broker port out of range",
			mutate:  func(c *Config) { c.Broker.Port = 70000 },
			wantErr: "broker.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "backfill workers",
			mutate:  func(c *Config) { c.Backfill.Workers = -1 },
			wantErr: "backfill.workers must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

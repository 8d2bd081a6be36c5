package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
	"github.com/TFMV/rsbench/pkg/scenario"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Host = "cluster.example.com"
	cfg.Database = "dev"
	cfg.User = "admin"
	cfg.Scenario = "classic"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5439, cfg.Port)
	assert.Equal(t, 10, cfg.Records)
	assert.Equal(t, "all", cfg.Scenario)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, int64(1), cfg.Seed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     error
		errContains string
	}{
		{name: "valid classic", mutate: func(*Config) {}},
		{
			name:   "copy with path and role",
			mutate: func(c *Config) { c.Scenario = "copy"; c.CopyPath = "s3://b/p"; c.CopyRole = "arn" },
		},
		{
			name:    "copy without role",
			mutate:  func(c *Config) { c.Scenario = "copy"; c.CopyPath = "s3://b/p" },
			wantErr: pkgerrors.ErrMissingCopyArgs,
		},
		{
			name:        "redshift copy from a local directory",
			mutate:      func(c *Config) { c.Scenario = "copy"; c.CopyPath = "/tmp/staging"; c.CopyRole = "arn" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "s3://",
		},
		{
			name:        "redshift all from a local directory",
			mutate:      func(c *Config) { c.Scenario = "all"; c.CopyPath = "staging"; c.CopyRole = "arn" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "s3://",
		},
		{
			name: "duckdb copy from a local directory",
			mutate: func(c *Config) {
				c.Engine = "duckdb"
				c.Scenario = "copy"
				c.CopyPath = "/tmp/staging"
				c.CopyRole = "unused"
			},
		},
		{
			name:   "redshift ignores a local path when copy is not selected",
			mutate: func(c *Config) { c.Scenario = "bulk"; c.CopyPath = "/tmp/staging" },
		},
		{
			name:    "all without copy settings",
			mutate:  func(c *Config) { c.Scenario = "all" },
			wantErr: pkgerrors.ErrMissingCopyArgs,
		},
		{
			name:    "bulk needs no copy settings",
			mutate:  func(c *Config) { c.Scenario = "bulk" },
			wantErr: nil,
		},
		{
			name:        "unknown scenario",
			mutate:      func(c *Config) { c.Scenario = "turbo" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "unknown scenario",
		},
		{
			name:        "missing host",
			mutate:      func(c *Config) { c.Host = "" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "db-host",
		},
		{
			name:        "missing user",
			mutate:      func(c *Config) { c.User = "" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "db-user",
		},
		{
			name:        "missing database",
			mutate:      func(c *Config) { c.Database = "" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "db-name",
		},
		{
			name:        "negative records",
			mutate:      func(c *Config) { c.Records = -1 },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "negative",
		},
		{
			name:        "unknown engine",
			mutate:      func(c *Config) { c.Engine = "oracle" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "unsupported engine",
		},
		{
			name:        "unknown output",
			mutate:      func(c *Config) { c.Output = "yaml" },
			wantErr:     pkgerrors.ErrInvalidConfig,
			errContains: "output format",
		},
		{
			name:   "duckdb needs no host or user",
			mutate: func(c *Config) { c.Engine = "duckdb"; c.Host = ""; c.User = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{Host: "h", Database: "d", User: "u", Scenario: "bulk", Debug: true}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "redshift", cfg.Engine)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, "rsbench", cfg.Metrics.Job)
	assert.False(t, cfg.Metrics.Enabled())
}

func TestScenarios(t *testing.T) {
	cfg := validConfig()
	cfg.Scenario = "all"
	assert.Equal(t, []scenario.Name{scenario.Bulk, scenario.Copy, scenario.Classic}, cfg.Scenarios())

	cfg.Scenario = "classic"
	assert.Equal(t, []scenario.Name{scenario.Classic}, cfg.Scenarios())
}

func TestWarehouse(t *testing.T) {
	cfg := validConfig()
	cfg.Password = "secret"
	require.NoError(t, cfg.Validate())

	wh := cfg.Warehouse()
	assert.Equal(t, "cluster.example.com", wh.Host)
	assert.Equal(t, 5439, wh.Port)
	assert.Equal(t, "secret", wh.Password)
	assert.Equal(t, "require", wh.SSLMode)
	assert.True(t, cfg.NeedsPassword())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[server]
port = 9090

[search]
cache_size = 128
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, SourceEmbedded, cfg.Reference.Source)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, "bounded", cfg.Search.ScanMode)
	assert.Equal(t, 128, cfg.Search.CacheSize)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[server]
port = 8081
host = "127.0.0.1"
cors_allowed_origins = ["https://map.example.com"]

[logging]
level = "debug"
format = "json"

[reference]
source = "files"
airports_db_path = "data/airports.csv.zst"
airlines_db_path = "data/airlines.json"

[search]
default_limit = 8
scan_mode = "full"
validate_route_codes = true
nearest_limit = 3

[metrics]
enabled = true
path = "/prom"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"https://map.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, SourceFiles, cfg.Reference.Source)
	assert.Equal(t, "data/airports.csv.zst", cfg.Reference.AirportsDBPath)
	assert.True(t, cfg.Search.ValidateRouteCodes)
	assert.Equal(t, "full", cfg.Search.ScanMode)
	assert.Equal(t, 3, cfg.Search.NearestLimit)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/prom", cfg.Metrics.Path)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "config file not found")

	path := writeConfig(t, t.TempDir(), "[server\nport = ")
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to decode config file")
}

func TestLoadWithFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[server]\nport = 7000\n")

	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)

	_, err = LoadWithFallback(filepath.Join(dir, "nope.toml"))
	if _, statErr := os.Stat("configs/config.toml"); os.IsNotExist(statErr) {
		assert.Error(t, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"bad source", func(c *Config) { c.Reference.Source = "http" }, "invalid reference source"},
		{"files without airports", func(c *Config) {
			c.Reference.Source = SourceFiles
			c.Reference.AirlinesDBPath = "airlines.json"
		}, "airports_db_path is required"},
		{"files without airlines", func(c *Config) {
			c.Reference.Source = SourceFiles
			c.Reference.AirportsDBPath = "airports.csv"
		}, "airlines_db_path is required"},
		{"sqlite without path", func(c *Config) { c.Reference.Source = SourceSQLite }, "sqlite_path is required"},
		{"bad scan mode", func(c *Config) { c.Search.ScanMode = "fast" }, "invalid scan_mode"},
		{"negative cache", func(c *Config) { c.Search.CacheSize = -1 }, "invalid cache_size"},
		{"negative limit", func(c *Config) { c.Search.DefaultLimit = -2 }, "invalid default_limit"},
		{"missing static dir", func(c *Config) { c.Server.StaticFilesDir = "/does/not/exist" }, "static files directory does not exist"},
		{"bad metrics path", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Path = "metrics"
		}, "metrics path must start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Reference data sources
const (
	SourceEmbedded = "embedded" // Catalogs compiled into the binary
	SourceFiles    = "files"    // OurAirports CSV + airlines.json on disk (optionally .zst compressed)
	SourceSQLite   = "sqlite"   // Snapshot database written by cmd/refdb
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server    ServerConfig    `toml:"server"`    // HTTP server settings
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
	Reference ReferenceConfig `toml:"reference"` // Airport and airline catalog settings
	Search    SearchConfig    `toml:"search"`    // Query interpretation settings
	Metrics   MetricsConfig   `toml:"metrics"`   // Prometheus endpoint settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve static files from (empty disables static serving)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// ReferenceConfig selects where the airport and airline catalogs come from
type ReferenceConfig struct {
	Source         string `toml:"source"`           // "embedded", "files" or "sqlite"
	AirportsDBPath string `toml:"airports_db_path"` // OurAirports style airports.csv (used when source = "files")
	AirlinesDBPath string `toml:"airlines_db_path"` // airlines.json (used when source = "files")
	SQLitePath     string `toml:"sqlite_path"`      // Snapshot database (used when source = "sqlite")
}

// SearchConfig contains query interpretation settings
type SearchConfig struct {
	DefaultLimit       int    `toml:"default_limit"`        // Results returned when the caller gives no limit
	ScanMode           string `toml:"scan_mode"`            // Airport index scan: "bounded" (stop early) or "full"
	ValidateRouteCodes bool   `toml:"validate_route_codes"` // Only classify "XXX YYY" as a route when both codes are known airports
	CacheSize          int    `toml:"cache_size"`           // Resolved results kept in the LRU cache (0 disables caching)
	NearestLimit       int    `toml:"nearest_limit"`        // Airports returned for "near me" queries with coordinates
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"` // Expose Prometheus metrics
	Path    string `toml:"path"`    // HTTP path for the metrics endpoint
}

// Default returns a configuration that serves the embedded catalogs on port 8080
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.ApplyDefaults()

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Default location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// ApplyDefaults fills in unset values
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeoutSecs == 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.WriteTimeoutSecs == 0 {
		c.Server.WriteTimeoutSecs = 15
	}
	if c.Server.IdleTimeoutSecs == 0 {
		c.Server.IdleTimeoutSecs = 60
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Reference.Source == "" {
		c.Reference.Source = SourceEmbedded
	}

	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 5
	}
	if c.Search.ScanMode == "" {
		c.Search.ScanMode = "bounded"
	}
	if c.Search.NearestLimit == 0 {
		c.Search.NearestLimit = 5
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}

	// Validate static files directory exists when configured
	if c.Server.StaticFilesDir != "" {
		if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
			return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
		}
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if err := c.ValidateReference(); err != nil {
		return err
	}

	if err := c.ValidateSearch(); err != nil {
		return err
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %s", c.Metrics.Path)
	}

	return nil
}

// ValidateReference checks that the selected catalog source has the paths it needs
func (c *Config) ValidateReference() error {
	switch c.Reference.Source {
	case SourceEmbedded:
		return nil
	case SourceFiles:
		if c.Reference.AirportsDBPath == "" {
			return fmt.Errorf("airports_db_path is required when reference source is files")
		}
		if c.Reference.AirlinesDBPath == "" {
			return fmt.Errorf("airlines_db_path is required when reference source is files")
		}
	case SourceSQLite:
		if c.Reference.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required when reference source is sqlite")
		}
	default:
		return fmt.Errorf("invalid reference source: %s (must be '%s', '%s', or '%s')",
			c.Reference.Source, SourceEmbedded, SourceFiles, SourceSQLite)
	}
	return nil
}

// ValidateSearch checks the search settings
func (c *Config) ValidateSearch() error {
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("invalid default_limit: %d (must be > 0)", c.Search.DefaultLimit)
	}
	if c.Search.NearestLimit <= 0 {
		return fmt.Errorf("invalid nearest_limit: %d (must be > 0)", c.Search.NearestLimit)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("invalid cache_size: %d (must be >= 0)", c.Search.CacheSize)
	}
	switch c.Search.ScanMode {
	case "bounded", "full":
	default:
		return fmt.Errorf("invalid scan_mode: %s (must be 'bounded' or 'full')", c.Search.ScanMode)
	}
	return nil
}

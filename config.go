package chartpreset

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config consolidates settings for the engine, its preset sources and the
// column metadata providers.
type Config struct {
	Presets    PresetsConfig    `json:"presets"`
	Resolution ResolutionConfig `json:"resolution"`
	DuckDB     DuckDBConfig     `json:"duckdb"`
	Database   DatabaseConfig   `json:"database"`
	S3         S3Config         `json:"s3"`
	Logging    LoggingConfig    `json:"logging"`
	Telemetry  TelemetryConfig  `json:"telemetry"`
	Server     ServerConfig     `json:"server"`
}

// PresetsConfig locates preset documents.
type PresetsConfig struct {
	Directory string `json:"directory"`
	S3Bucket  string `json:"s3Bucket"`
	S3Prefix  string `json:"s3Prefix"`
	Validate  bool   `json:"validate"`
}

// OverlayOrder controls which overlay wins when two active overlays set the
// same key.
type OverlayOrder string

const (
	// OverlayOrderDeclaration merges overlays in declaration order, so later
	// overlays win.
	OverlayOrderDeclaration OverlayOrder = "declaration"
	// OverlayOrderReverse merges overlays last-to-first, so earlier overlays win.
	OverlayOrderReverse OverlayOrder = "reverse"
)

// ResolutionConfig contains engine behaviour switches
type ResolutionConfig struct {
	OverlayOrder         OverlayOrder `json:"overlayOrder"`
	KeepUnresolvedFields bool         `json:"keepUnresolvedFields"`
}

// DuckDBConfig contains settings for the DuckDB column profiler
type DuckDBConfig struct {
	Enabled        bool                 `json:"enabled"`
	DBPath         string               `json:"dbPath"`
	MemoryLimitMB  int                  `json:"memoryLimitMB"`
	MaxParallelism int                  `json:"maxParallelism"`
	MaxConnections int                  `json:"maxConnections"`
	QueryTimeout   time.Duration        `json:"queryTimeout"`
	EnableS3       bool                 `json:"enableS3"`
	EnableParquet  bool                 `json:"enableParquet"`
	S3Region       string               `json:"s3Region"`
	S3Endpoint     string               `json:"s3Endpoint"`
	S3AccessKey    string               `json:"s3AccessKey"`
	S3SecretKey    string               `json:"s3SecretKey"`
	Extensions     []string             `json:"extensions,omitempty"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
}

// CircuitBreakerConfig tunes the breaker guarding profiler queries
type CircuitBreakerConfig struct {
	Threshold    int           `json:"threshold"`
	Window       time.Duration `json:"window"`
	OpenDuration time.Duration `json:"openDuration"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`
	UseIAM          bool          `json:"useIAM"`
	Region          string        `json:"region"`
}

// S3Config contains settings for the S3 preset source
type S3Config struct {
	Region       string `json:"region"`
	Endpoint     string `json:"endpoint"`
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or console
}

// TelemetryConfig contains tracing settings
type TelemetryConfig struct {
	OTLPEndpoint string `json:"otlpEndpoint"`
	ServiceName  string `json:"serviceName"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int `json:"port"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Presets: PresetsConfig{
			Directory: "presets",
			Validate:  true,
		},
		Resolution: ResolutionConfig{
			OverlayOrder:         OverlayOrderDeclaration,
			KeepUnresolvedFields: false,
		},
		DuckDB: DuckDBConfig{
			Enabled:        true,
			DBPath:         "",
			MaxConnections: 1,
			QueryTimeout:   30 * time.Second,
			EnableParquet:  true,
			CircuitBreaker: CircuitBreakerConfig{
				Threshold:    5,
				Window:       1 * time.Minute,
				OpenDuration: 30 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         30 * time.Second,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "chartpreset",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// LoadConfig reads a JSON config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Resolution.OverlayOrder {
	case OverlayOrderDeclaration, OverlayOrderReverse:
	case "":
		c.Resolution.OverlayOrder = OverlayOrderDeclaration
	default:
		return &ConfigError{Field: "resolution.overlayOrder", Message: "must be 'declaration' or 'reverse'"}
	}

	if c.DuckDB.Enabled {
		if c.DuckDB.MaxConnections <= 0 {
			return &ConfigError{Field: "duckdb.maxConnections", Message: "must be greater than 0"}
		}
		if c.DuckDB.QueryTimeout <= 0 {
			return &ConfigError{Field: "duckdb.queryTimeout", Message: "must be greater than 0"}
		}
		if c.DuckDB.MemoryLimitMB < 0 {
			return &ConfigError{Field: "duckdb.memoryLimitMB", Message: "must not be negative"}
		}
	}

	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}

	if c.Database.UseIAM && c.Database.Region == "" {
		return &ConfigError{Field: "database.region", Message: "is required when useIAM is enabled"}
	}

	if c.Presets.S3Bucket == "" && c.Presets.S3Prefix != "" {
		return &ConfigError{Field: "presets.s3Bucket", Message: "is required when s3Prefix is set"}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'json' or 'console'"}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be a valid TCP port"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}

package chartpreset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Resolution.OverlayOrder != OverlayOrderDeclaration {
		t.Errorf("Expected overlay order to be 'declaration', got %s", config.Resolution.OverlayOrder)
	}
	if config.Resolution.KeepUnresolvedFields {
		t.Errorf("Expected unresolved fields to be dropped by default")
	}
	if !config.Presets.Validate {
		t.Errorf("Expected preset validation to be enabled by default")
	}
	if config.Database.Port != 5432 {
		t.Errorf("Expected database port to be 5432, got %d", config.Database.Port)
	}
	if config.DuckDB.QueryTimeout != 30*time.Second {
		t.Errorf("Expected duckdb query timeout to be 30s, got %v", config.DuckDB.QueryTimeout)
	}
	if config.Server.Port != 8080 {
		t.Errorf("Expected server port to be 8080, got %d", config.Server.Port)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "unknown overlay order", mutate: func(c *Config) { c.Resolution.OverlayOrder = "random" }, field: "resolution.overlayOrder"},
		{name: "duckdb connections", mutate: func(c *Config) { c.DuckDB.MaxConnections = 0 }, field: "duckdb.maxConnections"},
		{name: "duckdb timeout", mutate: func(c *Config) { c.DuckDB.QueryTimeout = 0 }, field: "duckdb.queryTimeout"},
		{name: "duckdb memory", mutate: func(c *Config) { c.DuckDB.MemoryLimitMB = -1 }, field: "duckdb.memoryLimitMB"},
		{name: "database connections", mutate: func(c *Config) { c.Database.MaxConnections = 0 }, field: "database.maxConnections"},
		{name: "iam without region", mutate: func(c *Config) { c.Database.UseIAM = true }, field: "database.region"},
		{name: "prefix without bucket", mutate: func(c *Config) { c.Presets.S3Prefix = "presets/" }, field: "presets.s3Bucket"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, field: "logging.format"},
		{name: "server port", mutate: func(c *Config) { c.Server.Port = 70000 }, field: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			var configErr *ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.field, configErr.Field)
		})
	}
}

func TestConfigValidation_DisabledDuckDBSkipsChecks(t *testing.T) {
	config := DefaultConfig()
	config.DuckDB.Enabled = false
	config.DuckDB.MaxConnections = 0
	assert.NoError(t, config.Validate())
}

func TestConfigValidation_EmptyOverlayOrderDefaults(t *testing.T) {
	config := DefaultConfig()
	config.Resolution.OverlayOrder = ""
	require.NoError(t, config.Validate())
	assert.Equal(t, OverlayOrderDeclaration, config.Resolution.OverlayOrder)
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "test.field", Message: "test message"}
	expected := "config validation error for field 'test.field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"resolution": {"overlayOrder": "reverse", "keepUnresolvedFields": true},
		"presets": {"directory": "/srv/presets"}
	}`), 0o600))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, OverlayOrderReverse, cfg.Resolution.OverlayOrder)
	assert.True(t, cfg.Resolution.KeepUnresolvedFields)
	assert.Equal(t, "/srv/presets", cfg.Presets.Directory)
	assert.True(t, cfg.Presets.Validate, "unset keys keep their defaults")
	assert.Equal(t, 5432, cfg.Database.Port)

	require.NoError(t, os.WriteFile(path, []byte(`{"resolution": {"overlayOrder": "sideways"}}`), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

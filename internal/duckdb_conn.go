package internal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/lychee-technology/chartpreset"
	"go.uber.org/zap"
)

// DuckDBClient wraps a database/sql DB opened with the DuckDB driver. It is
// the query engine behind file-profiled column metadata.
type DuckDBClient struct {
	DB  *sql.DB
	cfg chartpreset.DuckDBConfig
}

// ValidateDuckDBConfig performs basic sanity checks on user-provided DuckDB configuration.
func ValidateDuckDBConfig(cfg chartpreset.DuckDBConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.MemoryLimitMB < 0 {
		return fmt.Errorf("invalid memory_limit_mb: must be >= 0")
	}
	if cfg.MaxParallelism < 0 {
		return fmt.Errorf("invalid max_parallelism: must be >= 0")
	}
	if cfg.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be >= 1")
	}
	if cfg.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be > 0")
	}
	for _, ext := range cfg.Extensions {
		if !isPlainIdentifier(ext) {
			return fmt.Errorf("invalid extension name %q", ext)
		}
	}
	return nil
}

// NewDuckDBClient creates and configures a DuckDB client according to the provided config.
// It loads httpfs/parquet when requested and configures S3 access for s3:// datasets.
func NewDuckDBClient(cfg chartpreset.DuckDBConfig) (*DuckDBClient, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("duckdb disabled in config")
	}
	if err := ValidateDuckDBConfig(cfg); err != nil {
		return nil, err
	}

	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Settings below are per connection, so keep a single pooled connection
	// unless more were asked for.
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	for _, ext := range cfg.Extensions {
		loadDuckDBExtension(ctx, db, ext)
	}
	if cfg.EnableS3 {
		loadDuckDBExtension(ctx, db, "httpfs")
		settings := []struct{ name, value string }{
			{"s3_access_key_id", cfg.S3AccessKey},
			{"s3_secret_access_key", cfg.S3SecretKey},
			{"s3_region", cfg.S3Region},
			{"s3_endpoint", stripScheme(cfg.S3Endpoint)},
		}
		for _, s := range settings {
			if s.value == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, fmt.Sprintf("SET %s = %s;", s.name, duckDBLiteral(s.value))); err != nil {
				zap.S().Warnw("duckdb: s3 setting failed", "setting", s.name, "err", err)
			}
		}
		if strings.HasPrefix(cfg.S3Endpoint, "http://") {
			if _, err := db.ExecContext(ctx, "SET s3_use_ssl = false;"); err != nil {
				zap.S().Warnw("duckdb: disable s3 ssl failed", "err", err)
			}
			if _, err := db.ExecContext(ctx, "SET s3_url_style = 'path';"); err != nil {
				zap.S().Warnw("duckdb: set s3_url_style failed", "err", err)
			}
		}
	}
	if cfg.EnableParquet {
		loadDuckDBExtension(ctx, db, "parquet")
	}

	if cfg.MemoryLimitMB > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET memory_limit = '%dMB';", cfg.MemoryLimitMB)); err != nil {
			zap.S().Warnw("duckdb: set memory_limit failed", "err", err, "memoryLimitMB", cfg.MemoryLimitMB)
		}
	}
	if cfg.MaxParallelism > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET threads = %d;", cfg.MaxParallelism)); err != nil {
			zap.S().Warnw("duckdb: set threads failed", "err", err, "maxParallelism", cfg.MaxParallelism)
		}
	}

	return &DuckDBClient{DB: db, cfg: cfg}, nil
}

// loadDuckDBExtension installs and loads an extension. Failures are logged;
// profiling of formats that do not need the extension keeps working.
func loadDuckDBExtension(ctx context.Context, db *sql.DB, ext string) {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("INSTALL %s;", ext)); err != nil {
		zap.S().Warnw("duckdb: install extension failed", "extension", ext, "err", err)
		return
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("LOAD %s;", ext)); err != nil {
		zap.S().Warnw("duckdb: load extension failed", "extension", ext, "err", err)
	}
}

func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}

// QueryTimeout returns the per-query deadline configured for profiling.
func (c *DuckDBClient) QueryTimeout() time.Duration {
	if c == nil || c.cfg.QueryTimeout <= 0 {
		return 30 * time.Second
	}
	return c.cfg.QueryTimeout
}

// Close closes the underlying DuckDB DB.
func (c *DuckDBClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// HealthCheck performs a simple query to validate the DuckDB connection and basic runtime settings.
func (c *DuckDBClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.DB == nil {
		return fmt.Errorf("duckdb client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v int
	if err := c.DB.QueryRowContext(ctx, "SELECT 1;").Scan(&v); err != nil {
		return fmt.Errorf("duckdb health query failed: %w", err)
	}
	if v != 1 {
		return fmt.Errorf("unexpected duckdb health result: %d", v)
	}

	if c.cfg.MaxParallelism > 0 {
		var threads int64
		if err := c.DB.QueryRowContext(ctx, "SELECT current_setting('threads');").Scan(&threads); err != nil {
			zap.S().Warnw("duckdb: threads setting query failed (non-fatal)", "err", err)
		} else if threads <= 0 {
			zap.S().Warnw("duckdb: threads setting invalid (non-fatal)", "threads", threads)
		}
	}
	return nil
}

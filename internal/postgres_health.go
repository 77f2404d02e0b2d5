package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/lychee-technology/chartpreset"
)

// PostgresPinger is satisfied by *pgxpool.Pool.
type PostgresPinger interface {
	Ping(ctx context.Context) error
}

// ValidatePostgresConfig performs basic sanity checks on Postgres-related settings.
func ValidatePostgresConfig(cfg chartpreset.DatabaseConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("database.port must be a valid TCP port")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	if cfg.UseIAM && cfg.Region == "" {
		return fmt.Errorf("database.region is required when useIAM is set")
	}
	return nil
}

// PostgresHealthCheck pings the pool and runs a trivial query.
// timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, db PostgresQuerier, timeout time.Duration) error {
	if db == nil {
		return fmt.Errorf("postgres pool not initialized")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if p, ok := db.(PostgresPinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping failed: %w", err)
		}
	}

	var one int
	if err := db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres simple query failed: %w", err)
	}
	return nil
}

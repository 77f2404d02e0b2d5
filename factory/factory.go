package factory

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsCreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/internal"
	"go.uber.org/zap"
)

// NewPresetEngine creates a PresetEngine with the resolution settings from config.
// This is the primary way for external projects to create an engine instance.
//
// Usage:
//
//	import (
//	    "github.com/lychee-technology/chartpreset"
//	    "github.com/lychee-technology/chartpreset/factory"
//	)
//
//	config := chartpreset.DefaultConfig()
//	engine := factory.NewPresetEngine(config, logger)
//	err := engine.UpdateStateFromPreset(ctx, builder, preset, columnTypes)
func NewPresetEngine(config *chartpreset.Config, logger *zap.Logger) chartpreset.PresetEngine {
	if config == nil {
		config = chartpreset.DefaultConfig()
	}
	return internal.NewPresetEngine(config.Resolution, logger)
}

// NewPresetCatalog loads presets from the configured directory and, when
// presets.s3Bucket is set, from S3 as well. s3Client may be nil when no
// bucket is configured.
func NewPresetCatalog(ctx context.Context, config *chartpreset.Config, s3Client internal.S3PresetAPI, logger *zap.Logger) (*internal.PresetCatalog, error) {
	if config == nil {
		config = chartpreset.DefaultConfig()
	}

	var sources []internal.PresetSource
	if config.Presets.Directory != "" {
		sources = append(sources, internal.NewDirPresetSource(config.Presets.Directory))
	}
	if config.Presets.S3Bucket != "" {
		if s3Client == nil {
			return nil, fmt.Errorf("presets.s3Bucket is set but no S3 client was provided")
		}
		sources = append(sources, internal.NewS3PresetSource(s3Client, config.Presets.S3Bucket, config.Presets.S3Prefix, logger))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no preset source configured: set presets.directory or presets.s3Bucket")
	}

	return internal.NewPresetCatalog(ctx, sources, config.Presets.Validate, logger)
}

// NewS3Client builds an S3 client. Static credentials are used when both keys
// are set; otherwise the default AWS credential chain applies. A custom
// endpoint (MinIO, RustFS, LocalStack) is honoured.
func NewS3Client(ctx context.Context, cfg chartpreset.S3Config) (*s3.Client, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

func loadAWSConfig(ctx context.Context, region, accessKey, secretKey string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	if accessKey != "" && secretKey != "" {
		awsCfg.Credentials = awsCreds.NewStaticCredentialsProvider(accessKey, secretKey, "")
	}
	return awsCfg, nil
}

// PostgresConnString renders the pgx connection URL for cfg using password.
func PostgresConnString(cfg chartpreset.DatabaseConfig, password string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// tokenGenerator is swapped in tests.
var tokenGenerator = func(ctx context.Context, endpoint, region string, creds aws.CredentialsProvider) (string, error) {
	return auth.GenerateDbConnectAuthToken(ctx, endpoint, region, creds)
}

// postgresPassword returns the configured password, or an IAM auth token when
// useIAM is set. Token generation failures fall back to the password.
func postgresPassword(ctx context.Context, cfg chartpreset.DatabaseConfig, logger *zap.Logger) string {
	if !cfg.UseIAM {
		return cfg.Password
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, "", "")
	if err != nil {
		logger.Sugar().Warnw("failed to load aws config for IAM auth; falling back to password", "err", err)
		return cfg.Password
	}
	endpoint := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	token, err := tokenGenerator(ctx, endpoint, cfg.Region, awsCfg.Credentials)
	if err != nil || token == "" {
		logger.Sugar().Warnw("failed to generate IAM auth token; falling back to password", "err", err)
		return cfg.Password
	}
	logger.Sugar().Infow("generated IAM auth token for Postgres connection")
	return token
}

// NewPostgresPool creates a PostgreSQL connection pool from config and pings it.
func NewPostgresPool(ctx context.Context, cfg chartpreset.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := internal.ValidatePostgresConfig(cfg); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(PostgresConnString(cfg, postgresPassword(ctx, cfg, logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewColumnMetadataProvider wires the DuckDB and Postgres profilers behind a
// router. Either backend may be nil.
func NewColumnMetadataProvider(config *chartpreset.Config, duck *internal.DuckDBClient, pool internal.PostgresQuerier, logger *zap.Logger) chartpreset.ColumnMetadataProvider {
	if config == nil {
		config = chartpreset.DefaultConfig()
	}

	var duckProvider, pgProvider chartpreset.ColumnMetadataProvider
	if duck != nil {
		duckProvider = internal.NewDuckDBProfiler(duck, internal.NewCircuitBreakerFromConfig(config.DuckDB.CircuitBreaker), logger)
	}
	if pool != nil {
		pgProvider = internal.NewPostgresProfiler(pool, internal.NewCircuitBreakerFromConfig(config.DuckDB.CircuitBreaker), config.Database.Timeout, logger)
	}
	return internal.NewMetadataRouter(duckProvider, pgProvider)
}

// NewDuckDBClient opens DuckDB when duckdb.enabled is set; it returns nil
// otherwise. S3 settings fall back to the s3 section.
func NewDuckDBClient(config *chartpreset.Config) (*internal.DuckDBClient, error) {
	if config == nil || !config.DuckDB.Enabled {
		return nil, nil
	}
	cfg := config.DuckDB
	if cfg.EnableS3 {
		if cfg.S3Region == "" {
			cfg.S3Region = config.S3.Region
		}
		if cfg.S3Endpoint == "" {
			cfg.S3Endpoint = config.S3.Endpoint
		}
		if cfg.S3AccessKey == "" && cfg.S3SecretKey == "" {
			cfg.S3AccessKey = config.S3.AccessKey
			cfg.S3SecretKey = config.S3.SecretKey
		}
		if err := internal.ValidateS3Config(cfg); err != nil {
			return nil, err
		}
	}
	return internal.NewDuckDBClient(cfg)
}

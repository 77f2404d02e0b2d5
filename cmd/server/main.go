package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/factory"
	"github.com/lychee-technology/chartpreset/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// healthCheck is one named dependency probe reported by /healthz.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// Server represents the HTTP server exposing preset resolution.
type Server struct {
	engine   chartpreset.PresetEngine
	registry chartpreset.PresetRegistry
	metadata chartpreset.ColumnMetadataProvider
	checks   []healthCheck
	mux      *http.ServeMux
}

// NewServer creates a new Server instance. metadata may be nil, in which case
// requests must carry their column metadata.
func NewServer(engine chartpreset.PresetEngine, registry chartpreset.PresetRegistry, metadata chartpreset.ColumnMetadataProvider) *Server {
	return &Server{
		engine:   engine,
		registry: registry,
		metadata: metadata,
		mux:      http.NewServeMux(),
	}
}

// AddHealthCheck registers a dependency probe for /healthz.
func (s *Server) AddHealthCheck(name string, check func(ctx context.Context) error) {
	s.checks = append(s.checks, healthCheck{name: name, check: check})
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/api/v1/presets", s.handleListPresets)
	s.mux.HandleFunc("/api/v1/presets/", s.handleGetPreset)
	s.mux.HandleFunc("/api/v1/resolve", s.handleResolve)
	s.mux.HandleFunc("/api/v1/datasets/columns", s.handleDatasetColumns)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	config, err := chartpreset.LoadConfig(os.Getenv("CHARTPRESET_CONFIG"))
	if err != nil {
		panic(err)
	}
	applyEnvOverrides(config)
	if err := config.Validate(); err != nil {
		panic(err)
	}

	logger, err := newLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx := context.Background()

	shutdownTracing, err := setupTracing(ctx, config.Telemetry)
	if err != nil {
		sugar.Fatalf("failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	var (
		s3Client  internal.S3PresetAPI
		bucketAPI internal.S3HeadBucketAPI
	)
	if config.Presets.S3Bucket != "" {
		client, err := factory.NewS3Client(ctx, config.S3)
		if err != nil {
			sugar.Fatalf("failed to create s3 client: %v", err)
		}
		s3Client, bucketAPI = client, client
	}

	catalog, err := factory.NewPresetCatalog(ctx, config, s3Client, logger)
	if err != nil {
		sugar.Fatalf("failed to load presets: %v", err)
	}
	sugar.Infow("presets loaded", "presets", catalog.ListPresets())

	duck, err := factory.NewDuckDBClient(config)
	if err != nil {
		sugar.Fatalf("failed to open duckdb: %v", err)
	}
	defer duck.Close()

	// Postgres profiling is on when a database name is configured.
	var pool internal.PostgresQuerier
	if config.Database.Database != "" {
		pgPool, err := factory.NewPostgresPool(ctx, config.Database, logger)
		if err != nil {
			sugar.Fatalf("failed to create database pool: %v", err)
		}
		defer pgPool.Close()
		pool = pgPool
	}

	engine := factory.NewPresetEngine(config, logger)
	metadata := factory.NewColumnMetadataProvider(config, duck, pool, logger)

	server := NewServer(engine, catalog, metadata)
	if duck != nil {
		server.AddHealthCheck("duckdb", duck.HealthCheck)
	}
	if pool != nil {
		server.AddHealthCheck("postgres", func(ctx context.Context) error {
			return internal.PostgresHealthCheck(ctx, pool, 0)
		})
	}
	if bucketAPI != nil {
		server.AddHealthCheck("s3", func(ctx context.Context) error {
			return internal.S3BucketHealthCheck(ctx, bucketAPI, config.Presets.S3Bucket, 0)
		})
	}
	server.RegisterRoutes()

	if err := server.Start(strconv.Itoa(config.Server.Port)); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// applyEnvOverrides lets deployments tune the common settings without a
// config file.
func applyEnvOverrides(config *chartpreset.Config) {
	config.Presets.Directory = getEnv("PRESET_DIR", config.Presets.Directory)
	config.Presets.S3Bucket = getEnv("PRESET_S3_BUCKET", config.Presets.S3Bucket)
	config.Presets.S3Prefix = getEnv("PRESET_S3_PREFIX", config.Presets.S3Prefix)
	config.Resolution.OverlayOrder = chartpreset.OverlayOrder(getEnv("OVERLAY_ORDER", string(config.Resolution.OverlayOrder)))

	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvInt("DB_PORT", config.Database.Port)
	config.Database.Database = getEnv("DB_NAME", config.Database.Database)
	config.Database.Username = getEnv("DB_USER", config.Database.Username)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.SSLMode = getEnv("DB_SSL_MODE", config.Database.SSLMode)
	config.Database.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", config.Database.MaxConnections)

	config.S3.Region = getEnv("AWS_REGION", config.S3.Region)
	config.S3.Endpoint = getEnv("S3_ENDPOINT", config.S3.Endpoint)

	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("LOG_FORMAT", config.Logging.Format)
	config.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", config.Telemetry.OTLPEndpoint)
	config.Server.Port = getEnvInt("PORT", config.Server.Port)
}

func newLogger(cfg chartpreset.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

// setupTracing installs an OTLP gRPC exporter when an endpoint is configured.
// Without one the global no-op tracer stays in place.
func setupTracing(ctx context.Context, cfg chartpreset.TelemetryConfig) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

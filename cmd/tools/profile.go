package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/factory"
	"github.com/lychee-technology/chartpreset/internal"
	"go.uber.org/zap"
)

// profileOptions are the backend settings shared by profile and resolve.
type profileOptions struct {
	configPath    string
	duckDBPath    string
	memoryLimitMB int
	threads       int
	enableS3      bool
	host          string
	port          int
	database      string
	user          string
	password      string
	sslMode       string
}

func (o *profileOptions) register(flags *flag.FlagSet) {
	flags.StringVar(&o.configPath, "config", getenvDefault("CHARTPRESET_CONFIG", ""), "JSON config file (flags below override it)")
	flags.StringVar(&o.duckDBPath, "duckdb-path", "", "DuckDB database file (defaults to in-memory)")
	flags.IntVar(&o.memoryLimitMB, "memory-limit-mb", 0, "DuckDB memory limit in MB")
	flags.IntVar(&o.threads, "threads", 0, "DuckDB worker threads")
	flags.BoolVar(&o.enableS3, "s3", false, "Enable s3:// datasets through DuckDB httpfs")
	flags.StringVar(&o.host, "db-host", getenvDefault("DB_HOST", "localhost"), "database host")
	flags.IntVar(&o.port, "db-port", getenvDefaultInt("DB_PORT", 5432), "database port")
	flags.StringVar(&o.database, "db-name", getenvDefault("DB_NAME", ""), "database name")
	flags.StringVar(&o.user, "db-user", getenvDefault("DB_USER", "postgres"), "database user")
	flags.StringVar(&o.password, "db-password", getenvDefault("DB_PASSWORD", ""), "database password")
	flags.StringVar(&o.sslMode, "db-ssl-mode", getenvDefault("DB_SSL_MODE", "disable"), "database sslmode")
}

func (o *profileOptions) config() (*chartpreset.Config, error) {
	cfg, err := chartpreset.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.DuckDB.Enabled = true
	if o.duckDBPath != "" {
		cfg.DuckDB.DBPath = o.duckDBPath
	}
	if o.memoryLimitMB > 0 {
		cfg.DuckDB.MemoryLimitMB = o.memoryLimitMB
	}
	if o.threads > 0 {
		cfg.DuckDB.MaxParallelism = o.threads
	}
	if o.enableS3 {
		cfg.DuckDB.EnableS3 = true
	}
	cfg.Database.Host = o.host
	cfg.Database.Port = o.port
	if o.database != "" {
		cfg.Database.Database = o.database
	}
	cfg.Database.Username = o.user
	if o.password != "" {
		cfg.Database.Password = o.password
	}
	cfg.Database.SSLMode = o.sslMode
	return cfg, cfg.Validate()
}

// openMetadataProvider opens only the backend the dataset routes to. The
// returned cleanup closes it.
func (o *profileOptions) openMetadataProvider(ctx context.Context, dataset string) (chartpreset.ColumnMetadataProvider, func(), error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}

	if strings.HasPrefix(dataset, internal.PostgresDatasetPrefix) {
		pool, err := factory.NewPostgresPool(ctx, cfg.Database, zap.L())
		if err != nil {
			return nil, nil, err
		}
		return factory.NewColumnMetadataProvider(cfg, nil, pool, zap.L()), pool.Close, nil
	}

	duck, err := factory.NewDuckDBClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return factory.NewColumnMetadataProvider(cfg, duck, nil, zap.L()), func() { duck.Close() }, nil
}

func runProfile(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("profile", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: chartpreset-tools profile [options] <dataset>")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	var opts profileOptions
	opts.register(flags)
	format := flags.String("format", "json", "Output format: json or yaml")
	outputFile := flags.String("out", "", "Path to write the column metadata (defaults to stdout)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("exactly one dataset argument is required")
	}
	dataset := flags.Arg(0)

	ctx := context.Background()
	provider, cleanup, err := opts.openMetadataProvider(ctx, dataset)
	if err != nil {
		return err
	}
	defer cleanup()

	columns, err := provider.ColumnTypes(ctx, dataset)
	if err != nil {
		return err
	}
	return writeOutput(stdout, *outputFile, columns, *format)
}

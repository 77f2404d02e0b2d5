package internal

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/chartpreset"
	"go.uber.org/zap"
)

// PostgresQuerier is the query surface the profiler needs; *pgxpool.Pool and
// pgxmock pools both satisfy it.
type PostgresQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const postgresColumnsQuery = `SELECT c.column_name, c.data_type,
       COALESCE(t.typtype = 'e', false) AS is_enum,
       s.n_distinct::float8 AS n_distinct,
       COALESCE(cl.reltuples, -1)::float8 AS reltuples
FROM information_schema.columns c
LEFT JOIN pg_catalog.pg_namespace n ON n.nspname = c.table_schema
LEFT JOIN pg_catalog.pg_class cl ON cl.relname = c.table_name AND cl.relnamespace = n.oid
LEFT JOIN pg_catalog.pg_namespace tn ON tn.nspname = c.udt_schema
LEFT JOIN pg_catalog.pg_type t ON t.typname = c.udt_name AND t.typnamespace = tn.oid
LEFT JOIN pg_catalog.pg_stats s ON s.schemaname = c.table_schema AND s.tablename = c.table_name
       AND s.attname = c.column_name AND NOT s.inherited
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`

// PostgresProfiler derives column metadata for a table from the catalog and
// planner statistics. It never scans the table unless a negative n_distinct
// has to be scaled and the table was never analysed.
type PostgresProfiler struct {
	db      PostgresQuerier
	breaker *CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

var _ chartpreset.ColumnMetadataProvider = (*PostgresProfiler)(nil)

// NewPostgresProfiler creates a profiler. breaker may be nil; a zero timeout
// means no per-query deadline.
func NewPostgresProfiler(db PostgresQuerier, breaker *CircuitBreaker, timeout time.Duration, logger *zap.Logger) *PostgresProfiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresProfiler{db: db, breaker: breaker, timeout: timeout, logger: logger}
}

// ColumnTypes profiles "<schema>.<table>" or "<table>" (schema public).
func (p *PostgresProfiler) ColumnTypes(ctx context.Context, dataset string) (*chartpreset.ColumnTypes, error) {
	schema, table, err := splitTableName(dataset)
	if err != nil {
		return nil, err
	}
	return guardedProfile(ctx, "postgres", dataset, p.breaker, p.timeout, p.logger,
		func(ctx context.Context) (*chartpreset.ColumnTypes, error) {
			return p.profile(ctx, schema, table)
		})
}

type pgColumn struct {
	name      string
	dataType  string
	isEnum    bool
	nDistinct *float64
}

func (p *PostgresProfiler) profile(ctx context.Context, schema, table string) (*chartpreset.ColumnTypes, error) {
	rows, err := p.db.Query(ctx, postgresColumnsQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query column catalog: %w", err)
	}
	defer rows.Close()

	var (
		cols      []pgColumn
		reltuples float64 = -1
	)
	for rows.Next() {
		var col pgColumn
		if err := rows.Scan(&col.name, &col.dataType, &col.isEnum, &col.nDistinct, &reltuples); err != nil {
			return nil, fmt.Errorf("scan column catalog: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read column catalog: %w", err)
	}
	if len(cols) == 0 {
		return nil, chartpreset.NewMetadataError(chartpreset.ErrCodeProfileFailed, schema+"."+table, "table not found or has no columns", nil)
	}

	rowCount := reltuples
	if rowCount < 0 && needsRowCount(cols) {
		// never analysed
		var n int64
		query := "SELECT count(*) FROM " + sanitizeIdentifier(schema+"."+table)
		if err := p.db.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("count rows: %w", err)
		}
		rowCount = float64(n)
	}

	columns := chartpreset.NewColumnTypes()
	for _, col := range cols {
		info := chartpreset.ColumnInfo{Type: MapPostgresType(col.dataType, col.isEnum)}
		if unique, ok := distinctCount(col.nDistinct, rowCount); ok {
			info.Unique = &unique
		}
		columns.Set(col.name, info)
	}
	return columns, nil
}

func needsRowCount(cols []pgColumn) bool {
	for _, col := range cols {
		if col.nDistinct != nil && *col.nDistinct < 0 {
			return true
		}
	}
	return false
}

// distinctCount interprets pg_stats.n_distinct: positive values are counts,
// negative values are a fraction of the row count.
func distinctCount(nDistinct *float64, rowCount float64) (int, bool) {
	if nDistinct == nil {
		return 0, false
	}
	if *nDistinct >= 0 {
		return int(math.Round(*nDistinct)), true
	}
	if rowCount < 0 {
		return 0, false
	}
	return int(math.Round(-*nDistinct * rowCount)), true
}

func splitTableName(dataset string) (schema, table string, err error) {
	parts := strings.Split(strings.TrimSpace(dataset), ".")
	switch len(parts) {
	case 1:
		schema, table = "public", parts[0]
	case 2:
		schema, table = parts[0], parts[1]
	default:
		return "", "", unsupportedDataset(dataset, "table reference must be <table> or <schema>.<table>")
	}
	if schema == "" || table == "" {
		return "", "", unsupportedDataset(dataset, "table reference must be <table> or <schema>.<table>")
	}
	return schema, table, nil
}

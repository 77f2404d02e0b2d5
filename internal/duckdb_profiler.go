package internal

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"strings"

	"github.com/lib/pq"
	"github.com/lychee-technology/chartpreset"
	"go.uber.org/zap"
)

// DuckDBProfiler derives column metadata from files (CSV, Parquet, JSON;
// local paths or s3:// URIs) and from tables in the DuckDB database.
type DuckDBProfiler struct {
	client  *DuckDBClient
	breaker *CircuitBreaker
	logger  *zap.Logger
}

var _ chartpreset.ColumnMetadataProvider = (*DuckDBProfiler)(nil)

// NewDuckDBProfiler creates a profiler on top of client. breaker may be nil.
func NewDuckDBProfiler(client *DuckDBClient, breaker *CircuitBreaker, logger *zap.Logger) *DuckDBProfiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuckDBProfiler{client: client, breaker: breaker, logger: logger}
}

// ColumnTypes profiles dataset. Columns come back in dataset order; unique
// holds DuckDB's approximate distinct count.
func (p *DuckDBProfiler) ColumnTypes(ctx context.Context, dataset string) (*chartpreset.ColumnTypes, error) {
	relation, err := duckDBRelation(dataset)
	if err != nil {
		return nil, err
	}
	return guardedProfile(ctx, "duckdb", dataset, p.breaker, p.client.QueryTimeout(), p.logger,
		func(ctx context.Context) (*chartpreset.ColumnTypes, error) {
			return p.summarize(ctx, relation)
		})
}

func (p *DuckDBProfiler) summarize(ctx context.Context, relation string) (*chartpreset.ColumnTypes, error) {
	if p.client == nil || p.client.DB == nil {
		return nil, fmt.Errorf("duckdb client not initialized")
	}
	query := fmt.Sprintf(
		"SELECT column_name, column_type, approx_unique FROM (SUMMARIZE SELECT * FROM %s)", relation)
	rows, err := p.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	defer rows.Close()

	columns := chartpreset.NewColumnTypes()
	for rows.Next() {
		var (
			name, colType string
			unique        sql.NullInt64
		)
		if err := rows.Scan(&name, &colType, &unique); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		info := chartpreset.ColumnInfo{Type: MapDuckDBType(colType)}
		if unique.Valid {
			n := int(unique.Int64)
			info.Unique = &n
		}
		columns.Set(name, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	return columns, nil
}

// duckDBRelation turns a dataset reference into a FROM clause item. File
// references pick a reader by extension (a trailing .gz is ignored); bare
// names address tables, optionally schema-qualified.
func duckDBRelation(dataset string) (string, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return "", unsupportedDataset(dataset, "dataset is empty")
	}

	ext := strings.ToLower(path.Ext(strings.TrimSuffix(strings.ToLower(dataset), ".gz")))
	switch ext {
	case ".csv", ".tsv", ".txt":
		return "read_csv_auto(" + duckDBLiteral(dataset) + ")", nil
	case ".parquet":
		return "read_parquet(" + duckDBLiteral(dataset) + ")", nil
	case ".json", ".jsonl", ".ndjson":
		return "read_json_auto(" + duckDBLiteral(dataset) + ")", nil
	}

	if strings.Contains(dataset, "/") || strings.Contains(dataset, "://") {
		return "", unsupportedDataset(dataset, "unsupported file format")
	}
	parts := strings.Split(dataset, ".")
	if len(parts) > 2 {
		return "", unsupportedDataset(dataset, "table reference must be <table> or <schema>.<table>")
	}
	quoted := make([]string, len(parts))
	for i, part := range parts {
		if !isPlainIdentifier(part) {
			return "", unsupportedDataset(dataset, "invalid table reference")
		}
		quoted[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(quoted, "."), nil
}

func unsupportedDataset(dataset, msg string) *chartpreset.PresetError {
	return chartpreset.NewPresetError(chartpreset.ErrorTypeMalformed, chartpreset.ErrCodeDatasetUnsupported, msg).
		WithDetail("dataset", dataset)
}

package internal

import (
	"context"
	"strings"

	"github.com/lychee-technology/chartpreset"
)

// PostgresDatasetPrefix marks datasets that live in Postgres tables.
const PostgresDatasetPrefix = "postgres:"

// MetadataRouter dispatches dataset profiling to the backend that owns the
// dataset: "postgres:<schema>.<table>" goes to Postgres, everything else to
// DuckDB. Either backend may be nil when it is not configured.
type MetadataRouter struct {
	duckdb   chartpreset.ColumnMetadataProvider
	postgres chartpreset.ColumnMetadataProvider
}

var _ chartpreset.ColumnMetadataProvider = (*MetadataRouter)(nil)

// NewMetadataRouter creates a router over the given providers.
func NewMetadataRouter(duckdb, postgres chartpreset.ColumnMetadataProvider) *MetadataRouter {
	return &MetadataRouter{duckdb: duckdb, postgres: postgres}
}

func (r *MetadataRouter) ColumnTypes(ctx context.Context, dataset string) (*chartpreset.ColumnTypes, error) {
	if table, ok := strings.CutPrefix(dataset, PostgresDatasetPrefix); ok {
		if r.postgres == nil {
			return nil, unavailableBackend(dataset, "postgres")
		}
		return r.postgres.ColumnTypes(ctx, table)
	}
	if r.duckdb == nil {
		return nil, unavailableBackend(dataset, "duckdb")
	}
	return r.duckdb.ColumnTypes(ctx, dataset)
}

func unavailableBackend(dataset, backend string) *chartpreset.PresetError {
	return chartpreset.NewMetadataError(chartpreset.ErrCodeProfilerUnavailable, dataset,
		backend+" profiling is not configured", nil)
}

package e2e_harness

import (
	"context"
	"testing"

	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scatterPresetYAML = `name: Scatter
findColumns:
  x: {type: [quantitative]}
  y: {type: [quantitative]}
  color: {type: [nominal, ordinal], maxUnique: 4}
ifColumn:
  color:
    encoding:
      color: {field: color}
mark: point
encoding:
  x: {field: x}
  y: {field: y}
`

func TestE2EPresetResolution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E harness in -short mode")
	}
	ctx := context.Background()
	h := &TestHarness{}

	if _, err := h.StartPostgres(ctx); err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer h.StopPostgres(ctx)

	if _, err := h.StartS3(ctx); err != nil {
		t.Fatalf("start minio: %v", err)
	}
	defer h.StopS3(ctx)

	if err := h.StartDuckDB(); err != nil {
		t.Fatalf("start duckdb: %v", err)
	}
	defer h.StopDuckDB()

	if err := SeedPostgres(ctx, h.PGDB, "cars"); err != nil {
		t.Fatalf("seed postgres: %v", err)
	}
	parquet, err := WriteCarsParquet(ctx, h.Duck, t.TempDir())
	if err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if err := UploadFile(ctx, h.S3Config(), "datasets", "cars/cars.parquet", parquet); err != nil {
		t.Fatalf("upload parquet: %v", err)
	}
	if err := UploadObject(ctx, h.S3Config(), "presets", "charts/scatter.yaml", []byte(scatterPresetYAML)); err != nil {
		t.Fatalf("upload preset: %v", err)
	}

	config := chartpreset.DefaultConfig()
	config.Presets.Directory = ""
	config.Presets.S3Bucket = "presets"
	config.Presets.S3Prefix = "charts/"
	config.S3 = h.S3Config()

	s3Client, err := factory.NewS3Client(ctx, config.S3)
	require.NoError(t, err)
	catalog, err := factory.NewPresetCatalog(ctx, config, s3Client, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"scatter"}, catalog.ListPresets())

	provider := factory.NewColumnMetadataProvider(config, h.Duck, h.PGPool, nil)
	engine := factory.NewPresetEngine(config, nil)

	for _, dataset := range []string{"postgres:public.cars", "s3://datasets/cars/cars.parquet"} {
		t.Run(dataset, func(t *testing.T) {
			columns, err := provider.ColumnTypes(ctx, dataset)
			require.NoError(t, err)
			assert.Equal(t, []string{"name", "mpg", "origin", "year"}, columns.Names())

			preset, err := catalog.GetPreset("scatter")
			require.NoError(t, err)

			state := chartpreset.NewStateRecorder()
			require.NoError(t, engine.UpdateStateFromPreset(ctx, state, preset, columns))
			assert.Equal(t, "point", state.Mark())

			// only mpg is quantitative, so y stays unresolved and its field is
			// removed; name has too many distinct values to be the color
			assert.Equal(t, `{"x":{"field":"mpg"},"y":{},"color":{"field":"origin"}}`, state.Encoding().String())
		})
	}
}

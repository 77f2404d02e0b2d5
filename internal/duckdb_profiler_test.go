package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lychee-technology/chartpreset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuckDBRelation(t *testing.T) {
	cases := map[string]string{
		"data/cars.csv":            `read_csv_auto('data/cars.csv')`,
		"data/cars.CSV.gz":         `read_csv_auto('data/cars.CSV.gz')`,
		"s3://bucket/cars.parquet": `read_parquet('s3://bucket/cars.parquet')`,
		"events.ndjson":            `read_json_auto('events.ndjson')`,
		"o'brien.json":             `read_json_auto('o''brien.json')`,
		"cars":                     `"cars"`,
		"analytics.cars":           `"analytics"."cars"`,
	}
	for in, want := range cases {
		got, err := duckDBRelation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "data/cars.xlsx", "a.b.c", "cars; drop table x"} {
		_, err := duckDBRelation(bad)
		require.Error(t, err, bad)
		assert.True(t, chartpreset.IsMalformedError(err), bad)
	}
}

func TestDuckDBProfiler_CSV(t *testing.T) {
	client := newTestDuckDBClient(t)
	file := filepath.Join(t.TempDir(), "cars.csv")
	csv := "name,mpg,origin,year\n" +
		"chevrolet,18.0,USA,1970-01-01\n" +
		"toyota,24.0,Japan,1970-01-01\n" +
		"volkswagen,26.0,Europe,1971-01-01\n" +
		"ford,15.0,USA,1972-01-01\n"
	require.NoError(t, os.WriteFile(file, []byte(csv), 0o600))

	profiler := NewDuckDBProfiler(client, nil, nil)
	cols, err := profiler.ColumnTypes(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "mpg", "origin", "year"}, cols.Names())

	mpg, _ := cols.Get("mpg")
	assert.Equal(t, chartpreset.SemanticTypeQuantitative, mpg.Type)
	year, _ := cols.Get("year")
	assert.Equal(t, chartpreset.SemanticTypeTemporal, year.Type)
	origin, _ := cols.Get("origin")
	assert.Equal(t, chartpreset.SemanticTypeNominal, origin.Type)
	require.NotNil(t, origin.Unique)
	assert.InDelta(t, 3, *origin.Unique, 1)
}

func TestDuckDBProfiler_Table(t *testing.T) {
	client := newTestDuckDBClient(t)
	ctx := context.Background()
	_, err := client.DB.ExecContext(ctx, `CREATE TABLE sales (region VARCHAR, amount DECIMAL(10,2), sold_at TIMESTAMP)`)
	require.NoError(t, err)
	_, err = client.DB.ExecContext(ctx, `INSERT INTO sales VALUES
		('north', 10.50, TIMESTAMP '2024-01-01 10:00:00'),
		('south', 20.00, TIMESTAMP '2024-01-02 11:00:00')`)
	require.NoError(t, err)

	cols, err := NewDuckDBProfiler(client, nil, nil).ColumnTypes(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount", "sold_at"}, cols.Names())
	amount, _ := cols.Get("amount")
	assert.Equal(t, chartpreset.SemanticTypeQuantitative, amount.Type)
	soldAt, _ := cols.Get("sold_at")
	assert.Equal(t, chartpreset.SemanticTypeTemporal, soldAt.Type)
}

func TestDuckDBProfiler_MissingFile(t *testing.T) {
	client := newTestDuckDBClient(t)
	breaker := NewCircuitBreaker(1, time.Minute, time.Minute)
	profiler := NewDuckDBProfiler(client, breaker, nil)

	_, err := profiler.ColumnTypes(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, chartpreset.IsMetadataError(err))
	assert.True(t, breaker.IsOpen())

	_, err = profiler.ColumnTypes(context.Background(), "cars")
	var pe *chartpreset.PresetError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, chartpreset.ErrCodeProfilerUnavailable, pe.Code)
}

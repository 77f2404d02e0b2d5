package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lychee-technology/chartpreset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCircuitBreaker_OpensAndResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute, 30*time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.False(t, cb.IsOpen())

	// a failure outside the window does not count
	now = now.Add(2 * time.Minute)
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())

	now = now.Add(time.Second)
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	now = now.Add(31 * time.Second)
	assert.False(t, cb.IsOpen(), "breaker closes after openDuration")

	cb.Record(nil)
	cb.Record(errors.New("boom"))
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_NilIsClosed(t *testing.T) {
	var cb *CircuitBreaker
	cb.RecordFailure()
	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())

	assert.Nil(t, NewCircuitBreakerFromConfig(chartpreset.CircuitBreakerConfig{}))
	assert.NotNil(t, NewCircuitBreakerFromConfig(chartpreset.DefaultConfig().DuckDB.CircuitBreaker))
}

func TestGuardedProfile(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	ok := func(context.Context) (*chartpreset.ColumnTypes, error) {
		return chartpreset.NewColumnTypes(chartpreset.Column{Name: "a"}), nil
	}

	t.Run("success", func(t *testing.T) {
		cols, err := guardedProfile(ctx, "test", "ds", nil, time.Second, logger, ok)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, cols.Names())
	})

	t.Run("failure is wrapped", func(t *testing.T) {
		_, err := guardedProfile(ctx, "test", "ds", nil, time.Second, logger,
			func(context.Context) (*chartpreset.ColumnTypes, error) { return nil, errors.New("no such file") })
		var pe *chartpreset.PresetError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, chartpreset.ErrCodeProfileFailed, pe.Code)
		assert.Equal(t, "ds", pe.Details["dataset"])
		assert.True(t, chartpreset.IsMetadataError(err))
	})

	t.Run("deadline", func(t *testing.T) {
		_, err := guardedProfile(ctx, "test", "ds", nil, 10*time.Millisecond, logger,
			func(ctx context.Context) (*chartpreset.ColumnTypes, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})
		var pe *chartpreset.PresetError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, chartpreset.ErrCodeProfileTimeout, pe.Code)
		assert.Equal(t, chartpreset.ErrorTypeTimeout, pe.Type)
	})

	t.Run("breaker opens and rejects", func(t *testing.T) {
		cb := NewCircuitBreaker(2, time.Minute, time.Minute)
		calls := 0
		failing := func(context.Context) (*chartpreset.ColumnTypes, error) {
			calls++
			return nil, errors.New("connection refused")
		}
		for i := 0; i < 2; i++ {
			_, err := guardedProfile(ctx, "test", "ds", cb, time.Second, logger, failing)
			require.Error(t, err)
		}
		_, err := guardedProfile(ctx, "test", "ds", cb, time.Second, logger, failing)
		var pe *chartpreset.PresetError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, chartpreset.ErrCodeProfilerUnavailable, pe.Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("success clears earlier failures", func(t *testing.T) {
		cb := NewCircuitBreaker(2, time.Minute, time.Minute)
		failing := func(context.Context) (*chartpreset.ColumnTypes, error) {
			return nil, errors.New("connection refused")
		}

		_, err := guardedProfile(ctx, "test", "ds", cb, time.Second, logger, failing)
		require.Error(t, err)
		_, err = guardedProfile(ctx, "test", "ds", cb, time.Second, logger, ok)
		require.NoError(t, err)
		_, err = guardedProfile(ctx, "test", "ds", cb, time.Second, logger, failing)
		require.Error(t, err)
		assert.False(t, cb.IsOpen(), "one failure since the last success stays below the threshold")

		_, err = guardedProfile(ctx, "test", "ds", cb, time.Second, logger, failing)
		require.Error(t, err)
		assert.True(t, cb.IsOpen())
	})

	t.Run("malformed dataset does not trip the breaker", func(t *testing.T) {
		cb := NewCircuitBreaker(1, time.Minute, time.Minute)
		_, err := guardedProfile(ctx, "test", "ds", cb, time.Second, logger,
			func(context.Context) (*chartpreset.ColumnTypes, error) { return nil, unsupportedDataset("ds", "bad") })
		require.Error(t, err)
		assert.True(t, chartpreset.IsMalformedError(err))
		assert.False(t, cb.IsOpen())
	})

	t.Run("telemetry", func(t *testing.T) {
		var names []string
		RegisterTelemetryEmitter(func(_ context.Context, name string, labels map[string]string, _ any) {
			names = append(names, name+":"+labels["source"])
		})
		t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

		_, err := guardedProfile(ctx, "duckdb", "ds", nil, time.Second, logger, ok)
		require.NoError(t, err)
		assert.Equal(t, []string{"dataset_profile_latency:duckdb"}, names)
	})
}

package internal

import (
	"context"
	"errors"
	"time"

	"github.com/lychee-technology/chartpreset"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// profileFunc computes column metadata for one dataset.
type profileFunc func(ctx context.Context) (*chartpreset.ColumnTypes, error)

// guardedProfile runs fn under the breaker with a per-query deadline. It
// opens a dataset.profile span, emits the profile latency and turns failures
// into metadata errors.
func guardedProfile(ctx context.Context, source, dataset string, breaker *CircuitBreaker, timeout time.Duration, logger *zap.Logger, fn profileFunc) (*chartpreset.ColumnTypes, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "dataset.profile")
	defer span.End()
	span.SetAttributes(
		attribute.String("profile.source", source),
		attribute.String("profile.dataset", dataset),
	)

	if breaker.IsOpen() {
		err := chartpreset.NewMetadataError(chartpreset.ErrCodeProfilerUnavailable, dataset,
			source+" profiler is temporarily unavailable", nil)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	columns, err := fn(ctx)
	elapsed := time.Since(start)
	EmitProfileLatency(ctx, source, elapsed.Milliseconds())

	if err != nil {
		var pe *chartpreset.PresetError
		switch {
		case errors.As(err, &pe) && pe.Type == chartpreset.ErrorTypeMalformed:
			// Bad dataset references say nothing about backend health.
		case errors.Is(err, context.DeadlineExceeded):
			breaker.Record(err)
			pe = chartpreset.NewMetadataError(chartpreset.ErrCodeProfileTimeout, dataset, "profiling timed out", err)
			pe.Type = chartpreset.ErrorTypeTimeout
		case errors.As(err, &pe):
			breaker.Record(err)
		default:
			breaker.Record(err)
			pe = chartpreset.NewMetadataError(chartpreset.ErrCodeProfileFailed, dataset, "failed to profile dataset", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, pe.Message)
		logger.Warn("dataset profiling failed",
			zap.String("source", source),
			zap.String("dataset", dataset),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, pe
	}

	breaker.Record(nil)
	span.SetAttributes(attribute.Int("profile.columns", columns.Len()))
	logger.Debug("dataset profiled",
		zap.String("source", source),
		zap.String("dataset", dataset),
		zap.Int("columns", columns.Len()),
		zap.Duration("elapsed", elapsed))
	return columns, nil
}

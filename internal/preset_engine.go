package internal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/chartpreset"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/lychee-technology/chartpreset"

// presetEngine implements chartpreset.PresetEngine. It holds no mutable
// state, so one value can serve concurrent callers.
type presetEngine struct {
	cfg    chartpreset.ResolutionConfig
	logger *zap.Logger
	tracer trace.Tracer
}

// NewPresetEngine creates a resolution engine. A nil logger disables logging.
func NewPresetEngine(cfg chartpreset.ResolutionConfig, logger *zap.Logger) chartpreset.PresetEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OverlayOrder == "" {
		cfg.OverlayOrder = chartpreset.OverlayOrderDeclaration
	}
	return &presetEngine{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// UpdateStateFromPreset resolves preset and hands the result to state. The
// setters are only called once resolution fully succeeded.
func (e *presetEngine) UpdateStateFromPreset(ctx context.Context, state chartpreset.BuilderState, preset *chartpreset.Preset, columnTypes *chartpreset.ColumnTypes) error {
	if preset == nil {
		return nil
	}
	if state == nil {
		return chartpreset.NewInternalError("builder state is required", nil).WithPreset(preset.Name())
	}

	resolution, err := e.Resolve(ctx, preset, columnTypes)
	if err != nil {
		return err
	}

	state.SetPreset(preset)
	state.SetMark(resolution.Mark)
	state.SetEncoding(resolution.Encoding)
	return nil
}

// Resolve binds preset to columnTypes without touching any builder state.
// The caller's preset is never modified.
func (e *presetEngine) Resolve(ctx context.Context, preset *chartpreset.Preset, columnTypes *chartpreset.ColumnTypes) (resolution *chartpreset.Resolution, err error) {
	ctx, span := e.tracer.Start(ctx, "preset.resolve")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if preset == nil {
		return nil, chartpreset.NewMalformedPresetError("", "preset is required")
	}
	name := preset.Name()
	span.SetAttributes(attribute.String("preset.name", name))

	if columnTypes == nil {
		return nil, chartpreset.NewInvalidColumnTypesError("column types are required").WithPreset(name)
	}

	start := time.Now()
	working := preset.Clone()

	spec, err := working.FindColumns()
	if err != nil {
		return nil, withPresetName(err, name)
	}
	overlays, err := working.Overlays()
	if err != nil {
		return nil, withPresetName(err, name)
	}

	resolved := ResolveColumns(spec, columnTypes)
	applied := ApplyConditionalOverlays(working.Document(), overlays, resolved, e.cfg.OverlayOrder)

	encoding, err := working.Encoding()
	if err != nil {
		return nil, withPresetName(err, name)
	}
	materialized, err := MaterializeEncoding(encoding, resolved, e.cfg.KeepUnresolvedFields)
	if err != nil {
		return nil, withPresetName(err, name)
	}

	resolution = &chartpreset.Resolution{
		ID:              uuid.NewString(),
		Preset:          preset,
		Columns:         resolved,
		AppliedOverlays: applied,
		Mark:            chartpreset.CloneValue(working.Mark()),
		Encoding:        materialized,
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("resolution.id", resolution.ID),
		attribute.Int("resolution.declared", len(spec)),
		attribute.Int("resolution.matched", resolved.Len()),
		attribute.StringSlice("resolution.overlays", applied),
	)
	e.logger.Debug("resolved preset",
		zap.String("resolution_id", resolution.ID),
		zap.String("preset", name),
		zap.Int("declared", len(spec)),
		zap.Int("matched", resolved.Len()),
		zap.Strings("overlays", applied),
		zap.Duration("elapsed", elapsed),
	)

	EmitResolutionLatency(ctx, name, elapsed.Microseconds())
	if len(spec) > 0 {
		EmitColumnMatchRatio(ctx, name, float64(resolved.Len())/float64(len(spec)))
	}
	EmitOverlayCount(ctx, name, len(applied))

	return resolution, nil
}

func withPresetName(err error, name string) error {
	var pe *chartpreset.PresetError
	if errors.As(err, &pe) && pe.Preset == "" {
		pe.WithPreset(name)
	}
	return err
}

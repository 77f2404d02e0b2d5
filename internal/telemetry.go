package internal

import (
	"context"
	"sync"
)

// telemetry.go
// Lightweight telemetry hook layer used by the resolution engine and the
// profilers. Callers may register a real metrics emitter (or a test stub) via
// RegisterTelemetryEmitter. By default the emitter is a no-op.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {
		// noop by default
	}
)

// RegisterTelemetryEmitter registers a custom emitter function. Passing nil
// restores the no-op emitter.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, name, labels, value)
}

// EmitResolutionLatency records how long one preset resolution took (microseconds).
// name: "preset_resolution_latency" with label {"preset": "<name>"}
func EmitResolutionLatency(ctx context.Context, preset string, us int64) {
	emit(ctx, "preset_resolution_latency", map[string]string{"preset": preset}, us)
}

// EmitColumnMatchRatio records resolved/declared variables for a resolution.
// name: "preset_column_match_ratio" with label {"preset": "<name>"}
func EmitColumnMatchRatio(ctx context.Context, preset string, ratio float64) {
	emit(ctx, "preset_column_match_ratio", map[string]string{"preset": preset}, ratio)
}

// EmitOverlayCount records how many conditional overlays were applied.
// name: "preset_overlay_count" with label {"preset": "<name>"}
func EmitOverlayCount(ctx context.Context, preset string, count int) {
	emit(ctx, "preset_overlay_count", map[string]string{"preset": preset}, count)
}

// EmitProfileLatency records dataset profiling time (milliseconds).
// name: "dataset_profile_latency" with label {"source": "duckdb"|"postgres"}
func EmitProfileLatency(ctx context.Context, source string, ms int64) {
	emit(ctx, "dataset_profile_latency", map[string]string{"source": source}, ms)
}

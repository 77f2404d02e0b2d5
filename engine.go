package chartpreset

import (
	"context"
)

// BuilderState receives the outcome of applying a preset. SetPreset, SetMark
// and SetEncoding are called in that order, and only after the whole
// resolution succeeded.
type BuilderState interface {
	SetPreset(preset *Preset)
	SetMark(mark any)
	SetEncoding(encoding *Object)
}

// PresetEngine binds presets to concrete dataset columns.
type PresetEngine interface {
	// UpdateStateFromPreset resolves preset against columnTypes and pushes the
	// result into state. A nil preset is a no-op.
	UpdateStateFromPreset(ctx context.Context, state BuilderState, preset *Preset, columnTypes *ColumnTypes) error

	// Resolve performs the same computation without a sink.
	Resolve(ctx context.Context, preset *Preset, columnTypes *ColumnTypes) (*Resolution, error)
}

// PresetRegistry provides named presets. Returned presets are copies and may
// be modified by the caller.
type PresetRegistry interface {
	// GetPreset returns the preset registered under name
	GetPreset(name string) (*Preset, error)
	// ListPresets returns the registered preset names, sorted
	ListPresets() []string
}

// ColumnMetadataProvider profiles a dataset into ColumnTypes.
type ColumnMetadataProvider interface {
	ColumnTypes(ctx context.Context, dataset string) (*ColumnTypes, error)
}

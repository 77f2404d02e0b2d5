package internal

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/chartpreset"
)

//go:embed preset.schema.json
var presetSchemaJSON []byte

var (
	presetSchemaOnce     sync.Once
	presetSchemaResolved *jsonschema.Resolved
	presetSchemaErr      error
)

func resolvedPresetSchema() (*jsonschema.Resolved, error) {
	presetSchemaOnce.Do(func() {
		var schema jsonschema.Schema
		if err := json.Unmarshal(presetSchemaJSON, &schema); err != nil {
			presetSchemaErr = fmt.Errorf("failed to unmarshal preset schema: %w", err)
			return
		}
		presetSchemaResolved, presetSchemaErr = schema.Resolve(&jsonschema.ResolveOptions{})
		if presetSchemaErr != nil {
			presetSchemaErr = fmt.Errorf("failed to resolve preset schema: %w", presetSchemaErr)
		}
	})
	return presetSchemaResolved, presetSchemaErr
}

// PresetSchema returns a copy of the JSON Schema presets are validated against.
func PresetSchema() []byte {
	return append([]byte(nil), presetSchemaJSON...)
}

// ValidatePreset checks a preset document against the preset JSON Schema.
// It returns lint warnings for constructs that are legal but can never take
// effect, such as an overlay keyed by an undeclared variable.
func ValidatePreset(name string, preset *chartpreset.Preset) (warnings []string, err error) {
	resolved, err := resolvedPresetSchema()
	if err != nil {
		return nil, chartpreset.NewInternalError("preset schema unavailable", err)
	}

	data, err := preset.MarshalJSON()
	if err != nil {
		return nil, chartpreset.NewMalformedPresetError(name, "failed to encode preset").WithCause(err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, chartpreset.NewMalformedPresetError(name, "failed to decode preset").WithCause(err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, chartpreset.NewPresetValidationError(name, err)
	}

	return lintPreset(preset)
}

func lintPreset(preset *chartpreset.Preset) ([]string, error) {
	spec, err := preset.FindColumns()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(spec))
	for _, v := range spec {
		names = append(names, v.Name)
	}
	declared := NewSetOf(names...)

	var warnings []string
	overlays, err := preset.Overlays()
	if err != nil {
		return nil, err
	}
	for _, overlay := range overlays {
		if !declared.Contains(overlay.Trigger) {
			warnings = append(warnings, fmt.Sprintf("ifColumn.%s: trigger is not declared in findColumns and never applies", overlay.Trigger))
		}
	}

	encoding, err := preset.Encoding()
	if err != nil {
		return nil, err
	}
	encoding.Each(func(channel string, value any) bool {
		obj, ok := value.(*chartpreset.Object)
		if !ok {
			return true
		}
		if field, ok := obj.Get(chartpreset.KeyField); ok {
			if variable, isString := field.(string); isString && !declared.Contains(variable) {
				warnings = append(warnings, fmt.Sprintf("encoding.%s.field: %q is not declared in findColumns", channel, variable))
			}
		}
		return true
	})
	return warnings, nil
}

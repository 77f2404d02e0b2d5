package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lychee-technology/chartpreset"
	"go.uber.org/zap"
)

// PresetEntry describes one registered preset.
type PresetEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Title    string   `json:"title,omitempty"`
	Origin   string   `json:"origin"`
	Warnings []string `json:"warnings,omitempty"`
}

// PresetCatalog is a PresetRegistry backed by one or more preset sources.
// Presets are decoded and validated once per load; lookups hand out copies.
type PresetCatalog struct {
	mu       sync.RWMutex
	sources  []PresetSource
	validate bool
	logger   *zap.Logger
	presets  map[string]*chartpreset.Preset
	entries  map[string]PresetEntry
}

var _ chartpreset.PresetRegistry = (*PresetCatalog)(nil)

// NewPresetCatalog loads every preset from sources. Names must be unique
// across all sources. Any preset that fails to decode or validate fails the
// whole load; the returned error lists every failure.
func NewPresetCatalog(ctx context.Context, sources []PresetSource, validate bool, logger *zap.Logger) (*PresetCatalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &PresetCatalog{
		sources:  sources,
		validate: validate,
		logger:   logger,
	}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads all sources. On failure the previously loaded presets stay
// in place.
func (c *PresetCatalog) Reload(ctx context.Context) error {
	presets := make(map[string]*chartpreset.Preset)
	entries := make(map[string]PresetEntry)
	problems := chartpreset.NewValidationErrors()

	for _, source := range c.sources {
		docs, err := source.LoadDocuments(ctx)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			preset, entry, err := c.load(doc)
			if err != nil {
				var pe *chartpreset.PresetError
				if !errors.As(err, &pe) {
					pe = chartpreset.NewInternalError("failed to load preset", err).WithPreset(doc.Name)
				}
				problems.Add(pe.WithDetail("origin", doc.Origin))
				continue
			}
			if existing, dup := entries[doc.Name]; dup {
				problems.Add(chartpreset.NewPresetError(chartpreset.ErrorTypeValidation, chartpreset.ErrCodeDuplicatePreset,
					fmt.Sprintf("preset defined twice: %s and %s", existing.Origin, doc.Origin)).WithPreset(doc.Name))
				continue
			}
			presets[doc.Name] = preset
			entries[doc.Name] = entry
		}
	}

	if err := problems.ToError(); err != nil {
		return err
	}

	c.mu.Lock()
	c.presets = presets
	c.entries = entries
	c.mu.Unlock()

	c.logger.Info("loaded presets", zap.Int("count", len(presets)), zap.Int("sources", len(c.sources)))
	return nil
}

func (c *PresetCatalog) load(doc PresetDocument) (*chartpreset.Preset, PresetEntry, error) {
	preset, err := DecodePresetDocument(doc)
	if err != nil {
		return nil, PresetEntry{}, err
	}

	entry := PresetEntry{
		ID:     uuid.NewString(),
		Name:   doc.Name,
		Title:  preset.Name(),
		Origin: doc.Origin,
	}
	if c.validate {
		warnings, err := ValidatePreset(doc.Name, preset)
		if err != nil {
			return nil, PresetEntry{}, err
		}
		for _, w := range warnings {
			c.logger.Warn("preset lint", zap.String("preset", doc.Name), zap.String("origin", doc.Origin), zap.String("warning", w))
		}
		entry.Warnings = warnings
	}
	return preset, entry, nil
}

// GetPreset returns a deep copy of the named preset.
func (c *PresetCatalog) GetPreset(name string) (*chartpreset.Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	preset, exists := c.presets[name]
	if !exists {
		return nil, chartpreset.NewPresetNotFoundError(name)
	}
	// Return a copy to prevent external mutations
	return preset.Clone(), nil
}

// ListPresets returns a list of all registered preset names, sorted
func (c *PresetCatalog) ListPresets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return SortedKeys(c.presets)
}

// Entries returns the catalog entries sorted by name.
func (c *PresetCatalog) Entries() []PresetEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]PresetEntry, 0, len(c.entries))
	for _, name := range SortedKeys(c.entries) {
		out = append(out, c.entries[name])
	}
	return out
}

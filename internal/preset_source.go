package internal

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lychee-technology/chartpreset"
)

// PresetDocument is one raw preset file as read from a source.
type PresetDocument struct {
	Name   string // file name without extension
	Origin string // path or URI the document came from
	Data   []byte
}

// PresetSource enumerates preset documents.
type PresetSource interface {
	LoadDocuments(ctx context.Context) ([]PresetDocument, error)
}

// IsPresetFile reports whether a file name has a supported preset extension.
func IsPresetFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// PresetNameFromFile strips the directory and extension from a preset file name.
func PresetNameFromFile(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}

// DecodePresetDocument parses a document as JSON or YAML depending on its
// extension.
func DecodePresetDocument(doc PresetDocument) (*chartpreset.Preset, error) {
	var (
		preset *chartpreset.Preset
		err    error
	)
	switch strings.ToLower(path.Ext(doc.Origin)) {
	case ".yaml", ".yml":
		preset, err = ParseYAMLPreset(doc.Data)
	default:
		preset, err = chartpreset.ParsePreset(doc.Data)
	}
	if err != nil {
		return nil, withPresetName(err, doc.Name)
	}
	return preset, nil
}

// dirPresetSource reads *.json, *.yaml and *.yml files from a directory.
type dirPresetSource struct {
	dir string
}

// NewDirPresetSource creates a source reading presets from dir. Nested
// directories are not scanned.
func NewDirPresetSource(dir string) PresetSource {
	return &dirPresetSource{dir: dir}
}

func (s *dirPresetSource) LoadDocuments(ctx context.Context) ([]PresetDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && IsPresetFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	// Sort by filename for deterministic load order
	sort.Strings(names)

	docs := make([]PresetDocument, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := filepath.Join(s.dir, name)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read preset file %s: %w", file, err)
		}
		docs = append(docs, PresetDocument{Name: PresetNameFromFile(name), Origin: file, Data: data})
	}
	return docs, nil
}

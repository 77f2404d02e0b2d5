package chartpreset

import (
	"encoding/json"
	"fmt"
)

// Top-level preset keys the resolution engine reads.
const (
	KeyFindColumns = "findColumns"
	KeyIfColumn    = "ifColumn"
	KeyMark        = "mark"
	KeyEncoding    = "encoding"
	KeyField       = "field"
	KeyName        = "name"
)

// Preset is a declarative chart spec whose encoding may reference abstract
// column variables declared under findColumns.
//
// A Preset is a thin typed view over its JSON document. Accessors never hand
// out the underlying document except through Document, so callers that want
// to edit a preset should Clone it first.
type Preset struct {
	doc *Object
}

// NewPreset wraps an existing document. The document is not copied.
func NewPreset(doc *Object) *Preset {
	if doc == nil {
		doc = NewObject()
	}
	return &Preset{doc: doc}
}

// ParsePreset decodes a preset from JSON.
func ParsePreset(data []byte) (*Preset, error) {
	doc, err := ParseObject(data)
	if err != nil {
		return nil, NewMalformedPresetError("", "failed to decode preset document").WithCause(err)
	}
	return &Preset{doc: doc}, nil
}

// MustParsePreset is ParsePreset for literals known to be valid.
func MustParsePreset(data string) *Preset {
	p, err := ParsePreset([]byte(data))
	if err != nil {
		panic(err)
	}
	return p
}

// Document returns the underlying document.
func (p *Preset) Document() *Object {
	if p == nil {
		return nil
	}
	return p.doc
}

// Clone deep-copies the preset.
func (p *Preset) Clone() *Preset {
	if p == nil {
		return nil
	}
	return &Preset{doc: p.doc.Clone()}
}

// Name returns the optional "name" key.
func (p *Preset) Name() string {
	v, _ := p.Document().Get(KeyName)
	name, _ := v.(string)
	return name
}

// FindColumns parses the findColumns section. An absent or null section
// yields an empty spec; a filter written as null is kept as a nil filter.
func (p *Preset) FindColumns() (FindColumnsSpec, error) {
	section, err := p.section(KeyFindColumns)
	if err != nil || section == nil {
		return nil, err
	}

	spec := make(FindColumnsSpec, 0, section.Len())
	section.Each(func(name string, value any) bool {
		var filter *ColumnFilter
		filter, err = decodeColumnFilter(value)
		if err != nil {
			err = NewMalformedPresetError(p.Name(), err.Error()).WithField(KeyFindColumns + "." + name)
			return false
		}
		spec = append(spec, ColumnVariable{Name: name, Filter: filter})
		return true
	})
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// Overlays parses the ifColumn section into trigger/fragment pairs in
// declaration order. Fragments are the preset's own objects, not copies.
func (p *Preset) Overlays() ([]Overlay, error) {
	section, err := p.section(KeyIfColumn)
	if err != nil || section == nil {
		return nil, err
	}

	overlays := make([]Overlay, 0, section.Len())
	section.Each(func(trigger string, value any) bool {
		if value == nil {
			overlays = append(overlays, Overlay{Trigger: trigger, Fragment: NewObject()})
			return true
		}
		fragment, ok := value.(*Object)
		if !ok {
			err = NewMalformedPresetError(p.Name(), fmt.Sprintf("overlay must be an object, got %T", value)).
				WithField(KeyIfColumn + "." + trigger)
			return false
		}
		overlays = append(overlays, Overlay{Trigger: trigger, Fragment: fragment})
		return true
	})
	if err != nil {
		return nil, err
	}
	return overlays, nil
}

// Mark returns the mark section, which may be an object or a bare mark name.
func (p *Preset) Mark() any {
	v, _ := p.Document().Get(KeyMark)
	return v
}

// Encoding returns the encoding section. A missing section is returned as nil.
func (p *Preset) Encoding() (*Object, error) {
	return p.section(KeyEncoding)
}

// MarshalJSON encodes the underlying document.
func (p *Preset) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return p.doc.MarshalJSON()
}

// UnmarshalJSON decodes a preset document.
func (p *Preset) UnmarshalJSON(data []byte) error {
	doc, err := ParseObject(data)
	if err != nil {
		return err
	}
	p.doc = doc
	return nil
}

func (p *Preset) section(key string) (*Object, error) {
	v, ok := p.Document().Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, NewMalformedPresetError(p.Name(), fmt.Sprintf("%s must be an object, got %T", key, v)).WithField(key)
	}
	return obj, nil
}

func decodeColumnFilter(value any) (*ColumnFilter, error) {
	if value == nil {
		return nil, nil
	}
	obj, ok := value.(*Object)
	if !ok {
		return nil, fmt.Errorf("column filter must be an object, got %T", value)
	}
	data, err := obj.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var filter ColumnFilter
	if err := json.Unmarshal(data, &filter); err != nil {
		return nil, fmt.Errorf("invalid column filter: %w", err)
	}
	return &filter, nil
}

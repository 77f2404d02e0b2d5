package chartpreset

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SemanticType is a coarse classification of a column's data.
type SemanticType string

const (
	SemanticTypeNominal      SemanticType = "nominal"
	SemanticTypeOrdinal      SemanticType = "ordinal"
	SemanticTypeQuantitative SemanticType = "quantitative"
	SemanticTypeTemporal     SemanticType = "temporal"

	// AnyType is the wildcard tag. It is written as JSON null; an empty
	// string is rejected on decode so only null selects it.
	AnyType SemanticType = ""
)

// MarshalJSON writes AnyType as null.
func (t SemanticType) MarshalJSON() ([]byte, error) {
	if t == AnyType {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON reads null as AnyType and rejects the empty string.
func (t *SemanticType) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = AnyType
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("semantic type must be a string or null, got %s", describeJSON(data))
	}
	if s == "" {
		return fmt.Errorf("semantic type must not be empty, use null for any type")
	}
	*t = SemanticType(s)
	return nil
}

// ColumnInfo is the precomputed metadata of a single dataset column.
type ColumnInfo struct {
	Type   SemanticType `json:"type"`
	Unique *int         `json:"unique,omitempty"` // approximate distinct-value count
}

// UniqueOrZero returns the distinct-value count, treating an unknown count as 0.
func (c ColumnInfo) UniqueOrZero() int {
	if c.Unique == nil {
		return 0
	}
	return *c.Unique
}

// Column pairs a column name with its metadata.
type Column struct {
	Name string
	Info ColumnInfo
}

// ColumnTypes maps column names to metadata, in dataset column order.
type ColumnTypes struct {
	columns *orderedmap.OrderedMap[string, ColumnInfo]
}

// NewColumnTypes builds a ColumnTypes from columns in the given order.
func NewColumnTypes(columns ...Column) *ColumnTypes {
	ct := &ColumnTypes{columns: orderedmap.New[string, ColumnInfo]()}
	for _, col := range columns {
		ct.Set(col.Name, col.Info)
	}
	return ct
}

// Set adds or replaces a column. A replaced column keeps its position.
func (c *ColumnTypes) Set(name string, info ColumnInfo) {
	if c.columns == nil {
		c.columns = orderedmap.New[string, ColumnInfo]()
	}
	c.columns.Set(name, info)
}

// Get returns the metadata for a column.
func (c *ColumnTypes) Get(name string) (ColumnInfo, bool) {
	if c == nil || c.columns == nil {
		return ColumnInfo{}, false
	}
	return c.columns.Get(name)
}

// Len returns the number of columns.
func (c *ColumnTypes) Len() int {
	if c == nil || c.columns == nil {
		return 0
	}
	return c.columns.Len()
}

// Names returns the column names in order.
func (c *ColumnTypes) Names() []string {
	names := make([]string, 0, c.Len())
	c.Each(func(name string, _ ColumnInfo) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Each visits the columns in order until fn returns false.
func (c *ColumnTypes) Each(fn func(name string, info ColumnInfo) bool) {
	if c == nil || c.columns == nil {
		return
	}
	for pair := c.columns.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// MarshalJSON encodes the columns as an ordered JSON object.
func (c *ColumnTypes) MarshalJSON() ([]byte, error) {
	if c == nil || c.columns == nil {
		return []byte("{}"), nil
	}
	return c.columns.MarshalJSON()
}

// UnmarshalJSON decodes an ordered JSON object of column metadata.
func (c *ColumnTypes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("column types must be a JSON object, got %s", describeJSON(trimmed))
	}
	columns := orderedmap.New[string, ColumnInfo]()
	if err := columns.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("failed to decode column types: %w", err)
	}
	c.columns = columns
	return nil
}

// ColumnFilter describes the column a preset variable is looking for.
//
// A nil Types slice means "no type constraint"; a present but empty slice
// admits no column. MaxUnique is only applied when set to a non-zero value.
type ColumnFilter struct {
	Types     []SemanticType `json:"type"`
	MaxUnique *int           `json:"maxUnique,omitempty"`
}

// HasTypeConstraint reports whether the filter restricts column types.
func (f *ColumnFilter) HasTypeConstraint() bool {
	return f != nil && f.Types != nil
}

// AcceptsAnyType reports whether the wildcard tag is among the allowed types.
func (f *ColumnFilter) AcceptsAnyType() bool {
	if f == nil {
		return false
	}
	for _, t := range f.Types {
		if t == AnyType {
			return true
		}
	}
	return false
}

// UniqueCeiling returns the maxUnique bound and whether it applies.
func (f *ColumnFilter) UniqueCeiling() (int, bool) {
	if f == nil || f.MaxUnique == nil || *f.MaxUnique == 0 {
		return 0, false
	}
	return *f.MaxUnique, true
}

// ColumnVariable is one findColumns declaration.
type ColumnVariable struct {
	Name   string
	Filter *ColumnFilter
}

// FindColumnsSpec lists the findColumns declarations in resolution order.
type FindColumnsSpec []ColumnVariable

// Overlay is a document fragment merged into the preset when Trigger resolved.
type Overlay struct {
	Trigger  string
	Fragment *Object
}

// ResolvedColumns maps preset variables to the concrete columns they matched.
type ResolvedColumns struct {
	vars *orderedmap.OrderedMap[string, string]
}

// NewResolvedColumns creates an empty mapping.
func NewResolvedColumns() *ResolvedColumns {
	return &ResolvedColumns{vars: orderedmap.New[string, string]()}
}

// Set records that variable resolved to column.
func (r *ResolvedColumns) Set(variable, column string) {
	if r.vars == nil {
		r.vars = orderedmap.New[string, string]()
	}
	r.vars.Set(variable, column)
}

// Get returns the column a variable resolved to.
func (r *ResolvedColumns) Get(variable string) (string, bool) {
	if r == nil || r.vars == nil {
		return "", false
	}
	return r.vars.Get(variable)
}

// Len returns the number of resolved variables.
func (r *ResolvedColumns) Len() int {
	if r == nil || r.vars == nil {
		return 0
	}
	return r.vars.Len()
}

// Variables returns the resolved variable names in resolution order.
func (r *ResolvedColumns) Variables() []string {
	out := make([]string, 0, r.Len())
	r.Each(func(variable, _ string) bool {
		out = append(out, variable)
		return true
	})
	return out
}

// Columns returns the claimed column names in resolution order.
func (r *ResolvedColumns) Columns() []string {
	out := make([]string, 0, r.Len())
	r.Each(func(_, column string) bool {
		out = append(out, column)
		return true
	})
	return out
}

// Each visits the mapping in resolution order until fn returns false.
func (r *ResolvedColumns) Each(fn func(variable, column string) bool) {
	if r == nil || r.vars == nil {
		return
	}
	for pair := r.vars.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Map returns the mapping as a plain map.
func (r *ResolvedColumns) Map() map[string]string {
	out := make(map[string]string, r.Len())
	r.Each(func(variable, column string) bool {
		out[variable] = column
		return true
	})
	return out
}

// MarshalJSON encodes the mapping as an ordered JSON object.
func (r *ResolvedColumns) MarshalJSON() ([]byte, error) {
	if r == nil || r.vars == nil {
		return []byte("{}"), nil
	}
	return r.vars.MarshalJSON()
}

// Resolution is the outcome of binding a preset to a dataset.
type Resolution struct {
	ID              string           `json:"id"`
	Preset          *Preset          `json:"preset"`
	Columns         *ResolvedColumns `json:"columns"`
	AppliedOverlays []string         `json:"overlays"`
	Mark            any              `json:"mark"`
	Encoding        *Object          `json:"encoding"`
}

package chartpreset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an insertion-ordered JSON object.
//
// Values held by an Object are always one of: nil, bool, float64, string,
// []any or *Object. Key order survives decoding, cloning, merging and
// encoding, which matters for presets because declaration order drives
// column resolution and overlay precedence.
type Object struct {
	pairs *orderedmap.OrderedMap[string, any]
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{pairs: orderedmap.New[string, any]()}
}

// ParseObject decodes a JSON object, preserving key order at every level.
func ParseObject(data []byte) (*Object, error) {
	obj := NewObject()
	if err := obj.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return obj, nil
}

func (o *Object) init() {
	if o.pairs == nil {
		o.pairs = orderedmap.New[string, any]()
	}
}

// Len returns the number of keys. A nil Object has no keys.
func (o *Object) Len() int {
	if o == nil || o.pairs == nil {
		return 0
	}
	return o.pairs.Len()
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil || o.pairs == nil {
		return nil, false
	}
	return o.pairs.Get(key)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (o *Object) Set(key string, value any) {
	o.init()
	o.pairs.Set(key, value)
}

// Delete removes key if present.
func (o *Object) Delete(key string) {
	if o == nil || o.pairs == nil {
		return
	}
	o.pairs.Delete(key)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Each(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each calls fn for every pair in insertion order until fn returns false.
func (o *Object) Each(fn func(key string, value any) bool) {
	if o == nil || o.pairs == nil {
		return
	}
	for pair := o.pairs.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// ObjectAt returns the nested object stored under key, if the value is one.
func (o *Object) ObjectAt(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(*Object)
	return nested, ok
}

// Clone returns a deep copy. Nothing reachable from the copy is shared with o.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := NewObject()
	o.Each(func(key string, value any) bool {
		out.Set(key, CloneValue(value))
		return true
	})
	return out
}

// Merge deep-merges src into o in place. Nested objects merge key by key;
// arrays and scalars from src replace the destination value. Values copied
// from src are cloned, so src stays independent of o afterwards.
func (o *Object) Merge(src *Object) {
	src.Each(func(key string, value any) bool {
		incoming, isObject := value.(*Object)
		if isObject {
			if existing, ok := o.ObjectAt(key); ok && existing != nil {
				existing.Merge(incoming)
				return true
			}
		}
		o.Set(key, CloneValue(value))
		return true
	})
}

// Equal reports whether both objects hold the same keys in the same order
// with deeply equal values.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	left, right := o.Keys(), other.Keys()
	for i, key := range left {
		if right[i] != key {
			return false
		}
		lv, _ := o.Get(key)
		rv, _ := other.Get(key)
		if !valuesEqual(lv, rv) {
			return false
		}
	}
	return true
}

// String renders the object as compact JSON.
func (o *Object) String() string {
	data, err := o.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid object: %v>", err)
	}
	return string(data)
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	o.Each(func(key string, value any) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var k, v []byte
		if k, err = json.Marshal(key); err != nil {
			return false
		}
		if v, err = json.Marshal(value); err != nil {
			err = fmt.Errorf("encode %q: %w", key, err)
			return false
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, replacing the current contents.
func (o *Object) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected a JSON object, got %s", describeJSON(trimmed))
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := raw.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("failed to decode JSON object: %w", err)
	}

	o.pairs = orderedmap.New[string, any]()
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		value, err := decodeValue(pair.Value)
		if err != nil {
			return fmt.Errorf("failed to decode %q: %w", pair.Key, err)
		}
		o.pairs.Set(pair.Key, value)
	}
	return nil
}

// CloneValue deep-copies a document value.
func CloneValue(value any) any {
	switch v := value.(type) {
	case *Object:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		// Plain maps only appear when callers build documents by hand; keep
		// them as plain maps so the caller's shape is preserved.
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

func decodeValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '{':
		return ParseObject(trimmed)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			value, err := decodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = value
		}
		return out, nil
	default:
		var scalar any
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return nil, err
		}
		return scalar, nil
	}
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case *Object:
		bv, ok := b.(*Object)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func describeJSON(data []byte) string {
	if len(data) == 0 {
		return "empty input"
	}
	switch data[0] {
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 'n':
		return "null"
	case 't', 'f':
		return "a boolean"
	default:
		return "a number"
	}
}

package chartpreset

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject_PreservesKeyOrder(t *testing.T) {
	obj, err := ParseObject([]byte(`{"z": 1, "a": {"y": true, "b": null}, "m": [1, {"k": "v", "c": 2}]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
	nested, ok := obj.ObjectAt("a")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "b"}, nested.Keys())

	assert.Equal(t, `{"z":1,"a":{"y":true,"b":null},"m":[1,{"k":"v","c":2}]}`, obj.String())
}

func TestParseObject_RejectsNonObjects(t *testing.T) {
	for _, input := range []string{`[]`, `"x"`, `null`, `3`, ``, `true`} {
		_, err := ParseObject([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestObject_SetKeepsPosition(t *testing.T) {
	obj := NewObject()
	obj.Set("a", 1.0)
	obj.Set("b", 2.0)
	obj.Set("a", 3.0)

	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	v, _ := obj.Get("a")
	assert.Equal(t, 3.0, v)

	obj.Delete("a")
	assert.False(t, obj.Has("a"))
	assert.Equal(t, 1, obj.Len())
}

func TestObject_NilIsEmpty(t *testing.T) {
	var obj *Object
	assert.Equal(t, 0, obj.Len())
	assert.False(t, obj.Has("x"))
	assert.Empty(t, obj.Keys())
	assert.Nil(t, obj.Clone())
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestObject_CloneIsDeep(t *testing.T) {
	orig, err := ParseObject([]byte(`{"a": {"b": [1, {"c": 2}]}}`))
	require.NoError(t, err)

	clone := orig.Clone()
	if diff := cmp.Diff(orig, clone); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	a, _ := clone.ObjectAt("a")
	list, _ := a.Get("b")
	list.([]any)[1].(*Object).Set("c", 99.0)
	a.Set("new", true)

	assert.Equal(t, `{"a":{"b":[1,{"c":2}]}}`, orig.String())
}

func TestObject_Merge(t *testing.T) {
	dst, _ := ParseObject([]byte(`{"mark": {"type": "point", "size": 10}, "list": [1, 2, 3], "keep": "yes", "scalar": {"x": 1}}`))
	src, _ := ParseObject([]byte(`{"mark": {"size": 20, "filled": true}, "list": [9], "scalar": 5, "added": {"n": 1}}`))

	dst.Merge(src)

	assert.Equal(t, `{"mark":{"type":"point","size":20,"filled":true},"list":[9],"keep":"yes","scalar":5,"added":{"n":1}}`, dst.String())

	added, _ := dst.ObjectAt("added")
	added.Set("n", 2.0)
	srcAdded, _ := src.ObjectAt("added")
	n, _ := srcAdded.Get("n")
	assert.Equal(t, 1.0, n, "merged values must not alias the source")
}

func TestObject_MergeObjectOverScalar(t *testing.T) {
	dst, _ := ParseObject([]byte(`{"mark": "point"}`))
	src, _ := ParseObject([]byte(`{"mark": {"type": "bar"}}`))

	dst.Merge(src)
	assert.Equal(t, `{"mark":{"type":"bar"}}`, dst.String())
}

func TestObject_Equal(t *testing.T) {
	a, _ := ParseObject([]byte(`{"x": 1, "y": [1, {"z": null}]}`))
	b, _ := ParseObject([]byte(`{"x": 1, "y": [1, {"z": null}]}`))
	reordered, _ := ParseObject([]byte(`{"y": [1, {"z": null}], "x": 1}`))
	different, _ := ParseObject([]byte(`{"x": 1, "y": [1, {"z": 0}]}`))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(reordered), "key order is significant")
	assert.False(t, a.Equal(different))
}

func TestObject_JSONRoundTripInsideStruct(t *testing.T) {
	type wrapper struct {
		Spec *Object `json:"spec"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"spec": {"b": 1, "a": 2}}`), &w))
	assert.Equal(t, []string{"b", "a"}, w.Spec.Keys())

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.Equal(t, `{"spec":{"b":1,"a":2}}`, string(out))
}

package internal

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/lychee-technology/chartpreset"
	"gopkg.in/yaml.v3"
)

// ParseYAMLPreset decodes a YAML preset document. Mapping key order is kept,
// so YAML presets resolve exactly like their JSON equivalents.
func ParseYAMLPreset(data []byte) (*chartpreset.Preset, error) {
	doc, err := ParseYAMLObject(data)
	if err != nil {
		return nil, chartpreset.NewMalformedPresetError("", "failed to decode YAML preset").WithCause(err)
	}
	return chartpreset.NewPreset(doc), nil
}

// ParseYAMLObject decodes a YAML mapping into an ordered Object.
func ParseYAMLObject(data []byte) (*chartpreset.Object, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("empty YAML document")
		}
		node = node.Content[0]
	}
	value, err := yamlNodeValue(node)
	if err != nil {
		return nil, err
	}
	obj, ok := value.(*chartpreset.Object)
	if !ok {
		return nil, fmt.Errorf("expected a YAML mapping at line %d, got %T", node.Line, value)
	}
	return obj, nil
}

func yamlNodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlNodeValue(node.Alias)
	case yaml.MappingNode:
		obj := chartpreset.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			if keyNode.ShortTag() == "!!merge" {
				merged, err := yamlNodeValue(valueNode)
				if err != nil {
					return nil, err
				}
				if m, ok := merged.(*chartpreset.Object); ok {
					obj.Merge(m)
				}
				continue
			}
			value, err := yamlNodeValue(valueNode)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", keyNode.Value, err)
			}
			obj.Set(keyNode.Value, value)
		}
		return obj, nil
	case yaml.SequenceNode:
		items := make([]any, len(node.Content))
		for i, child := range node.Content {
			value, err := yamlNodeValue(child)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = value
		}
		return items, nil
	case yaml.ScalarNode:
		return yamlScalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
}

// yamlScalar maps YAML scalars onto the JSON value space: numbers become
// float64 like encoding/json produces.
func yamlScalar(node *yaml.Node) (any, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, err
		}
		return float64(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("line %d: %s has no JSON representation", node.Line, node.Value)
		}
		return f, nil
	default:
		return node.Value, nil
	}
}

// EncodeYAML renders an Object as YAML, keeping key order.
func EncodeYAML(obj *chartpreset.Object) ([]byte, error) {
	node, err := yamlNodeFor(obj)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlNodeFor(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case *chartpreset.Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		v.Each(func(key string, item any) bool {
			var child *yaml.Node
			if child, err = yamlNodeFor(item); err != nil {
				return false
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, child)
			return true
		})
		return node, err
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			child, err := yamlNodeFor(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(v), 10)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, fmt.Errorf("encode %T: %w", v, err)
		}
		return node, nil
	}
}

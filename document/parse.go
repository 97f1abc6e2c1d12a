package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when parsing a blank payload.
var ErrEmptyDocument = errors.New("document is empty")

// ParseJSON parses JSON text, keeping object fields in document order.
func ParseJSON(text string) (*Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("malformed JSON document: %s", abbreviate(text, 60))
	}
	return fromResult(gjson.Parse(text)), nil
}

func fromResult(r gjson.Result) *Node {
	switch r.Type {
	case gjson.Null:
		return NewNull()
	case gjson.True:
		return NewBool(true)
	case gjson.False:
		return NewBool(false)
	case gjson.Number:
		return NewNumber(strings.TrimSpace(r.Raw))
	case gjson.String:
		return NewString(r.Str)
	}
	if r.IsArray() {
		var items []*Node
		r.ForEach(func(_, value gjson.Result) bool {
			items = append(items, fromResult(value))
			return true
		})
		return &Node{typ: Array, items: items}
	}
	var fields []Field
	r.ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, Field{Name: key.String(), Value: fromResult(value)})
		return true
	})
	return &Node{typ: Object, fields: fields}
}

// FromValue converts a Go value to a node. Maps have no inherent order, so their keys are sorted.
// Values of other types are rendered with encoding/json first.
func FromValue(value interface{}) *Node {
	switch v := value.(type) {
	case nil:
		return NewNull()
	case *Node:
		if v == nil {
			return NewNull()
		}
		return v
	case ldvalue.Value:
		return fromLDValue(v)
	case bool:
		return NewBool(v)
	case string:
		return NewString(v)
	case json.Number:
		return NewNumber(v.String())
	case int:
		return NewNumber(strconv.Itoa(v))
	case int32:
		return NewNumber(strconv.FormatInt(int64(v), 10))
	case int64:
		return NewNumber(strconv.FormatInt(v, 10))
	case uint:
		return NewNumber(strconv.FormatUint(uint64(v), 10))
	case uint64:
		return NewNumber(strconv.FormatUint(v, 10))
	case float32:
		return numberFromFloat(float64(v))
	case float64:
		return numberFromFloat(v)
	case []interface{}:
		items := make([]*Node, 0, len(v))
		for _, item := range v {
			items = append(items, FromValue(item))
		}
		return &Node{typ: Array, items: items}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Name: k, Value: FromValue(v[k])})
		}
		return &Node{typ: Object, fields: fields}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return NewString(fmt.Sprintf("%v", value))
	}
	n, err := ParseJSON(string(data))
	if err != nil {
		return NewString(string(data))
	}
	return n
}

func numberFromFloat(f float64) *Node {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NewString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return NewNumber(strconv.FormatFloat(f, 'g', -1, 64))
}

func fromLDValue(v ldvalue.Value) *Node {
	switch v.Type() {
	case ldvalue.BoolType:
		return NewBool(v.BoolValue())
	case ldvalue.NumberType:
		if v.IsInt() {
			return NewNumber(strconv.Itoa(v.IntValue()))
		}
		return numberFromFloat(v.Float64Value())
	case ldvalue.StringType:
		return NewString(v.StringValue())
	case ldvalue.ArrayType:
		items := make([]*Node, 0, v.Count())
		for i := 0; i < v.Count(); i++ {
			items = append(items, fromLDValue(v.GetByIndex(i)))
		}
		return &Node{typ: Array, items: items}
	case ldvalue.ObjectType:
		keys := v.Keys()
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Name: k, Value: fromLDValue(v.GetByKey(k))})
		}
		return &Node{typ: Object, fields: fields}
	}
	return NewNull()
}

// FromYAML converts a YAML node tree, keeping mapping keys in document order.
func FromYAML(y *yaml.Node) (*Node, error) {
	if y == nil {
		return NewNull(), nil
	}
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewNull(), nil
		}
		return FromYAML(y.Content[0])
	case yaml.AliasNode:
		return FromYAML(y.Alias)
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			item, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return &Node{typ: Array, items: items}, nil
	case yaml.MappingNode:
		fields := make([]Field, 0, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			value, err := FromYAML(y.Content[i+1])
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: y.Content[i].Value, Value: value})
		}
		return &Node{typ: Object, fields: fields}, nil
	case yaml.ScalarNode:
		return fromYAMLScalar(y)
	}
	return nil, fmt.Errorf("unsupported YAML node at line %d", y.Line)
}

func fromYAMLScalar(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return NewNull(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, err
		}
		return NewBool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(y.Value, "_", ""), 0, 64)
		if err != nil {
			return NewNumber(y.Value), nil
		}
		return NewNumber(strconv.FormatInt(i, 10)), nil
	case "!!float":
		if _, err := strconv.ParseFloat(y.Value, 64); err == nil {
			return NewNumber(y.Value), nil
		}
		return NewString(y.Value), nil
	}
	return NewString(y.Value), nil
}

func abbreviate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

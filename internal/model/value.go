// Package model holds the entity types (Queue, Task, Worker) and the
// dynamic Value type used for their user-supplied map fields.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the concrete type stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is a tagged variant standing in for the dynamic, JSON-shaped
// data carried in task args/metadata/summary and transpiler literals.
// Exactly one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	F    float64
	S    string
	L    []Value
	M    map[string]Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func Bool(b bool) Value           { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value           { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value       { return Value{Kind: KindFloat, F: f} }
func String(s string) Value       { return Value{Kind: KindString, S: s} }
func List(l []Value) Value        { return Value{Kind: KindList, L: l} }
func Map(m map[string]Value) Value { return Value{Kind: KindMap, M: m} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// FromAny converts a generic Go value (as produced by encoding/json
// unmarshalling into interface{}, or hand-built map[string]interface{})
// into a Value tree.
func FromAny(a interface{}) (Value, error) {
	switch x := a.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		if x == float64(int64(x)) {
			return Float(x), nil
		}
		return Float(x), nil
	case string:
		return String(x), nil
	case []interface{}:
		out := make([]Value, 0, len(x))
		for _, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, ev)
		}
		return List(out), nil
	case []Value:
		return List(x), nil
	case map[string]interface{}:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			out[k] = ev
		}
		return Map(out), nil
	case map[string]Value:
		return Map(x), nil
	case Value:
		return x, nil
	default:
		return Value{}, fmt.Errorf("model: unsupported value type %T", a)
	}
}

// ToAny converts a Value back to plain Go data for JSON encoding or
// backend driver consumption (bson.Marshal happily takes interface{}).
func (v Value) ToAny() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.B
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindString:
		return v.S
	case KindList:
		out := make([]interface{}, len(v.L))
		for i, e := range v.L {
			out[i] = e.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.M))
		for k, e := range v.M {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Sanitize rejects reserved-operator keys ("$"-prefixed) and protected
// field names anywhere in a map-valued Value, per the field-name
// hygiene rule on metadata/summary updates.
func Sanitize(v Value, protected map[string]bool) error {
	if v.Kind != KindMap {
		return nil
	}
	for k, sub := range v.M {
		if strings.HasPrefix(k, "$") {
			return fmt.Errorf("model: field %q uses reserved operator prefix", k)
		}
		if protected[k] {
			return fmt.Errorf("model: field %q is protected and cannot be set", k)
		}
		if err := Sanitize(sub, nil); err != nil {
			return err
		}
	}
	return nil
}

// Flatten turns a nested map Value into dotted-path leaves, e.g.
// {"a": {"b": 1}} -> {"a.b": Int(1)}. Non-map values flatten to a
// single entry under prefix (or "" at the root, which callers should
// treat as an error for top-level non-map documents).
func Flatten(prefix string, v Value, out map[string]Value) {
	if v.Kind != KindMap {
		out[prefix] = v
		return
	}
	if len(v.M) == 0 && prefix != "" {
		out[prefix] = v
		return
	}
	for k, sub := range v.M {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		Flatten(path, sub, out)
	}
}

// DeepMerge merges src into dst leaf-by-leaf: nested map keys are
// overwritten individually rather than replacing sibling keys wholesale.
func DeepMerge(dst, src map[string]Value) map[string]Value {
	if dst == nil {
		dst = map[string]Value{}
	}
	for k, sv := range src {
		dv, ok := dst[k]
		if ok && dv.Kind == KindMap && sv.Kind == KindMap {
			dst[k] = Map(DeepMerge(dv.M, sv.M))
		} else {
			dst[k] = sv
		}
	}
	return dst
}

// GetPath resolves a dotted path against a map Value, returning the
// leaf Value and whether it was found. Missing intermediate maps or a
// type mismatch along the path are reported as not-found.
func GetPath(root Value, path string) (Value, bool) {
	if path == "" {
		return root, true
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		if cur.Kind != KindMap {
			return Value{}, false
		}
		next, ok := cur.M[part]
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// MatchShape verifies that every leaf path named in a "required_fields"
// style template corresponds to a non-null leaf in data. Template
// leaves holding Null mean "any non-null value here"; non-null template
// values are accepted but unused for matching (§4.4 of the dispatch
// contract).
func MatchShape(template, data Value) bool {
	leaves := map[string]Value{}
	Flatten("", template, leaves)
	for path := range leaves {
		v, ok := GetPath(data, path)
		if !ok || v.IsNull() {
			return false
		}
	}
	return true
}

// StringRepr renders a Value in a JSON-ish form, used by the command
// interpolator for container leaves.
func (v Value) StringRepr() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.B {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindString:
		return v.S
	default:
		b, err := json.Marshal(v.ToAny())
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// SortedKeys returns the map's keys in sorted order, for deterministic
// iteration (tests, flatten output ordering).
func (v Value) SortedKeys() []string {
	if v.Kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.M))
	for k := range v.M {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing constrained output and prop types.
// Only String, Int, Bool, Array, Object, and Absent implement it.
// NO floats - floats break deterministic trace comparison and are rejected
// everywhere a Value is constructed.
type Value interface {
	value() // Sealed - only these types implement it
}

// Absent is the explicit "no such prop" marker.
//
// Reading an undeclared or missing prop name from a PropsBag yields Absent,
// never nil and never a panic. Absent is a legal Value in comparison space
// (Absent equals only Absent) but is rejected by canonical marshaling: a
// component that leaks the marker into rendered output cannot produce a
// canonical trace, which is exactly the defect the harness exists to surface.
type Absent struct{}

func (Absent) value() {}

// String represents a string value.
type String string

func (String) value() {}

// Int represents an integer value.
// Always int64, never float64.
type Int int64

func (Int) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Array represents an ordered sequence of Value elements.
type Array []Value

func (Array) value() {}

// Object represents a map of string keys to Value elements.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// IsAbsent reports whether v is the Absent marker.
func IsAbsent(v Value) bool {
	_, ok := v.(Absent)
	return ok
}

// Pair represents a key-value pair for typed Object construction.
type Pair struct {
	Key string
	Val Value
}

// Obj creates an Object from typed key-value pairs.
// Provides compile-time type safety - cannot pass floats.
// Example: Obj(P("count", Int(5)), P("label", String("likes")))
func Obj(pairs ...Pair) Object {
	o := make(Object, len(pairs))
	for _, p := range pairs {
		o[p.Key] = p.Val
	}
	return o
}

// P is a shorthand Pair constructor for ergonomic Object literals.
func P(key string, val Value) Pair {
	return Pair{Key: key, Val: val}
}

// Equal reports structural equality of two Values.
// Absent equals only Absent. Arrays compare elementwise, Objects keywise.
// Comparison is total: any two Values can be compared without panicking.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Absent:
		return IsAbsent(b)
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, ael := range av {
			bel, present := bv[k]
			if !present || !Equal(ael, bel) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// FromGo recursively converts a decoded YAML/JSON value to a Value.
// Rejects nil and floats: the trace model is deterministic and a float in a
// prop or expected output would make canonical comparison unreliable.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in harness values")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden in harness values: %s", val)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", val)
		}
		return Int(n), nil
	case float64:
		// YAML hands back float64 for some numeric forms; accept exact integers.
		if val == float64(int64(val)) {
			return Int(int64(val)), nil
		}
		return nil, fmt.Errorf("floats are forbidden in harness values: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			ev, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ObjectFromGo converts a decoded map to an Object.
// A nil map converts to an empty Object.
func ObjectFromGo(m map[string]any) (Object, error) {
	if m == nil {
		return Object{}, nil
	}
	obj := make(Object, len(m))
	for k, v := range m {
		ev, err := FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		obj[k] = ev
	}
	return obj, nil
}

// ToGo converts a Value back to plain Go types for JSON/YAML reports.
// Absent converts to the diagnostic string "<absent>" so reports stay
// readable; canonical marshaling (which rejects Absent) is unaffected.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Absent:
		return "<absent>"
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// Format renders a Value for human-readable diagnostics.
// Uses canonical key order so two equal Objects always print identically.
func Format(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case Absent:
		return "<absent>"
	case String:
		return fmt.Sprintf("%q", string(val))
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Bool:
		return fmt.Sprintf("%t", bool(val))
	case Array:
		var b strings.Builder
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Format(elem))
		}
		b.WriteByte(']')
		return b.String()
	case Object:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, Format(val[k]))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprintf("<unknown %T>", v)
	}
}

// UnmarshalValue deserializes JSON into a Value with strict validation.
// Rejects floats and null. This is the primary API for parsing stored traces.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	return FromGo(raw)
}

// UnmarshalObject deserializes JSON into an Object.
func UnmarshalObject(data []byte) (Object, error) {
	v, err := UnmarshalValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/retracehq/retrace/internal/ir"
)

// valueFromCUE converts a concrete CUE value to an ir.Value.
// Floats and null are rejected: declared defaults and initial values feed
// content-addressed hashing, which has no canonical form for either.
func valueFromCUE(v cue.Value) (ir.Value, error) {
	if err := v.Err(); err != nil {
		return nil, err
	}

	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return ir.String(s), nil

	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return ir.Int(n), nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return ir.Bool(b), nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		arr := ir.Array{}
		for i := 0; iter.Next(); i++ {
			elem, err := valueFromCUE(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		obj := ir.Object{}
		for iter.Next() {
			field, err := valueFromCUE(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", iter.Label(), err)
			}
			obj[iter.Label()] = field
		}
		return obj, nil

	case cue.FloatKind, cue.NumberKind:
		return nil, fmt.Errorf("float values are forbidden in declarations, use int instead")

	case cue.NullKind:
		return nil, fmt.Errorf("null values are forbidden in declarations")

	default:
		return nil, fmt.Errorf("value must be concrete, got kind %v", v.Kind())
	}
}

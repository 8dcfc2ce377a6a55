package component

import (
	"fmt"
	"reflect"
	"strings"
)

// Deps is a declared dependency list captured at memo evaluation time.
//
// CRITICAL: a nil Deps and an empty non-nil Deps are different, observable
// configurations. Nil means "no list supplied": the memo recomputes on every
// evaluation. Empty means "evaluate once, never again". Conflating the two
// is exactly the defect class the harness models, so DepsOf() always returns
// a non-nil slice.
type Deps []any

// DepsOf builds a dependency list from the given comparison keys.
// Always non-nil, even with zero arguments.
func DepsOf(vals ...any) Deps {
	if vals == nil {
		return Deps{}
	}
	return Deps(vals)
}

// DepsFunc produces the current dependency list for a memo.
// A nil DepsFunc on a memo means "no list supplied".
type DepsFunc func() Deps

// depsEqual reports elementwise equality of two captured dependency lists.
// Lists of different lengths are never equal.
func depsEqual(a, b Deps) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameDep(a[i], b[i]) {
			return false
		}
	}
	return true
}

// sameDep compares one dependency slot: by value for primitives, by identity
// for composites. Slices, maps, funcs, channels and pointers compare by
// referent; a rebuilt-but-deep-equal composite is a CHANGED dependency,
// matching the comparison granularity components are written against.
func sameDep(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}

	switch av.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	case reflect.Slice:
		// Identity of the slice header: same backing array AND same length.
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	default:
		if av.Comparable() {
			return a == b
		}
		// Non-comparable value composite with no identity: always changed.
		return false
	}
}

// formatDeps renders a dependency list for failure reports, distinguishing
// the nil and empty configurations explicitly.
func formatDeps(d Deps) string {
	if d == nil {
		return "<no list supplied>"
	}
	if len(d) == 0 {
		return "[]"
	}
	parts := make([]string, len(d))
	for i, dep := range d {
		parts[i] = fmt.Sprintf("%v", dep)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

package component

import (
	"slices"

	"github.com/retracehq/retrace/internal/ir"
)

// PropsBag is the declared-name-keyed input mapping a parent passes to a
// component instance.
//
// The declared name set is fixed at construction. Reading a declared name
// that the parent did not supply resolves through the declaration's default,
// or to the Absent marker if none exists. Reading an UNDECLARED name also
// yields Absent - never a panic, never a silently coerced wrong-name value -
// and the access is recorded so verification output can flag it.
type PropsBag struct {
	declared map[string]ir.Value // name -> default (nil Value means no default)
	values   ir.Object

	// undeclaredReads records names read outside the declared set, in first-
	// read order, deduplicated.
	undeclaredReads []string
}

// NewPropsBag builds a bag from declared prop specs and supplied values.
// Supplied values for names outside the declared set are dropped: the
// component cannot read them, so carrying them would only mask typos like
// "likability" supplied for a declared "liked".
func NewPropsBag(props []PropSpec, values ir.Object) *PropsBag {
	declared := make(map[string]ir.Value, len(props))
	for _, p := range props {
		declared[p.Name] = p.Default
	}

	kept := make(ir.Object, len(values))
	for name, v := range values {
		if _, ok := declared[name]; ok {
			kept[name] = v
		}
	}

	return &PropsBag{declared: declared, values: kept}
}

// Get returns the value for name.
// Resolution order: supplied value, declared default, Absent.
func (b *PropsBag) Get(name string) ir.Value {
	def, ok := b.declared[name]
	if !ok {
		if !slices.Contains(b.undeclaredReads, name) {
			b.undeclaredReads = append(b.undeclaredReads, name)
		}
		return ir.Absent{}
	}
	if v, ok := b.values[name]; ok {
		return v
	}
	if def != nil {
		return def
	}
	return ir.Absent{}
}

// Update replaces supplied values. The declared set never changes; values
// for undeclared names are dropped exactly as at construction.
func (b *PropsBag) Update(values ir.Object) {
	kept := make(ir.Object, len(values))
	for name, v := range values {
		if _, ok := b.declared[name]; ok {
			kept[name] = v
		}
	}
	b.values = kept
}

// Declared reports whether name is in the declared set.
func (b *PropsBag) Declared(name string) bool {
	_, ok := b.declared[name]
	return ok
}

// UndeclaredReads returns the undeclared names read so far, in first-read
// order. Non-fatal by design, but flagged in verification output.
func (b *PropsBag) UndeclaredReads() []string {
	return b.undeclaredReads
}

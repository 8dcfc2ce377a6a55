// Package compiler turns CUE component declarations into
// component.Declaration values.
//
// Declarations are authored in CUE under the "component" field:
//
//	component: Counter: {
//		description: "A counter driven by increment and reset events."
//		props: step: default: 1
//		cells: count: initial: 0
//		events: ["increment", "reset"]
//	}
//
// The declaration is the static half of a component; its render function
// and handlers are Go code registered against the same name.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/retracehq/retrace/internal/component"
)

// CompileDeclaration parses a CUE value into a component.Declaration.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the component struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`component: Counter: { ... }`)
//	decl, err := CompileDeclaration(v.LookupPath(cue.ParsePath("component.Counter")))
func CompileDeclaration(v cue.Value) (*component.Declaration, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &component.Declaration{}

	// The component name is the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		decl.Name = labels[len(labels)-1].String()
	}

	props, err := parseProps(v)
	if err != nil {
		return nil, err
	}
	decl.Props = props

	cells, err := parseCells(v)
	if err != nil {
		return nil, err
	}
	decl.Cells = cells

	events, err := parseEvents(v)
	if err != nil {
		return nil, err
	}
	decl.Events = events

	if err := decl.Validate(); err != nil {
		return nil, &CompileError{
			Field:   "component",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}

	return decl, nil
}

// CompileDeclarations parses every component under the "component" field of
// a CUE value, in field order.
func CompileDeclarations(v cue.Value) ([]*component.Declaration, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	componentsVal := v.LookupPath(cue.ParsePath("component"))
	if !componentsVal.Exists() {
		return nil, &CompileError{
			Field:   "component",
			Message: "no component declarations found",
			Pos:     v.Pos(),
		}
	}

	iter, err := componentsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []*component.Declaration
	for iter.Next() {
		decl, err := CompileDeclaration(iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}

	if len(decls) == 0 {
		return nil, &CompileError{
			Field:   "component",
			Message: "component field declares no components",
			Pos:     componentsVal.Pos(),
		}
	}

	return decls, nil
}

// parseProps extracts prop declarations. Props are optional; each prop may
// carry a concrete default value.
func parseProps(v cue.Value) ([]component.PropSpec, error) {
	propsVal := v.LookupPath(cue.ParsePath("props"))
	if !propsVal.Exists() {
		return nil, nil
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []component.PropSpec
	for iter.Next() {
		spec := component.PropSpec{Name: iter.Label()}

		defaultVal := iter.Value().LookupPath(cue.ParsePath("default"))
		if defaultVal.Exists() {
			def, err := valueFromCUE(defaultVal)
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("props.%s.default", spec.Name),
					Message: err.Error(),
					Pos:     defaultVal.Pos(),
				}
			}
			spec.Default = def
		}

		props = append(props, spec)
	}
	return props, nil
}

// parseCells extracts cell declarations. Each cell requires a concrete
// initial value: a mount with unspecified state would make runs
// non-reproducible.
func parseCells(v cue.Value) ([]component.CellSpec, error) {
	cellsVal := v.LookupPath(cue.ParsePath("cells"))
	if !cellsVal.Exists() {
		return nil, nil
	}

	iter, err := cellsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cells []component.CellSpec
	for iter.Next() {
		name := iter.Label()

		initialVal := iter.Value().LookupPath(cue.ParsePath("initial"))
		if !initialVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("cells.%s", name),
				Message: "initial value is required",
				Pos:     iter.Value().Pos(),
			}
		}

		initial, err := valueFromCUE(initialVal)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("cells.%s.initial", name),
				Message: err.Error(),
				Pos:     initialVal.Pos(),
			}
		}

		cells = append(cells, component.CellSpec{Name: name, Initial: initial})
	}
	return cells, nil
}

// parseEvents extracts the declared event name list.
func parseEvents(v cue.Value) ([]string, error) {
	eventsVal := v.LookupPath(cue.ParsePath("events"))
	if !eventsVal.Exists() {
		return nil, nil
	}

	iter, err := eventsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var events []string
	for iter.Next() {
		ev, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		events = append(events, ev)
	}
	return events, nil
}

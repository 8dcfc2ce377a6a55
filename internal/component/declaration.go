package component

import (
	"fmt"

	"github.com/retracehq/retrace/internal/ir"
)

// PropSpec declares one prop: its name and an optional documented default.
// A nil Default means reads of an unsupplied value resolve to Absent.
type PropSpec struct {
	Name    string
	Default ir.Value
}

// CellSpec declares one state cell and its initial value.
// Every simulated mount starts from this value - no cross-run leakage.
type CellSpec struct {
	Name    string
	Initial ir.Value
}

// Declaration is the static shape of a component: its declared props, state
// cells, and event names. Declarations are typically compiled from CUE; the
// matching render function and handlers live in a registered Behavior.
type Declaration struct {
	Name   string
	Props  []PropSpec
	Cells  []CellSpec
	Events []string
}

// Validate checks structural invariants: non-empty name, unique prop, cell,
// and event names, hashable defaults and initial values.
func (d *Declaration) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("component name is required")
	}

	seenProps := make(map[string]bool, len(d.Props))
	for _, p := range d.Props {
		if p.Name == "" {
			return fmt.Errorf("component %s: prop with empty name", d.Name)
		}
		if seenProps[p.Name] {
			return fmt.Errorf("component %s: duplicate prop %q", d.Name, p.Name)
		}
		seenProps[p.Name] = true
		if p.Default != nil {
			if _, err := ir.OutputHash(p.Default); err != nil {
				return fmt.Errorf("component %s: prop %q default: %w", d.Name, p.Name, err)
			}
		}
	}

	seenCells := make(map[string]bool, len(d.Cells))
	for _, c := range d.Cells {
		if c.Name == "" {
			return fmt.Errorf("component %s: cell with empty name", d.Name)
		}
		if seenCells[c.Name] {
			return fmt.Errorf("component %s: duplicate cell %q", d.Name, c.Name)
		}
		seenCells[c.Name] = true
		if c.Initial == nil {
			return fmt.Errorf("component %s: cell %q has no initial value", d.Name, c.Name)
		}
		if _, err := ir.OutputHash(c.Initial); err != nil {
			return fmt.Errorf("component %s: cell %q initial value: %w", d.Name, c.Name, err)
		}
	}

	seenEvents := make(map[string]bool, len(d.Events))
	for _, ev := range d.Events {
		if ev == "" {
			return fmt.Errorf("component %s: event with empty name", d.Name)
		}
		if seenEvents[ev] {
			return fmt.Errorf("component %s: duplicate event %q", d.Name, ev)
		}
		seenEvents[ev] = true
	}

	return nil
}

// DeclaresEvent reports whether ev is in the declared event list.
func (d *Declaration) DeclaresEvent(ev string) bool {
	for _, e := range d.Events {
		if e == ev {
			return true
		}
	}
	return false
}

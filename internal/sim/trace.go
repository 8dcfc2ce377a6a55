package sim

import (
	"fmt"

	"github.com/retracehq/retrace/internal/ir"
)

// Event is one scripted external event: a declared event name plus args.
type Event struct {
	Name string
	Args ir.Object
}

// Entry is one position of a RenderTrace: the dispatched event and either
// the resulting output or a terminal thrown marker.
type Entry struct {
	// Index is the 0-based script position.
	Index int

	// Event is the dispatched event.
	Event Event

	// Output is the rendered output after commit. Nil iff Thrown is set.
	Output ir.Value

	// Thrown holds the error text when dispatch raised. A thrown entry is
	// always the last entry of its trace.
	Thrown string

	// EventID is the content-addressed ID of this dispatch, computed from
	// (run token, event, args, index). Stable across replays.
	EventID string
}

// IsThrown reports whether this entry is a terminal thrown marker.
func (e Entry) IsThrown() bool {
	return e.Thrown != ""
}

// Trace is the ordered record of one simulated run. Created fresh per run
// and immutable once the run completes.
type Trace struct {
	Component string
	RunToken  string
	Entries   []Entry
}

// Halted reports whether the run stopped on a thrown entry before
// exhausting its script.
func (t *Trace) Halted() bool {
	n := len(t.Entries)
	return n > 0 && t.Entries[n-1].IsThrown()
}

// RunID returns the content-addressed ID of the whole trace.
func (t *Trace) RunID() string {
	ids := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		ids[i] = e.EventID
	}
	return ir.RunID(t.Component, t.RunToken, ids)
}

// Equal reports whether two traces are identical position by position:
// same component, same events, same outputs, same thrown markers.
// Run tokens are excluded - two runs of one scenario get distinct tokens
// but must still compare equal.
func (t *Trace) Equal(other *Trace) bool {
	if t.Component != other.Component || len(t.Entries) != len(other.Entries) {
		return false
	}
	for i := range t.Entries {
		a, b := t.Entries[i], other.Entries[i]
		if a.Event.Name != b.Event.Name || !ir.Equal(a.Event.Args, b.Event.Args) {
			return false
		}
		if a.Thrown != b.Thrown {
			return false
		}
		if a.IsThrown() {
			continue
		}
		if !ir.Equal(a.Output, b.Output) {
			return false
		}
	}
	return true
}

// Format renders the trace for diagnostics, one entry per line.
func (t *Trace) Format() string {
	out := fmt.Sprintf("trace of %s (%d entries)\n", t.Component, len(t.Entries))
	for _, e := range t.Entries {
		if e.IsThrown() {
			out += fmt.Sprintf("  [%d] %s%s -> THROWN: %s\n", e.Index, e.Event.Name, formatArgs(e.Event.Args), e.Thrown)
			continue
		}
		out += fmt.Sprintf("  [%d] %s%s -> %s\n", e.Index, e.Event.Name, formatArgs(e.Event.Args), ir.Format(e.Output))
	}
	return out
}

func formatArgs(args ir.Object) string {
	if len(args) == 0 {
		return "()"
	}
	return "(" + ir.Format(args) + ")"
}

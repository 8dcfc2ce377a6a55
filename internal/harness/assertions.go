package harness

import (
	"fmt"
	"strings"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace so failure output is debuggable on its own.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Trace    *sim.Trace
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\n%s", e.Trace.Format())
	return buf.String()
}

// EvaluateAssertions runs every assertion against the trace and returns the
// failure messages. Unlike trace verification, all assertions are evaluated:
// they are independent properties, so reporting every failure at once saves
// a re-run per fix.
func EvaluateAssertions(trace *sim.Trace, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(trace, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(trace *sim.Trace, a Assertion) error {
	switch a.Type {
	case AssertOutputAt:
		return assertOutputAt(trace, a)
	case AssertFinalOutput:
		return assertFinalOutput(trace, a)
	case AssertTraceLength:
		return assertTraceLength(trace, a)
	case AssertEventOrder:
		return assertEventOrder(trace, a)
	case AssertThrownAt:
		return assertThrownAt(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertOutputAt checks the output at a trace position.
func assertOutputAt(trace *sim.Trace, a Assertion) error {
	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("output_at value: %w", err)
	}

	if a.Index >= len(trace.Entries) {
		return &AssertionError{
			Type:     AssertOutputAt,
			Expected: fmt.Sprintf("entry %d with output %s", a.Index, ir.Format(want)),
			Actual:   fmt.Sprintf("trace has only %d entries", len(trace.Entries)),
			Trace:    trace,
		}
	}

	entry := trace.Entries[a.Index]
	if entry.IsThrown() {
		return &AssertionError{
			Type:     AssertOutputAt,
			Expected: fmt.Sprintf("entry %d with output %s", a.Index, ir.Format(want)),
			Actual:   fmt.Sprintf("entry %d threw: %s", a.Index, entry.Thrown),
			Trace:    trace,
		}
	}
	if !ir.Equal(want, entry.Output) {
		return &AssertionError{
			Type:     AssertOutputAt,
			Expected: fmt.Sprintf("entry %d with output %s", a.Index, ir.Format(want)),
			Actual:   fmt.Sprintf("output %s", ir.Format(entry.Output)),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalOutput checks the last non-thrown output of the trace.
func assertFinalOutput(trace *sim.Trace, a Assertion) error {
	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("final_output value: %w", err)
	}

	for i := len(trace.Entries) - 1; i >= 0; i-- {
		if trace.Entries[i].IsThrown() {
			continue
		}
		if !ir.Equal(want, trace.Entries[i].Output) {
			return &AssertionError{
				Type:     AssertFinalOutput,
				Expected: ir.Format(want),
				Actual:   ir.Format(trace.Entries[i].Output),
				Trace:    trace,
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertFinalOutput,
		Expected: ir.Format(want),
		Actual:   "trace has no rendered output",
		Trace:    trace,
	}
}

// assertTraceLength checks the exact entry count.
func assertTraceLength(trace *sim.Trace, a Assertion) error {
	if len(trace.Entries) != a.Length {
		return &AssertionError{
			Type:     AssertTraceLength,
			Expected: fmt.Sprintf("%d entries", a.Length),
			Actual:   fmt.Sprintf("%d entries", len(trace.Entries)),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventOrder checks that the named events were dispatched in order.
// Events need not be consecutive, and repeated names match their first
// unconsumed occurrence.
func assertEventOrder(trace *sim.Trace, a Assertion) error {
	next := 0
	for _, entry := range trace.Entries {
		if next < len(a.Events) && entry.Event.Name == a.Events[next] {
			next++
		}
	}
	if next != len(a.Events) {
		return &AssertionError{
			Type:     AssertEventOrder,
			Expected: fmt.Sprintf("events in order: %v", a.Events),
			Actual:   fmt.Sprintf("order broken at %q", a.Events[next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertThrownAt checks that the entry at Index is a thrown marker whose
// text contains the expected substring.
func assertThrownAt(trace *sim.Trace, a Assertion) error {
	if a.Index >= len(trace.Entries) {
		return &AssertionError{
			Type:     AssertThrownAt,
			Expected: fmt.Sprintf("thrown entry at %d", a.Index),
			Actual:   fmt.Sprintf("trace has only %d entries", len(trace.Entries)),
			Trace:    trace,
		}
	}

	entry := trace.Entries[a.Index]
	if !entry.IsThrown() {
		return &AssertionError{
			Type:     AssertThrownAt,
			Expected: fmt.Sprintf("thrown entry at %d", a.Index),
			Actual:   fmt.Sprintf("entry rendered %s", ir.Format(entry.Output)),
			Trace:    trace,
		}
	}
	if a.Contains != "" && !strings.Contains(entry.Thrown, a.Contains) {
		return &AssertionError{
			Type:     AssertThrownAt,
			Expected: fmt.Sprintf("thrown text containing %q", a.Contains),
			Actual:   entry.Thrown,
			Trace:    trace,
		}
	}
	return nil
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

func assertionTrace() *sim.Trace {
	return &sim.Trace{
		Component: "Counter",
		RunToken:  "assert-test",
		Entries: []sim.Entry{
			{Index: 0, Event: sim.Event{Name: "increment"}, Output: ir.Int(1)},
			{Index: 1, Event: sim.Event{Name: "reset"}, Output: ir.Int(0)},
			{Index: 2, Event: sim.Event{Name: "increment"}, Output: ir.Int(1)},
		},
	}
}

func TestAssertOutputAt(t *testing.T) {
	trace := assertionTrace()

	assert.NoError(t, evaluateAssertion(trace, Assertion{Type: AssertOutputAt, Index: 1, Value: 0}))

	err := evaluateAssertion(trace, Assertion{Type: AssertOutputAt, Index: 1, Value: 5})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertOutputAt, ae.Type)

	// Index beyond the trace.
	err = evaluateAssertion(trace, Assertion{Type: AssertOutputAt, Index: 9, Value: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 3 entries")
}

func TestAssertOutputAtOnThrownEntry(t *testing.T) {
	trace := assertionTrace()
	trace.Entries[2] = sim.Entry{Index: 2, Event: sim.Event{Name: "increment"}, Thrown: "boom"}

	err := evaluateAssertion(trace, Assertion{Type: AssertOutputAt, Index: 2, Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threw")
}

func TestAssertFinalOutput(t *testing.T) {
	trace := assertionTrace()

	assert.NoError(t, evaluateAssertion(trace, Assertion{Type: AssertFinalOutput, Value: 1}))

	err := evaluateAssertion(trace, Assertion{Type: AssertFinalOutput, Value: 0})
	require.Error(t, err)

	// A trailing thrown entry is skipped: the last rendered output counts.
	trace.Entries = append(trace.Entries, sim.Entry{
		Index: 3, Event: sim.Event{Name: "increment"}, Thrown: "boom",
	})
	assert.NoError(t, evaluateAssertion(trace, Assertion{Type: AssertFinalOutput, Value: 1}))

	// A trace with no rendered output at all fails.
	empty := &sim.Trace{Component: "C", Entries: []sim.Entry{
		{Index: 0, Event: sim.Event{Name: "x"}, Thrown: "boom"},
	}}
	err = evaluateAssertion(empty, Assertion{Type: AssertFinalOutput, Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rendered output")
}

func TestAssertTraceLength(t *testing.T) {
	trace := assertionTrace()

	assert.NoError(t, evaluateAssertion(trace, Assertion{Type: AssertTraceLength, Length: 3}))

	err := evaluateAssertion(trace, Assertion{Type: AssertTraceLength, Length: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 entries")
}

func TestAssertEventOrder(t *testing.T) {
	trace := assertionTrace()

	// Non-consecutive subsequences match.
	assert.NoError(t, evaluateAssertion(trace, Assertion{
		Type: AssertEventOrder, Events: []string{"increment", "increment"},
	}))
	assert.NoError(t, evaluateAssertion(trace, Assertion{
		Type: AssertEventOrder, Events: []string{"reset", "increment"},
	}))

	err := evaluateAssertion(trace, Assertion{
		Type: AssertEventOrder, Events: []string{"reset", "reset"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `order broken at "reset"`)
}

func TestAssertThrownAt(t *testing.T) {
	trace := assertionTrace()
	trace.Entries[2] = sim.Entry{Index: 2, Event: sim.Event{Name: "increment"}, Thrown: "boom in handler"}

	assert.NoError(t, evaluateAssertion(trace, Assertion{Type: AssertThrownAt, Index: 2}))
	assert.NoError(t, evaluateAssertion(trace, Assertion{Type: AssertThrownAt, Index: 2, Contains: "boom"}))

	err := evaluateAssertion(trace, Assertion{Type: AssertThrownAt, Index: 2, Contains: "timeout"})
	require.Error(t, err)

	err = evaluateAssertion(trace, Assertion{Type: AssertThrownAt, Index: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry rendered")
}

func TestEvaluateAssertionsCollectsAllFailures(t *testing.T) {
	trace := assertionTrace()

	failures := EvaluateAssertions(trace, []Assertion{
		{Type: AssertTraceLength, Length: 3},      // passes
		{Type: AssertFinalOutput, Value: 99},      // fails
		{Type: AssertOutputAt, Index: 0, Value: 2}, // fails
	})

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[1], "assertions[2]")
}

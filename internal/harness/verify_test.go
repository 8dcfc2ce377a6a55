package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

func counterTrace() *sim.Trace {
	return &sim.Trace{
		Component: "Counter",
		RunToken:  "verify-test",
		Entries: []sim.Entry{
			{Index: 0, Event: sim.Event{Name: "increment"}, Output: ir.Int(1)},
			{Index: 1, Event: sim.Event{Name: "increment"}, Output: ir.Int(2)},
			{Index: 2, Event: sim.Event{Name: "reset"}, Output: ir.Int(0)},
		},
	}
}

func TestVerifyPass(t *testing.T) {
	result, err := Verify(counterTrace(), []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Output: 2},
		{Event: "reset", Output: 0},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass())
	assert.Equal(t, OutcomePass, result.Outcome)
	assert.Equal(t, -1, result.Index)
}

func TestVerifyReportsFirstDivergenceOnly(t *testing.T) {
	// Entries 1 and 2 both diverge; only entry 1 is reported.
	result, err := Verify(counterTrace(), []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Output: 3},
		{Event: "reset", Output: 9},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass())
	assert.Equal(t, OutcomeDivergence, result.Outcome)
	assert.Equal(t, 1, result.Index)
	assert.Contains(t, result.Expected, "3")
	assert.Contains(t, result.Actual, "2")
}

func TestVerifyEventNameDivergence(t *testing.T) {
	result, err := Verify(counterTrace(), []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "decrement", Output: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeDivergence, result.Outcome)
	assert.Equal(t, 1, result.Index)
}

func TestVerifyUnexpectedThrown(t *testing.T) {
	trace := counterTrace()
	trace.Entries = trace.Entries[:2]
	trace.Entries[1] = sim.Entry{
		Index:  1,
		Event:  sim.Event{Name: "increment"},
		Thrown: "boom",
	}

	result, err := Verify(trace, []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Output: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeThrown, result.Outcome)
	assert.Equal(t, 1, result.Index)
	assert.Contains(t, result.Actual, "boom")
}

func TestVerifyExpectedThrownMatches(t *testing.T) {
	trace := counterTrace()
	trace.Entries = trace.Entries[:2]
	trace.Entries[1] = sim.Entry{
		Index:  1,
		Event:  sim.Event{Name: "increment"},
		Thrown: "thrown during dispatch: boom",
	}

	result, err := Verify(trace, []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Thrown: "boom"},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass())

	// A thrown expectation with different text still diverges.
	result, err = Verify(trace, []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Thrown: "timeout"},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDivergence, result.Outcome)
	assert.Equal(t, 1, result.Index)
}

func TestVerifyLengthDivergence(t *testing.T) {
	// Trace shorter than expected.
	trace := counterTrace()
	trace.Entries = trace.Entries[:2]
	result, err := Verify(trace, []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Output: 2},
		{Event: "reset", Output: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDivergence, result.Outcome)
	assert.Equal(t, 2, result.Index)
	assert.Equal(t, "trace ended", result.Actual)

	// Trace longer than expected.
	result, err = Verify(counterTrace(), []ExpectedEntry{
		{Event: "increment", Output: 1},
		{Event: "increment", Output: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDivergence, result.Outcome)
	assert.Equal(t, 2, result.Index)
	assert.Equal(t, "end of trace", result.Expected)
}

func TestVerifyRejectsUnconvertibleExpectedOutput(t *testing.T) {
	_, err := Verify(counterTrace(), []ExpectedEntry{
		{Event: "increment", Output: 1.5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestVerificationReportIncludesTrace(t *testing.T) {
	result, err := Verify(counterTrace(), []ExpectedEntry{
		{Event: "increment", Output: 7},
	})
	require.NoError(t, err)

	report := result.Report()
	assert.Contains(t, report, "Trace divergence at entry 0")
	assert.Contains(t, report, "Expected: increment -> 7")
	assert.Contains(t, report, "trace of Counter (3 entries)")
}

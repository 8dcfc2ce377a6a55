package harness

import (
	"fmt"
	"strings"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

// Outcome classifies a trace verification.
type Outcome string

// Verification outcomes.
const (
	// OutcomePass: the trace matched the expected trace position by position.
	OutcomePass Outcome = "pass"

	// OutcomeDivergence: an entry's event or output differed from the
	// expected entry at the same position, or the lengths differed.
	OutcomeDivergence Outcome = "divergence"

	// OutcomeThrown: a dispatch raised where the expected trace did not
	// mark one, halting the run.
	OutcomeThrown Outcome = "thrown"
)

// VerificationResult reports the first point where a trace departed from
// its expected trace. Only the first divergence is reported: everything
// after a diverged entry ran against state the expectation never described,
// so later mismatches are noise.
type VerificationResult struct {
	// Outcome classifies the comparison.
	Outcome Outcome

	// Index is the 0-based trace position of the first divergence.
	// -1 when the outcome is OutcomePass.
	Index int

	// Expected and Actual describe the diverging position in display form.
	Expected string
	Actual   string

	trace *sim.Trace
}

// Pass reports whether the trace matched.
func (v *VerificationResult) Pass() bool {
	return v.Outcome == OutcomePass
}

// Report renders the result for console output: the diverging position
// with expected versus actual, followed by the full trace for context.
func (v *VerificationResult) Report() string {
	if v.Pass() {
		return "trace matched expected trace"
	}

	var buf strings.Builder
	switch v.Outcome {
	case OutcomeThrown:
		fmt.Fprintf(&buf, "Dispatch threw at entry %d\n", v.Index)
	default:
		fmt.Fprintf(&buf, "Trace divergence at entry %d\n", v.Index)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", v.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", v.Actual)
	fmt.Fprintf(&buf, "\n%s", v.trace.Format())
	return buf.String()
}

// Verify compares a trace against an expected trace and returns the first
// divergence, if any. The expected trace describes the complete run: a
// shorter or longer actual trace is itself a divergence.
//
// Verify returns an error only when an expected entry cannot be converted
// to an ir value (a scenario authoring bug, not a component defect).
func Verify(trace *sim.Trace, expected []ExpectedEntry) (*VerificationResult, error) {
	pass := &VerificationResult{Outcome: OutcomePass, Index: -1, trace: trace}

	for i, exp := range expected {
		if i >= len(trace.Entries) {
			return &VerificationResult{
				Outcome:  OutcomeDivergence,
				Index:    i,
				Expected: formatExpected(exp),
				Actual:   "trace ended",
				trace:    trace,
			}, nil
		}
		actual := trace.Entries[i]

		if actual.Event.Name != exp.Event {
			return &VerificationResult{
				Outcome:  OutcomeDivergence,
				Index:    i,
				Expected: formatExpected(exp),
				Actual:   formatEntry(actual),
				trace:    trace,
			}, nil
		}

		if exp.Thrown != "" {
			// This position must be a terminal thrown marker whose text
			// contains the expected substring.
			if !actual.IsThrown() || !strings.Contains(actual.Thrown, exp.Thrown) {
				return &VerificationResult{
					Outcome:  OutcomeDivergence,
					Index:    i,
					Expected: formatExpected(exp),
					Actual:   formatEntry(actual),
					trace:    trace,
				}, nil
			}
			continue
		}

		if actual.IsThrown() {
			return &VerificationResult{
				Outcome:  OutcomeThrown,
				Index:    i,
				Expected: formatExpected(exp),
				Actual:   formatEntry(actual),
				trace:    trace,
			}, nil
		}

		want, err := ir.FromGo(exp.Output)
		if err != nil {
			return nil, fmt.Errorf("expected[%d] output: %w", i, err)
		}
		if !ir.Equal(want, actual.Output) {
			return &VerificationResult{
				Outcome:  OutcomeDivergence,
				Index:    i,
				Expected: fmt.Sprintf("%s -> %s", exp.Event, ir.Format(want)),
				Actual:   formatEntry(actual),
				trace:    trace,
			}, nil
		}
	}

	if len(trace.Entries) > len(expected) {
		return &VerificationResult{
			Outcome:  OutcomeDivergence,
			Index:    len(expected),
			Expected: "end of trace",
			Actual:   formatEntry(trace.Entries[len(expected)]),
			trace:    trace,
		}, nil
	}

	return pass, nil
}

func formatExpected(exp ExpectedEntry) string {
	if exp.Thrown != "" {
		return fmt.Sprintf("%s -> THROWN containing %q", exp.Event, exp.Thrown)
	}
	return fmt.Sprintf("%s -> %v", exp.Event, exp.Output)
}

func formatEntry(e sim.Entry) string {
	if e.IsThrown() {
		return fmt.Sprintf("%s -> THROWN: %s", e.Event.Name, e.Thrown)
	}
	return fmt.Sprintf("%s -> %s", e.Event.Name, ir.Format(e.Output))
}

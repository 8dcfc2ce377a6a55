package harness

import (
	"context"
	"fmt"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
	"github.com/retracehq/retrace/internal/store"
)

// ReplayResult reports a determinism check: a recorded run re-executed from
// its stored scenario and compared entry by entry against the stored trace.
type ReplayResult struct {
	RunToken string
	Scenario string

	// Match is true when the fresh trace reproduced the stored one exactly.
	Match bool

	// Index is the first diverging entry, -1 on match.
	Index int

	// Stored and Fresh describe the diverging entry in display form.
	Stored string
	Fresh  string

	// StoredTrace and FreshTrace are the full traces for reporting.
	StoredTrace *sim.Trace
	FreshTrace  *sim.Trace
}

// Report renders the result for console output.
func (r *ReplayResult) Report() string {
	if r.Match {
		return fmt.Sprintf("replay of %s reproduced the stored trace (%d entries)",
			r.RunToken, len(r.StoredTrace.Entries))
	}
	return fmt.Sprintf("Replay divergence at entry %d\n  Stored: %s\n  Fresh: %s\n\n%s",
		r.Index, r.Stored, r.Fresh, r.FreshTrace.Format())
}

// Replay re-executes a recorded run and compares the fresh trace against
// the stored one. The scenario comes from the stored YAML and the fresh run
// reuses the recorded run token, so event IDs are directly comparable.
//
// A divergence here is a determinism violation: same component, same props,
// same script, different trace.
func Replay(ctx context.Context, st *store.Store, runToken string, reg *component.Registry, opts ...Option) (*ReplayResult, error) {
	rec, err := st.ReadRun(ctx, runToken)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	stored, err := st.ReadTrace(ctx, runToken)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	scenario, err := ParseScenario([]byte(rec.ScenarioYAML))
	if err != nil {
		return nil, fmt.Errorf("replay: stored scenario: %w", err)
	}
	scenario.RunToken = rec.RunToken

	result, err := New(reg, opts...).Run(scenario)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	replay := &ReplayResult{
		RunToken:    runToken,
		Scenario:    rec.Scenario,
		Match:       true,
		Index:       -1,
		StoredTrace: stored,
		FreshTrace:  result.Trace,
	}
	compareTraces(replay, stored, result.Trace)
	return replay, nil
}

// compareTraces finds the first diverging entry, if any.
func compareTraces(r *ReplayResult, stored, fresh *sim.Trace) {
	n := len(stored.Entries)
	if len(fresh.Entries) < n {
		n = len(fresh.Entries)
	}

	for i := 0; i < n; i++ {
		a, b := stored.Entries[i], fresh.Entries[i]
		if !entriesEqual(a, b) {
			r.Match = false
			r.Index = i
			r.Stored = formatEntry(a)
			r.Fresh = formatEntry(b)
			return
		}
	}

	if len(stored.Entries) != len(fresh.Entries) {
		r.Match = false
		r.Index = n
		if len(stored.Entries) > n {
			r.Stored = formatEntry(stored.Entries[n])
			r.Fresh = "trace ended"
		} else {
			r.Stored = "trace ended"
			r.Fresh = formatEntry(fresh.Entries[n])
		}
	}
}

// entriesEqual compares two entries at the same position. Event IDs are
// included as a checksum over the scripted inputs.
func entriesEqual(a, b sim.Entry) bool {
	if a.EventID != b.EventID || a.Event.Name != b.Event.Name {
		return false
	}
	if a.Thrown != b.Thrown {
		return false
	}
	if a.IsThrown() {
		return true
	}
	return ir.Equal(a.Output, b.Output)
}

package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

// TraceSnapshot captures a scenario's trace for golden file comparison.
// Serialization goes through canonical JSON, so a snapshot is byte-stable
// across runs and across machines.
type TraceSnapshot struct {
	ScenarioName string
	RunToken     string
	Trace        *sim.Trace
}

// toCanonicalMap converts the snapshot to a map for ir.MarshalCanonical.
// Thrown entries carry a "thrown" field instead of "output"; the absent
// marker never appears because canonical marshaling rejects it. Event and
// run IDs are omitted: they are pure functions of the fields already in
// the snapshot, so including them would only duplicate the comparison.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	entries := make([]any, len(s.Trace.Entries))
	for i, entry := range s.Trace.Entries {
		entryMap := map[string]any{
			"index": int64(entry.Index),
			"event": entry.Event.Name,
		}
		if len(entry.Event.Args) > 0 {
			entryMap["args"] = entry.Event.Args
		}
		if entry.IsThrown() {
			entryMap["thrown"] = entry.Thrown
		} else {
			entryMap["output"] = entry.Output
		}
		entries[i] = entryMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"component":     s.Trace.Component,
		"run_token":     s.RunToken,
		"trace_version": ir.TraceVersion,
		"entries":       entries,
	}
}

// Marshal serializes the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// AssertGolden compares a scenario result's trace against the golden file
// testdata/golden/{scenarioName}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunToken:     result.Trace.RunToken,
		Trace:        result.Trace,
	}

	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

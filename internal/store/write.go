package store

import (
	"context"
	"fmt"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

// RunRecord is the stored metadata of one recorded run.
type RunRecord struct {
	ID             string
	RunToken       string
	Scenario       string
	ScenarioYAML   string
	Component      string
	TraceVersion   string
	HarnessVersion string
	CreatedAt      string
}

// WriteRun persists a trace and its run metadata in one transaction.
// Writes are idempotent: rows are keyed by content-addressed IDs with
// ON CONFLICT DO NOTHING, so recording an identical run twice is a no-op.
//
// The scenario YAML is stored alongside the trace so replay can re-execute
// the run without the original file.
func (s *Store) WriteRun(ctx context.Context, scenario, scenarioYAML string, trace *sim.Trace) (string, error) {
	runID := trace.RunID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, run_token, scenario, scenario_yaml, component, trace_version, harness_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		runID,
		trace.RunToken,
		scenario,
		scenarioYAML,
		trace.Component,
		ir.TraceVersion,
		ir.HarnessVersion,
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	for _, entry := range trace.Entries {
		argsJSON, err := marshalCanonicalText(entry.Event.Args)
		if err != nil {
			return "", fmt.Errorf("write run: entry %d: %w", entry.Index, err)
		}

		var output, thrown any
		if entry.IsThrown() {
			thrown = entry.Thrown
		} else {
			outJSON, err := marshalCanonicalText(entry.Output)
			if err != nil {
				return "", fmt.Errorf("write run: entry %d: %w", entry.Index, err)
			}
			output = outJSON
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO trace_events
			(id, run_token, idx, event, args, output, thrown)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			entry.EventID,
			trace.RunToken,
			entry.Index,
			entry.Event.Name,
			argsJSON,
			output,
			thrown,
		)
		if err != nil {
			return "", fmt.Errorf("write run: entry %d: %w", entry.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	return runID, nil
}

// marshalCanonicalText serializes an ir value to canonical JSON TEXT.
func marshalCanonicalText(v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

// ReadRun retrieves a run's metadata by its run token.
// Returns sql.ErrNoRows if no run was recorded under the token.
func (s *Store) ReadRun(ctx context.Context, runToken string) (RunRecord, error) {
	var rec RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_token, scenario, scenario_yaml, component, trace_version, harness_version, created_at
		FROM runs
		WHERE run_token = ?
	`, runToken).Scan(
		&rec.ID,
		&rec.RunToken,
		&rec.Scenario,
		&rec.ScenarioYAML,
		&rec.Component,
		&rec.TraceVersion,
		&rec.HarnessVersion,
		&rec.CreatedAt,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("read run %q: %w", runToken, err)
	}
	return rec, nil
}

// ReadTrace reconstructs the recorded trace for a run token.
// Entries come back in deterministic order: idx ASC, then the
// content-addressed ID with binary collation as a tiebreak.
func (s *Store) ReadTrace(ctx context.Context, runToken string) (*sim.Trace, error) {
	rec, err := s.ReadRun(ctx, runToken)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, idx, event, args, output, thrown
		FROM trace_events
		WHERE run_token = ?
		ORDER BY idx ASC, id COLLATE BINARY ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("read trace %q: %w", runToken, err)
	}
	defer rows.Close()

	trace := &sim.Trace{
		Component: rec.Component,
		RunToken:  rec.RunToken,
	}

	for rows.Next() {
		var (
			entry    sim.Entry
			argsJSON string
			output   sql.NullString
			thrown   sql.NullString
		)
		if err := rows.Scan(&entry.EventID, &entry.Index, &entry.Event.Name, &argsJSON, &output, &thrown); err != nil {
			return nil, fmt.Errorf("read trace %q: %w", runToken, err)
		}

		args, err := ir.UnmarshalObject([]byte(argsJSON))
		if err != nil {
			return nil, fmt.Errorf("read trace %q: entry %d args: %w", runToken, entry.Index, err)
		}
		entry.Event.Args = args

		switch {
		case thrown.Valid:
			entry.Thrown = thrown.String
		case output.Valid:
			out, err := ir.UnmarshalValue([]byte(output.String))
			if err != nil {
				return nil, fmt.Errorf("read trace %q: entry %d output: %w", runToken, entry.Index, err)
			}
			entry.Output = out
		default:
			return nil, fmt.Errorf("read trace %q: entry %d has neither output nor thrown", runToken, entry.Index)
		}

		trace.Entries = append(trace.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace %q: %w", runToken, err)
	}

	return trace, nil
}

// ListRuns returns all recorded runs ordered by run token.
// UUIDv7 tokens sort by creation time, so the listing is chronological.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_token, scenario, scenario_yaml, component, trace_version, harness_version, created_at
		FROM runs
		ORDER BY run_token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.RunToken,
			&rec.Scenario,
			&rec.ScenarioYAML,
			&rec.Component,
			&rec.TraceVersion,
			&rec.HarnessVersion,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

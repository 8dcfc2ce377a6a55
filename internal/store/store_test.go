package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
	"github.com/retracehq/retrace/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// recordedTrace runs the counter fixture and returns its trace.
func recordedTrace(t *testing.T, token string) *sim.Trace {
	t.Helper()
	reg := testutil.NewFixtureRegistry()
	decl, b, err := reg.Lookup("Counter")
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	inst, err := component.Construct(decl, b, ir.Object{}, component.WithLogger(quiet))
	require.NoError(t, err)

	simulator := sim.New(sim.WithTokenGenerator(sim.NewFixedGenerator(token)), sim.WithLogger(quiet))
	return simulator.Run(inst, []sim.Event{
		{Name: "increment", Args: ir.Obj(ir.P("source", ir.String("click")))},
		{Name: "increment"},
		{Name: "reset"},
	})
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retrace.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Re-opening an existing database is safe: schema application is
	// idempotent.
	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestWriteAndReadTrace(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	trace := recordedTrace(t, "store-run-1")
	runID, err := st.WriteRun(ctx, "counter-basic", "name: counter-basic\n", trace)
	require.NoError(t, err)
	assert.Equal(t, trace.RunID(), runID)

	got, err := st.ReadTrace(ctx, "store-run-1")
	require.NoError(t, err)

	assert.True(t, trace.Equal(got), "stored trace round-trips")
	assert.Equal(t, trace.RunID(), got.RunID(), "event IDs survive storage")
	require.Len(t, got.Entries, 3)
	assert.Equal(t, ir.Obj(ir.P("source", ir.String("click"))), got.Entries[0].Event.Args)
}

func TestWriteRunIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	trace := recordedTrace(t, "store-run-2")
	first, err := st.WriteRun(ctx, "counter-basic", "yaml", trace)
	require.NoError(t, err)
	second, err := st.WriteRun(ctx, "counter-basic", "yaml", trace)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRunPersistsThrownEntries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	reg := testutil.NewFixtureRegistry()
	decl, b, err := reg.Lookup("Faulty")
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	inst, err := component.Construct(decl, b, ir.Object{}, component.WithLogger(quiet))
	require.NoError(t, err)

	simulator := sim.New(sim.WithTokenGenerator(sim.NewFixedGenerator("store-run-3")), sim.WithLogger(quiet))
	trace := simulator.Run(inst, []sim.Event{{Name: "trip"}, {Name: "trip"}, {Name: "trip"}})
	require.True(t, trace.Halted())

	_, err = st.WriteRun(ctx, "faulty-halt", "yaml", trace)
	require.NoError(t, err)

	got, err := st.ReadTrace(ctx, "store-run-3")
	require.NoError(t, err)

	require.Len(t, got.Entries, 2)
	assert.True(t, got.Halted())
	assert.Nil(t, got.Entries[1].Output)
	assert.Contains(t, got.Entries[1].Thrown, "tripped on dispatch 1")
}

func TestReadRunMetadata(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	trace := recordedTrace(t, "store-run-4")
	_, err := st.WriteRun(ctx, "counter-basic", "name: counter-basic\n", trace)
	require.NoError(t, err)

	rec, err := st.ReadRun(ctx, "store-run-4")
	require.NoError(t, err)

	assert.Equal(t, "counter-basic", rec.Scenario)
	assert.Equal(t, "name: counter-basic\n", rec.ScenarioYAML)
	assert.Equal(t, "Counter", rec.Component)
	assert.Equal(t, ir.TraceVersion, rec.TraceVersion)
	assert.Equal(t, ir.HarnessVersion, rec.HarnessVersion)
	assert.NotEmpty(t, rec.CreatedAt)
}

func TestReadRunNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.ReadRun(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRunsEmpty(t *testing.T) {
	st := openTestStore(t)

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRunsOrderedByToken(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, token := range []string{"token-c", "token-a", "token-b"} {
		trace := recordedTrace(t, token)
		_, err := st.WriteRun(ctx, "counter-basic", "yaml", trace)
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "token-a", runs[0].RunToken)
	assert.Equal(t, "token-b", runs[1].RunToken)
	assert.Equal(t, "token-c", runs[2].RunToken)
}

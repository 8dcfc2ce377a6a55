package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/testutil"
)

func TestRunScenarioFiles(t *testing.T) {
	reg := testutil.NewFixtureRegistry()

	files := []string{
		"testdata/scenarios/counter-basic.yaml",
		"testdata/scenarios/counter-stepped.yaml",
		"testdata/scenarios/faulty-halt.yaml",
		"testdata/scenarios/likebadge-default.yaml",
	}
	for _, path := range files {
		t.Run(path, func(t *testing.T) {
			result, err := RunScenarioFile(path, reg)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.UndeclaredReads)
		})
	}
}

func TestRunReportsTraceDivergence(t *testing.T) {
	h := New(testutil.NewFixtureRegistry())

	result, err := h.Run(&Scenario{
		Name:        "counter-wrong-expectation",
		Description: "expected output diverges on the second entry",
		Component:   "Counter",
		Script:      []ScriptStep{{Event: "increment"}, {Event: "increment"}},
		Expected: []ExpectedEntry{
			{Event: "increment", Output: 1},
			{Event: "increment", Output: 5},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Trace divergence at entry 1")
}

func TestRunReportsAssertionFailures(t *testing.T) {
	h := New(testutil.NewFixtureRegistry())

	result, err := h.Run(&Scenario{
		Name:        "counter-bad-assertions",
		Description: "both assertions fail and both are reported",
		Component:   "Counter",
		Script:      []ScriptStep{{Event: "increment"}},
		Assertions: []Assertion{
			{Type: AssertTraceLength, Length: 2},
			{Type: AssertFinalOutput, Value: 9},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRunUnknownComponent(t *testing.T) {
	h := New(testutil.NewFixtureRegistry())

	_, err := h.Run(&Scenario{
		Name:        "missing",
		Description: "component is not registered",
		Component:   "Ghost",
		Script:      []ScriptStep{{Event: "x"}},
		Assertions:  []Assertion{{Type: AssertTraceLength, Length: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Ghost" not registered`)
}

func TestRunRejectsFloatProps(t *testing.T) {
	h := New(testutil.NewFixtureRegistry())

	_, err := h.Run(&Scenario{
		Name:        "float-prop",
		Description: "floats in props are rejected before mounting",
		Component:   "Counter",
		Props:       map[string]interface{}{"step": 1.5},
		Script:      []ScriptStep{{Event: "increment"}},
		Assertions:  []Assertion{{Type: AssertTraceLength, Length: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestRunFlagsUndeclaredPropReads(t *testing.T) {
	reg := component.NewRegistry()
	decl := &component.Declaration{
		Name:   "Nosy",
		Props:  []component.PropSpec{{Name: "label", Default: ir.String("x")}},
		Events: []string{"poke"},
	}
	b := component.Behavior{
		Mount: func(inst *component.Instance) error {
			inst.Handle("poke", func(args ir.Object) error { return nil })
			inst.RenderWith(func() (ir.Value, error) {
				// Reads a name the declaration does not define. The read
				// resolves to the absent marker; rendering the label keeps
				// the output canonical.
				_ = inst.Prop("color")
				return inst.Prop("label"), nil
			})
			return nil
		},
	}
	require.NoError(t, reg.Register(decl, b))

	result, err := New(reg).Run(&Scenario{
		Name:        "nosy-read",
		Description: "undeclared prop reads are flagged without failing the run",
		Component:   "Nosy",
		Script:      []ScriptStep{{Event: "poke"}},
		Assertions:  []Assertion{{Type: AssertFinalOutput, Value: "x"}},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, []string{"color"}, result.UndeclaredReads)
}

func TestRunIsIsolatedAcrossScenarios(t *testing.T) {
	h := New(testutil.NewFixtureRegistry())

	scenario := &Scenario{
		Name:        "counter-isolated",
		Description: "each run mounts from declared initial state",
		Component:   "Counter",
		Script:      []ScriptStep{{Event: "increment"}},
		Assertions:  []Assertion{{Type: AssertFinalOutput, Value: 1}},
	}

	for range 3 {
		result, err := h.Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	}
}

package component

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/ir"
)

func TestMemoReferentialStability(t *testing.T) {
	dep := "stable"
	m := NewMemo("derived", func() (any, error) {
		return ir.Obj(ir.P("v", ir.Int(1))), nil
	}, func() Deps { return DepsOf(dep) })

	out1, err := m.Evaluate()
	require.NoError(t, err)
	out2, err := m.Evaluate()
	require.NoError(t, err)

	// Unchanged deps must return the exact same output reference, not a
	// rebuilt deep-equal one.
	assert.Equal(t, reflect.ValueOf(out1).Pointer(), reflect.ValueOf(out2).Pointer())
	assert.Equal(t, 1, m.Computes())
}

func TestMemoEmptyDepsComputesOnce(t *testing.T) {
	m := NewMemo("once", func() (any, error) {
		return ir.Int(42), nil
	}, func() Deps { return DepsOf() })

	for range 5 {
		out, err := m.Evaluate()
		require.NoError(t, err)
		assert.Equal(t, ir.Int(42), out)
	}
	assert.Equal(t, 1, m.Computes(), "empty dependency list means compute exactly once")
}

func TestMemoNoDepsListRecomputesEveryTime(t *testing.T) {
	m := NewMemo("always", func() (any, error) {
		return ir.Int(1), nil
	}, nil)

	for range 3 {
		_, err := m.Evaluate()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, m.Computes(), "no list supplied means recompute on every evaluation")
}

func TestMemoRecomputesOnDepChange(t *testing.T) {
	dep := 1
	m := NewMemo("gated", func() (any, error) {
		return ir.Int(int64(dep * 10)), nil
	}, func() Deps { return DepsOf(dep) })

	out, err := m.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(10), out)

	dep = 2
	out, err = m.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, ir.Int(20), out)
	assert.Equal(t, 2, m.Computes())

	// No further change: cached
	_, err = m.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 2, m.Computes())
}

func TestCallbackMemoStableFunctionReference(t *testing.T) {
	factory := func() Handler {
		return func(args ir.Object) error { return nil }
	}
	m := NewMemo("onClick", func() (any, error) { return factory(), nil },
		func() Deps { return DepsOf() })

	var ptrs []uintptr
	for range 3 {
		out, err := m.Evaluate()
		require.NoError(t, err)
		ptrs = append(ptrs, reflect.ValueOf(out).Pointer())
	}
	assert.Equal(t, ptrs[0], ptrs[1])
	assert.Equal(t, ptrs[1], ptrs[2], "empty-deps callback must keep one function reference")
}

func TestCallbackMemoWithoutDepsRebuildsEveryTime(t *testing.T) {
	// The defect class: a callback with no dependency list is rebuilt on
	// every evaluation, so downstream identity comparisons always miss.
	m := NewMemo("onClick", func() (any, error) {
		return Handler(func(args ir.Object) error { return nil }), nil
	}, nil)

	_, err := m.Evaluate()
	require.NoError(t, err)
	_, err = m.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, 2, m.Computes())
}

func TestMemoPropagatesComputeError(t *testing.T) {
	m := NewMemo("failing", func() (any, error) {
		return nil, assert.AnError
	}, func() Deps { return DepsOf() })

	_, err := m.Evaluate()
	assert.ErrorIs(t, err, assert.AnError)

	// A failed compute does not poison the gate into "evaluated".
	_, err = m.Evaluate()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMemoCurrentDeps(t *testing.T) {
	m := NewMemo("always", func() (any, error) { return ir.Int(1), nil }, nil)
	assert.Equal(t, "<no list supplied>", m.CurrentDeps())

	gated := NewMemo("gated", func() (any, error) { return ir.Int(1), nil },
		func() Deps { return DepsOf(7) })
	_, err := gated.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, "[7]", gated.CurrentDeps())
}

// Package testutil provides deterministic helpers and fixture components
// shared by tests across the harness packages.
package testutil

import (
	"fmt"

	"github.com/retracehq/retrace/internal/builtin"
	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
)

// FaultyDecl declares a component whose "trip" handler raises after a set
// number of successful dispatches, for exercising thrown-halt behavior.
// Test-only: a deliberately broken component has no place in the builtin set.
func FaultyDecl() *component.Declaration {
	return &component.Declaration{
		Name:   "Faulty",
		Cells:  []component.CellSpec{{Name: "survived", Initial: ir.Int(0)}},
		Events: []string{"trip"},
	}
}

// FaultyBehavior raises on the Nth dispatch of "trip" (0-based). Earlier
// dispatches increment the survived cell and render it.
func FaultyBehavior(failAt int) component.Behavior {
	return component.Behavior{
		Mount: func(inst *component.Instance) error {
			survived := inst.Cell("survived")
			dispatched := 0

			inst.Handle("trip", func(args ir.Object) error {
				if dispatched == failAt {
					return fmt.Errorf("tripped on dispatch %d", dispatched)
				}
				dispatched++
				return survived.Apply(func(v ir.Value) ir.Value {
					return v.(ir.Int) + 1
				})
			})

			inst.RenderWith(func() (ir.Value, error) {
				return survived.Read(), nil
			})
			return nil
		},
	}
}

// NewFixtureRegistry returns the builtin components plus the test-only
// faulty component, which trips on its second dispatch.
func NewFixtureRegistry() *component.Registry {
	reg := builtin.NewRegistry()
	if err := reg.Register(FaultyDecl(), FaultyBehavior(1)); err != nil {
		panic(err)
	}
	return reg
}

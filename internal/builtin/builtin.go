// Package builtin ships the components bundled with the retrace binary.
//
// A component is two halves: a declaration (props, cells, events - compiled
// from CUE or constructed here) and a behavior (Go handlers and a render
// function). The CLI verifies scenarios against whatever registry its binary
// was built with; these are the stock components.
package builtin

import (
	"fmt"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
)

// Register adds every builtin component to reg.
func Register(reg *component.Registry) error {
	for _, fix := range []struct {
		decl *component.Declaration
		b    component.Behavior
	}{
		{CounterDecl(), CounterBehavior()},
		{LikeBadgeDecl(), LikeBadgeBehavior()},
		{GreeterDecl(), GreeterBehavior()},
	} {
		if err := reg.Register(fix.decl, fix.b); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with every builtin component registered.
func NewRegistry() *component.Registry {
	reg := component.NewRegistry()
	if err := Register(reg); err != nil {
		// Registration of the stock set only fails on a programming error
		// (duplicate name, invalid declaration).
		panic(err)
	}
	return reg
}

// CounterDecl declares a counter with a "step" prop and a "count" cell.
func CounterDecl() *component.Declaration {
	return &component.Declaration{
		Name:   "Counter",
		Props:  []component.PropSpec{{Name: "step", Default: ir.Int(1)}},
		Cells:  []component.CellSpec{{Name: "count", Initial: ir.Int(0)}},
		Events: []string{"increment", "reset"},
	}
}

// CounterBehavior wires the counter: increment applies the step prop to the
// count cell, reset returns it to zero, render yields the count.
func CounterBehavior() component.Behavior {
	return component.Behavior{
		Mount: func(inst *component.Instance) error {
			count := inst.Cell("count")

			inst.Handle("increment", func(args ir.Object) error {
				step := inst.Prop("step")
				return count.Apply(func(v ir.Value) ir.Value {
					return v.(ir.Int) + step.(ir.Int)
				})
			})
			inst.Handle("reset", func(args ir.Object) error {
				return count.Set(ir.Int(0))
			})

			inst.RenderWith(func() (ir.Value, error) {
				return count.Read(), nil
			})
			return nil
		},
	}
}

// LikeBadgeDecl declares a stateless badge whose "liked" prop defaults to
// "undecided". Rendering with a misnamed or missing prop must yield the
// default, never an absent marker.
func LikeBadgeDecl() *component.Declaration {
	return &component.Declaration{
		Name:   "LikeBadge",
		Props:  []component.PropSpec{{Name: "liked", Default: ir.String("undecided")}},
		Events: []string{"poke"},
	}
}

// LikeBadgeBehavior renders the resolved "liked" prop. The "poke" event is
// a no-op dispatch so scripts can drive renders without state.
func LikeBadgeBehavior() component.Behavior {
	return component.Behavior{
		Mount: func(inst *component.Instance) error {
			inst.Handle("poke", func(args ir.Object) error { return nil })
			inst.RenderWith(func() (ir.Value, error) {
				return ir.Obj(ir.P("liked", inst.Prop("liked"))), nil
			})
			return nil
		},
	}
}

// GreeterDecl declares a component with a memoized greeting derived from a
// "name" cell, exercising dependency-gated recomputation end to end.
func GreeterDecl() *component.Declaration {
	return &component.Declaration{
		Name:   "Greeter",
		Cells:  []component.CellSpec{{Name: "name", Initial: ir.String("world")}},
		Events: []string{"rename"},
	}
}

// GreeterBehavior memoizes the greeting on the name cell's value and counts
// compute invocations into the rendered output, so a trace exposes whether
// the gate skipped or recomputed.
func GreeterBehavior() component.Behavior {
	return component.Behavior{
		Mount: func(inst *component.Instance) error {
			name := inst.Cell("name")

			greeting := inst.Memo("greeting", func() (any, error) {
				return ir.String("hello, " + string(name.Read().(ir.String))), nil
			}, func() component.Deps {
				return component.DepsOf(name.Read())
			})

			inst.Handle("rename", func(args ir.Object) error {
				to, ok := args["to"]
				if !ok {
					return fmt.Errorf("rename requires a %q arg", "to")
				}
				return name.Set(to)
			})

			inst.RenderWith(func() (ir.Value, error) {
				out, err := greeting.Evaluate()
				if err != nil {
					return nil, err
				}
				return ir.Obj(
					ir.P("greeting", out.(ir.Value)),
					ir.P("computes", ir.Int(int64(greeting.Computes()))),
				), nil
			})
			return nil
		},
	}
}

package component

// Memo is a dependency-gated computation: a compute function paired with a
// declared dependency list, recomputed only when the list changes.
//
// The cached output is returned as-is on a gate hit - referential stability
// is part of the contract, so downstream identity comparisons (including a
// memoized callback used as another memo's dependency) see the same value.
//
// Gate semantics:
//   - depsFn == nil: "no list supplied" - recompute on EVERY evaluation
//   - depsFn returns empty list: compute exactly once per instance lifetime
//   - otherwise: recompute iff the current list differs elementwise from the
//     list captured at the last successful computation
type Memo struct {
	name      string
	compute   func() (any, error)
	depsFn    DepsFunc
	evaluated bool
	lastDeps  Deps
	cached    any
	computes  int // number of times compute actually ran
}

// NewMemo creates a memo. Pass a nil depsFn for the "no list supplied"
// configuration; pass a depsFn returning DepsOf() for "compute once".
func NewMemo(name string, compute func() (any, error), depsFn DepsFunc) *Memo {
	return &Memo{name: name, compute: compute, depsFn: depsFn}
}

// Name returns the memo's declared name.
func (m *Memo) Name() string {
	return m.name
}

// Evaluate returns the memo's output, recomputing only if the gate opens.
func (m *Memo) Evaluate() (any, error) {
	if m.depsFn == nil {
		// No list supplied: every evaluation recomputes. This is a legal,
		// distinct configuration - NOT the same as an empty list.
		return m.recompute(nil)
	}

	deps := m.depsFn()
	if m.evaluated && depsEqual(m.lastDeps, deps) {
		return m.cached, nil
	}
	return m.recompute(deps)
}

func (m *Memo) recompute(deps Deps) (any, error) {
	out, err := m.compute()
	if err != nil {
		return nil, err
	}
	m.cached = out
	m.lastDeps = deps
	m.evaluated = true
	m.computes++
	return out, nil
}

// Computes returns how many times the compute function actually ran.
// Diagnostic surface for the once-only and every-time gate properties.
func (m *Memo) Computes() int {
	return m.computes
}

// CurrentDeps returns the dependency list captured at the last computation,
// formatted for failure reports.
func (m *Memo) CurrentDeps() string {
	if m.depsFn == nil {
		return formatDeps(nil)
	}
	return formatDeps(m.lastDeps)
}

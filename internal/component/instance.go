package component

import (
	"fmt"
	"log/slog"

	"github.com/retracehq/retrace/internal/ir"
)

// Handler reacts to a dispatched event, typically by transitioning cells.
type Handler func(args ir.Object) error

// RenderFunc is the pure render function mapping (state, memos, props) to an
// output Value. It must not mutate cells.
type RenderFunc func() (ir.Value, error)

// Behavior supplies the executable half of a component: a Mount hook that
// wires handlers, memos, and the render function onto a fresh instance.
// Mount runs exactly once per simulated mount; its closures own the cell
// handles for the lifetime of the instance.
type Behavior struct {
	Mount func(inst *Instance) error
}

// CellHandle binds a cell to the instance's commit clock, giving behaviors
// the (reader, transition) pair of the cell contract without exposing raw
// sequence numbers.
type CellHandle struct {
	cell  *Cell
	clock *Clock
}

// Read returns the current committed value.
func (h CellHandle) Read() ir.Value {
	return h.cell.Read()
}

// Set commits a new value at the next clock position.
func (h CellHandle) Set(v ir.Value) error {
	return h.cell.Set(v, h.clock.Next())
}

// Apply commits f(current) at the next clock position. f sees the value as
// of commit time: two Apply calls in one handler stack, the second seeing
// the first's result.
func (h CellHandle) Apply(f func(ir.Value) ir.Value) error {
	return h.cell.Apply(f, h.clock.Next())
}

// Instance is a mounted component: state cells, memos, a props bag, event
// handlers, and a render function. Created once per simulated mount and
// never reused across runs.
type Instance struct {
	name  string
	decl  *Declaration
	clock *Clock
	log   *slog.Logger

	cells     map[string]*Cell
	cellOrder []string
	memos     []*Memo // registration order; re-evaluation is deterministic
	props     *PropsBag

	handlers     map[string]Handler
	handlerMemos map[string]*Memo
	render       RenderFunc
}

// Option configures an Instance at construction.
type Option func(*Instance)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(i *Instance) {
		i.log = log
	}
}

// WithClock sets the commit clock. Defaults to a fresh clock at 0;
// replay passes a clock resumed at a recorded position.
func WithClock(c *Clock) Option {
	return func(i *Instance) {
		i.clock = c
	}
}

// Construct mounts a component: validates the declaration, creates cells
// from their declared initial values, builds the props bag, and runs the
// behavior's Mount hook. Every call starts from declared initial state -
// cross-run leakage is structurally impossible because nothing survives the
// returned *Instance.
func Construct(decl *Declaration, b Behavior, props ir.Object, opts ...Option) (*Instance, error) {
	if err := decl.Validate(); err != nil {
		return nil, fmt.Errorf("construct %s: %w", decl.Name, err)
	}
	if b.Mount == nil {
		return nil, &ViolationError{
			Code:      ErrCodeBadMount,
			Message:   "behavior has no mount hook",
			Component: decl.Name,
		}
	}

	inst := &Instance{
		name:         decl.Name,
		decl:         decl,
		clock:        NewClock(),
		log:          slog.Default(),
		cells:        make(map[string]*Cell, len(decl.Cells)),
		props:        NewPropsBag(decl.Props, props),
		handlers:     make(map[string]Handler),
		handlerMemos: make(map[string]*Memo),
	}
	for _, opt := range opts {
		opt(inst)
	}

	for _, spec := range decl.Cells {
		cell, err := NewCell(spec.Name, spec.Initial)
		if err != nil {
			return nil, fmt.Errorf("construct %s: %w", decl.Name, err)
		}
		inst.cells[spec.Name] = cell
		inst.cellOrder = append(inst.cellOrder, spec.Name)
	}

	if err := b.Mount(inst); err != nil {
		return nil, &ViolationError{
			Code:      ErrCodeBadMount,
			Message:   fmt.Sprintf("mount hook failed: %v", err),
			Component: decl.Name,
		}
	}
	if inst.render == nil {
		return nil, &ViolationError{
			Code:      ErrCodeBadMount,
			Message:   "mount hook registered no render function",
			Component: decl.Name,
		}
	}

	inst.log.Debug("component mounted",
		"component", inst.name,
		"cells", len(inst.cells),
		"memos", len(inst.memos),
		"events", len(inst.handlers)+len(inst.handlerMemos),
	)

	return inst, nil
}

// Name returns the component name.
func (i *Instance) Name() string {
	return i.name
}

// Cell returns the handle for a declared cell.
// Panics with a structured violation if the name is undeclared: this is a
// behavior programming error caught at mount, not a runtime input.
func (i *Instance) Cell(name string) CellHandle {
	cell, ok := i.cells[name]
	if !ok {
		panic(&ViolationError{
			Code:      ErrCodeUnknownCell,
			Message:   fmt.Sprintf("behavior referenced undeclared cell %q", name),
			Component: i.name,
			Cell:      name,
		})
	}
	return CellHandle{cell: cell, clock: i.clock}
}

// Prop reads a prop by name through the bag's resolution rules
// (supplied value, declared default, Absent).
func (i *Instance) Prop(name string) ir.Value {
	return i.props.Get(name)
}

// Memo registers a dependency-gated memo on this instance and returns it.
// Registered memos are re-evaluated after every commit in registration order.
func (i *Instance) Memo(name string, compute func() (any, error), depsFn DepsFunc) *Memo {
	m := NewMemo(name, compute, depsFn)
	i.memos = append(i.memos, m)
	return m
}

// Callback registers a memoized callback factory: the factory builds a fresh
// Handler on each recompute, and the memo gate decides whether downstream
// sees the same function reference or a rebuilt one. Pass a depsFn returning
// DepsOf() to freeze the callback once; pass nil to model the rebuilt-every-
// render configuration.
func (i *Instance) Callback(name string, factory func() Handler, depsFn DepsFunc) *Memo {
	return i.Memo(name, func() (any, error) { return factory(), nil }, depsFn)
}

// Handle binds a plain handler to a declared event name.
// Panics with a structured violation if the event is undeclared, like Cell:
// a behavior programming error caught at mount, not a runtime input.
func (i *Instance) Handle(event string, h Handler) {
	i.requireDeclaredEvent(event)
	i.handlers[event] = h
}

// HandleMemo binds a memoized callback (from Callback) to a declared event
// name. Dispatch evaluates the memo and invokes whatever Handler it yields.
func (i *Instance) HandleMemo(event string, m *Memo) {
	i.requireDeclaredEvent(event)
	i.handlerMemos[event] = m
}

func (i *Instance) requireDeclaredEvent(event string) {
	if !i.decl.DeclaresEvent(event) {
		panic(&ViolationError{
			Code:      ErrCodeBadMount,
			Message:   fmt.Sprintf("behavior registered handler for undeclared event %q", event),
			Component: i.name,
		})
	}
}

// RenderWith registers the render function. Mount must call this.
func (i *Instance) RenderWith(fn RenderFunc) {
	i.render = fn
}

// UndeclaredReads returns undeclared prop names read so far, for flagging in
// verification output.
func (i *Instance) UndeclaredReads() []string {
	return i.props.UndeclaredReads()
}

// Dispatch looks up the declared handler for event, invokes it with args,
// commits any cell transitions it triggered, re-evaluates memos whose
// dependencies changed, re-renders, and returns the new output.
//
// Error surface:
//   - ErrUnknownEvent if no handler is declared for event
//   - *ViolationError if a contract breach is detected during commit
//   - *ThrownError if the handler, a memo, or render raises (panic or error)
//
// The whole call runs to completion synchronously; when it returns, every
// effect of the event is visible.
func (i *Instance) Dispatch(event string, args ir.Object) (out ir.Value, err error) {
	handler, err := i.lookupHandler(event)
	if err != nil {
		return nil, err
	}

	phase := "handler"
	defer func() {
		if r := recover(); r != nil {
			// A violation panic from a cell handle keeps its type; anything
			// else is a thrown-during-dispatch.
			if v, ok := r.(*ViolationError); ok {
				out, err = nil, v
				return
			}
			out, err = nil, &ThrownError{
				Event: event,
				Phase: phase,
				Cause: fmt.Errorf("panic: %v", r),
			}
		}
	}()

	i.log.Debug("dispatching event", "component", i.name, "event", event, "args", ir.Format(args))

	if err := handler(args); err != nil {
		return nil, &ThrownError{Event: event, Phase: "handler", Cause: err}
	}

	phase = "commit"
	if err := i.verifyCells(); err != nil {
		return nil, err
	}

	phase = "memo"
	if err := i.refreshMemos(); err != nil {
		return nil, &ThrownError{Event: event, Phase: "memo", Cause: err}
	}

	phase = "render"
	output, err := i.render()
	if err != nil {
		return nil, &ThrownError{Event: event, Phase: "render", Cause: err}
	}

	// Render must not have transitioned or mutated state.
	if err := i.verifyCells(); err != nil {
		return nil, err
	}

	i.log.Debug("event committed",
		"component", i.name,
		"event", event,
		"seq", i.clock.Current(),
		"output", ir.Format(output),
	)

	return output, nil
}

// Update replaces supplied prop values (the declared set is fixed for the
// instance's lifetime), re-evaluates memos, re-renders, and returns the new
// output. Values supplied for undeclared names are dropped; declared names
// the new bag omits resolve to their default or Absent on the next read.
func (i *Instance) Update(props ir.Object) (ir.Value, error) {
	i.props.Update(props)
	return i.Render()
}

// Render re-evaluates memos and runs the render function without dispatching
// an event. Used for the initial frame and after prop updates.
func (i *Instance) Render() (ir.Value, error) {
	if err := i.verifyCells(); err != nil {
		return nil, err
	}
	if err := i.refreshMemos(); err != nil {
		return nil, &ThrownError{Event: "(render)", Phase: "memo", Cause: err}
	}
	output, err := i.render()
	if err != nil {
		return nil, &ThrownError{Event: "(render)", Phase: "render", Cause: err}
	}
	if err := i.verifyCells(); err != nil {
		return nil, err
	}
	return output, nil
}

// lookupHandler resolves the handler for an event, evaluating the callback
// memo when the event is bound through one.
func (i *Instance) lookupHandler(event string) (Handler, error) {
	if m, ok := i.handlerMemos[event]; ok {
		out, err := m.Evaluate()
		if err != nil {
			return nil, &ThrownError{Event: event, Phase: "memo", Cause: err}
		}
		h, ok := out.(Handler)
		if !ok {
			return nil, &ViolationError{
				Code:      ErrCodeBadMount,
				Message:   fmt.Sprintf("callback memo %q for event %q yielded %T, not a Handler", m.Name(), event, out),
				Component: i.name,
			}
		}
		return h, nil
	}
	if h, ok := i.handlers[event]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("component %s: %w: %q", i.name, ErrUnknownEvent, event)
}

// refreshMemos re-evaluates all registered memos in registration order.
// The dependency gate makes this cheap for unchanged memos and is what
// produces the observable recompute/skip behavior the harness asserts on.
func (i *Instance) refreshMemos() error {
	for _, m := range i.memos {
		if _, err := m.Evaluate(); err != nil {
			return fmt.Errorf("memo %q: %w", m.Name(), err)
		}
	}
	return nil
}

// verifyCells checks every cell's committed hash, in declaration order.
func (i *Instance) verifyCells() error {
	for _, name := range i.cellOrder {
		if err := i.cells[name].verify(); err != nil {
			if v, ok := err.(*ViolationError); ok {
				v.Component = i.name
			}
			return err
		}
	}
	return nil
}

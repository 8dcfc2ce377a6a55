package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
	"github.com/retracehq/retrace/internal/sim"
)

// DefaultRunToken is used when a scenario does not fix its own run token.
// A constant token keeps golden trace files stable across runs.
const DefaultRunToken = "scenario-run-default"

// Harness runs scenarios against a component registry.
type Harness struct {
	registry *component.Registry
	log      *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the structured logger. Defaults to a discard logger so
// scenario runs stay quiet inside test output.
func WithLogger(log *slog.Logger) Option {
	return func(h *Harness) {
		h.log = log
	}
}

// New creates a Harness over a registry.
func New(reg *component.Registry, opts ...Option) *Harness {
	h := &Harness{
		registry: reg,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario and returns its result.
//
// Each run mounts a fresh instance from declared initial state, so
// scenarios are isolated from each other by construction. Execution:
//
//  1. Resolve the component's declaration and behavior
//  2. Convert props and script args to ir values
//  3. Mount the instance and drive the script through the simulator
//  4. Compare the trace against the expected trace (first divergence)
//  5. Evaluate assertions
//
// Run returns an error only for scenario-level problems (unknown component,
// unconvertible values, mount failure). Trace mismatches and assertion
// failures are reported through the Result.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	decl, behavior, err := h.registry.Lookup(scenario.Component)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	props, err := ir.ObjectFromGo(scenario.Props)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: props: %w", scenario.Name, err)
	}

	script := make([]sim.Event, len(scenario.Script))
	for i, step := range scenario.Script {
		args, err := ir.ObjectFromGo(step.Args)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: script[%d] args: %w", scenario.Name, i, err)
		}
		script[i] = sim.Event{Name: step.Event, Args: args}
	}

	inst, err := component.Construct(decl, behavior, props, component.WithLogger(h.log))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: mount: %w", scenario.Name, err)
	}

	token := scenario.RunToken
	if token == "" {
		token = DefaultRunToken
	}
	simulator := sim.New(
		sim.WithTokenGenerator(sim.NewFixedGenerator(token)),
		sim.WithLogger(h.log),
	)

	trace := simulator.Run(inst, script)

	result := NewResult(trace)
	result.UndeclaredReads = inst.UndeclaredReads()

	if len(scenario.Expected) > 0 {
		verification, err := Verify(trace, scenario.Expected)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		if !verification.Pass() {
			result.AddError(verification.Report())
		}
	}

	for _, msg := range EvaluateAssertions(trace, scenario.Assertions) {
		result.AddError(msg)
	}

	h.log.Info("scenario finished",
		"scenario", scenario.Name,
		"component", scenario.Component,
		"entries", len(trace.Entries),
		"pass", result.Pass,
	)

	return result, nil
}

// RunScenarioFile loads and runs a scenario file against reg.
func RunScenarioFile(path string, reg *component.Registry, opts ...Option) (*Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return New(reg, opts...).Run(scenario)
}

// Package sim issues scripted event sequences against a component instance
// and records the resulting RenderTrace.
//
// The simulator is strictly ordered and synchronous: each dispatch runs to
// completion before the next event fires, and each event's effects are fully
// visible to its successor. There are no hidden timers and no goroutines, so
// two runs with identical construction parameters and an identical script
// produce bit-identical traces.
//
// Failure model: if a dispatch raises (handler error, panic, or a contract
// violation), the simulator records a terminal thrown entry at that position
// and halts the script. It never continues dispatching against a possibly
// corrupted instance, and it deliberately provides no deadline enforcement -
// a dispatch that does not terminate is the caller's bug to find.
package sim

import (
	"log/slog"

	"github.com/retracehq/retrace/internal/component"
	"github.com/retracehq/retrace/internal/ir"
)

// Simulator runs scripts against component instances.
type Simulator struct {
	tokens TokenGenerator
	log    *slog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithTokenGenerator overrides the run token source.
// Tests pass a FixedGenerator for deterministic trace identity.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Simulator) {
		s.tokens = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Simulator) {
		s.log = log
	}
}

// New creates a Simulator. Defaults: UUIDv7 run tokens, slog.Default().
func New(opts ...Option) *Simulator {
	s := &Simulator{
		tokens: UUIDv7Generator{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run dispatches the script's events in order against inst, returning the
// RenderTrace. The trace is complete when its length equals the script's;
// it is halted when its last entry is a thrown marker.
func (s *Simulator) Run(inst *component.Instance, script []Event) *Trace {
	trace := &Trace{
		Component: inst.Name(),
		RunToken:  s.tokens.Generate(),
	}

	s.log.Debug("run starting",
		"component", trace.Component,
		"run_token", trace.RunToken,
		"script_len", len(script),
	)

	for i, ev := range script {
		entry := Entry{Index: i, Event: ev}

		// EventID depends only on scripted inputs, so it is computable for
		// thrown entries too. Absent in args is impossible by construction
		// (args come from FromGo), so this cannot fail mid-run.
		id, err := ir.EventID(trace.RunToken, ev.Name, ev.Args, int64(i))
		if err != nil {
			entry.Thrown = "unhashable event args: " + err.Error()
			trace.Entries = append(trace.Entries, entry)
			break
		}
		entry.EventID = id

		output, err := inst.Dispatch(ev.Name, ev.Args)
		if err != nil {
			// Terminal: record the thrown marker and halt the script.
			entry.Thrown = err.Error()
			trace.Entries = append(trace.Entries, entry)
			s.log.Debug("run halted on thrown dispatch",
				"component", trace.Component,
				"event", ev.Name,
				"index", i,
				"error", err,
			)
			break
		}

		entry.Output = output
		trace.Entries = append(trace.Entries, entry)
	}

	s.log.Debug("run finished",
		"component", trace.Component,
		"run_token", trace.RunToken,
		"entries", len(trace.Entries),
		"halted", trace.Halted(),
	)

	return trace
}

package harness

import "github.com/retracehq/retrace/internal/sim"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: the trace matched the expected trace
	// and every assertion held.
	Pass bool `json:"pass"`

	// Trace is the recorded run.
	Trace *sim.Trace `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// UndeclaredReads lists undeclared prop names the behavior read during
	// the run. Non-fatal, but surfaced in verification output.
	UndeclaredReads []string `json:"undeclared_reads,omitempty"`
}

// NewResult creates a passing result for trace t.
func NewResult(t *sim.Trace) *Result {
	return &Result{Pass: true, Trace: t}
}

// AddError records a failure message and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

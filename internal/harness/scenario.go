package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one verification scenario: a component, its props, a
// scripted event sequence, and what the resulting trace must look like.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario verifies.
	Description string `yaml:"description"`

	// Component is the registered component name to mount.
	Component string `yaml:"component"`

	// Props are the supplied prop values for construction.
	// Values are converted to ir types before mounting; floats and nulls
	// are rejected.
	Props map[string]interface{} `yaml:"props,omitempty"`

	// Script is the ordered event sequence to dispatch.
	Script []ScriptStep `yaml:"script"`

	// Expected is the expected trace, entry by entry. Optional: scenarios
	// may verify through assertions alone. When present, the actual trace
	// is compared against it and the first divergence fails the run.
	Expected []ExpectedEntry `yaml:"expected,omitempty"`

	// Assertions validate the trace independently of Expected.
	// Supported types: output_at, final_output, trace_length, event_order,
	// thrown_at.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunToken is an optional fixed run token for deterministic golden
	// comparison. If empty, "scenario-run-default" is used.
	RunToken string `yaml:"run_token,omitempty"`
}

// ScriptStep is one scripted event.
type ScriptStep struct {
	// Event is the declared event name to dispatch.
	Event string `yaml:"event"`

	// Args contains the event arguments. May be empty.
	Args map[string]interface{} `yaml:"args,omitempty"`
}

// ExpectedEntry is one expected trace position: either an output or a
// thrown marker, never both.
type ExpectedEntry struct {
	// Event is the expected event name at this position.
	Event string `yaml:"event"`

	// Output is the expected rendered output. Ignored when Thrown is set.
	Output interface{} `yaml:"output,omitempty"`

	// Thrown, when non-empty, marks this position as a terminal thrown
	// entry whose error text must contain this substring.
	Thrown string `yaml:"thrown,omitempty"`
}

// Assertion validates one property of the trace.
type Assertion struct {
	// Type selects the assertion:
	// - "output_at": output at Index equals Value
	// - "final_output": last non-thrown output equals Value
	// - "trace_length": trace has exactly Length entries
	// - "event_order": dispatched event names appear in this order
	// - "thrown_at": entry at Index is thrown, text contains Contains
	Type string `yaml:"type"`

	// Index is the 0-based trace position (output_at, thrown_at).
	Index int `yaml:"index,omitempty"`

	// Value is the expected output (output_at, final_output).
	Value interface{} `yaml:"value,omitempty"`

	// Length is the expected entry count (trace_length).
	Length int `yaml:"length,omitempty"`

	// Events is the expected dispatch order (event_order). Entries need
	// not be consecutive in the trace.
	Events []string `yaml:"events,omitempty"`

	// Contains is the required thrown-text substring (thrown_at).
	// Empty means any thrown text matches.
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputAt    = "output_at"
	AssertFinalOutput = "final_output"
	AssertTraceLength = "trace_length"
	AssertEventOrder  = "event_order"
	AssertThrownAt    = "thrown_at"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly instead of silently
// weakening the scenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Component == "" {
		return fmt.Errorf("component is required")
	}
	if len(s.Script) == 0 {
		return fmt.Errorf("script is required and must be non-empty")
	}
	if len(s.Expected) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("scenario must declare an expected trace or assertions")
	}

	for i, step := range s.Script {
		if step.Event == "" {
			return fmt.Errorf("script[%d]: event is required", i)
		}
	}

	for i, exp := range s.Expected {
		if exp.Event == "" {
			return fmt.Errorf("expected[%d]: event is required", i)
		}
		if exp.Thrown != "" && exp.Output != nil {
			return fmt.Errorf("expected[%d]: output and thrown are mutually exclusive", i)
		}
		if exp.Thrown != "" && i != len(s.Expected)-1 {
			return fmt.Errorf("expected[%d]: a thrown entry must be the last entry", i)
		}
		if exp.Thrown == "" && exp.Output == nil {
			return fmt.Errorf("expected[%d]: output or thrown is required", i)
		}
	}

	if len(s.Expected) > len(s.Script) {
		return fmt.Errorf("expected trace has %d entries but script has only %d steps",
			len(s.Expected), len(s.Script))
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputAt:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for output_at", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for output_at", index)
		}
	case AssertFinalOutput:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for final_output", index)
		}
	case AssertTraceLength:
		if a.Length < 0 {
			return fmt.Errorf("assertions[%d]: length must be non-negative for trace_length", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertThrownAt:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for thrown_at", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

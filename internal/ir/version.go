package ir

// Version constants for the trace schema and harness.
const (
	// TraceVersion is the recorded trace schema version.
	TraceVersion = "1"

	// HarnessVersion is the retrace harness version.
	HarnessVersion = "0.1.0"
)

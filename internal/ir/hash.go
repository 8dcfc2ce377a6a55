package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent  = "retrace/event/v1"
	DomainOutput = "retrace/output/v1"
	DomainRun    = "retrace/run/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID for a dispatched event.
// The ID is stable across restarts and replays given the same inputs, which
// is what lets the replay command detect nondeterminism: a fresh run that
// produces a different output at the same position produces a different ID.
func EventID(runToken, event string, args Object, seq int64) (string, error) {
	obj := Object{
		"run_token": String(runToken),
		"event":     String(event),
		"args":      args,
		"seq":       Int(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// OutputHash computes the content-addressed hash of a rendered output.
// Used by the state cell commit check: a cell value whose hash changed
// without a transition was mutated in place (a contract violation).
func OutputHash(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("OutputHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOutput, canonical), nil
}

// RunID computes the content-addressed ID of an entire recorded run.
// Two runs with identical traces share an ID; replay uses this as a
// whole-trace determinism check before falling back to per-event diffs.
func RunID(scenario, runToken string, eventIDs []string) string {
	obj := Object{
		"scenario":  String(scenario),
		"run_token": String(runToken),
	}
	ids := make(Array, len(eventIDs))
	for i, id := range eventIDs {
		ids[i] = String(id)
	}
	obj["events"] = ids

	// Only strings and arrays involved, marshal cannot fail.
	canonical, _ := MarshalCanonical(obj)
	return hashWithDomain(DomainRun, canonical)
}

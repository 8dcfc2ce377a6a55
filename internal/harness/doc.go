// Package harness runs verification scenarios against registered components.
//
// A scenario names a component, supplies props, and scripts a sequence of
// events. The harness mounts a fresh instance, drives the script through the
// simulator, and checks the resulting trace two ways: against the scenario's
// expected trace (first divergence wins) and against its assertion list.
//
// Determinism is the load-bearing property. Every run constructs a fresh
// instance from declared initial state, the simulator is synchronous and
// ordered, and trace snapshots serialize through canonical JSON, so a
// scenario either reproduces its golden trace byte for byte or exposes a
// real behavioral change.
package harness

// Package component models a reactive UI component as a deterministic unit:
// state cells with gated transitions, dependency-gated memos, a declared
// props bag, and a pure render function.
//
// The model exists to be verified, not to render anything. An Instance is
// constructed from a Declaration (declared prop names, initial cells, event
// list, typically compiled from CUE) and a registered Behavior (Go closures
// for handlers and render). Dispatching an event runs the handler, commits
// cell transitions in order against a logical clock, re-evaluates memos
// whose dependency lists changed, renders, and returns the output Value.
//
// Two committed positions of the same instance with the same inputs always
// produce the same output: there are no timers, no goroutines, and no wall
// clocks anywhere in the commit path.
package component

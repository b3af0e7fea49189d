// Package registration implements the festival registration wizard: a
// three-step form whose forward moves are gated by per-step predicates and
// whose final submission is handed to an injected Submitter.
//
// The Wizard owns exactly one Form for the lifetime of a registration attempt.
// It is not safe for concurrent use; hosts drive it from a single event loop.
package registration

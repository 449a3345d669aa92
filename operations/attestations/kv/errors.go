package kv

import "github.com/pkg/errors"

// DroppedInput describes a non-fatal reason an attestation was not
// stored: committee resolution failure, group-level incompatibility,
// or the attestation being already fully subsumed (spec.md §7). Add
// returns it to its caller as the reason nothing was stored, and logs
// most such drops at debug; it never marks a fault in the pool.
type DroppedInput struct {
	Reason string
}

func (e *DroppedInput) Error() string {
	return "dropped attestation: " + e.Reason
}

func droppedInput(reason string) *DroppedInput {
	return &DroppedInput{Reason: reason}
}

// InvariantViolation signals a condition that should never occur:
// aggregating zero attestations, a failed bitlist operation, or a
// failed signature combination (spec.md §7). Select and Add return it;
// where it arises in code without an error return (reportIncluded, the
// seen tracker, the live-validator counter) it is raised as a panic.
// A host process may choose to terminate on it.
type InvariantViolation struct {
	cause error
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.cause.Error()
}

func (e *InvariantViolation) Unwrap() error {
	return e.cause
}

func invariantViolation(msg string) *InvariantViolation {
	return &InvariantViolation{cause: errors.New(msg)}
}

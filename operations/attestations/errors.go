package attestations

import "github.com/chainlayer/attestpool/operations/attestations/kv"

// DroppedInput and InvariantViolation are re-exported from package
// kv for the same reason the collaborator interfaces are: kv is
// where these are actually raised (spec.md §7).
type (
	DroppedInput       = kv.DroppedInput
	InvariantViolation = kv.InvariantViolation
)

package kv

import (
	"github.com/chainlayer/attestpool/attestation"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
)

// State is the narrow slice of beacon-state information the pool
// needs from its host to validate and select attestations for a
// block (spec.md §6). The pool never loads or mutates a state; it
// only reads the fields exposed here.
type State interface {
	Slot() primitives.Slot
	CurrentEpoch() primitives.Epoch
	// PreviousEpochAttestationCapacity is the state-derived bound on
	// how many prior-epoch aggregates a block may include (spec.md
	// §4.1 step 6, "previousEpochAttestationCapacity").
	PreviousEpochAttestationCapacity() int
}

// CommitteeResolver looks up per-committee sizes for a given slot, a
// capability the pool needs to interpret CommitteeBits-format
// attestations (spec.md §4.4). Implementations must never block: if
// the backing state snapshot is not immediately available, they
// return ok=false and the caller treats the attestation as dropped.
type CommitteeResolver interface {
	// CommitteesSize resolves sizes using stateAtSlot's own view,
	// valid when the attestation's epoch is the state's current or
	// previous epoch.
	CommitteesSize(stateAtSlot State, slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, bool)

	// CommitteesSizeAt resolves sizes using the state in effect at the
	// start of slot's epoch, for attestations up to one epoch older
	// than CommitteesSize can serve.
	CommitteesSizeAt(slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, bool)
}

// SpecValidator checks an attestation's data against a state for
// protocol validity (target-checkpoint, source-checkpoint, and so
// on). It returns a non-empty reason on rejection (spec.md §6).
type SpecValidator interface {
	Validate(stateAtSlot State, data *attestation.Data) (reason string, valid bool)
}

// ForkChecker decides whether an attestation's data belongs to the
// fork of the block currently being produced (spec.md §6).
type ForkChecker interface {
	InBlockFork(data *attestation.Data) bool
}

// SignatureAggregator combines opaque signature blobs. The pool never
// inspects or verifies signatures; it only concatenates them under
// this capability (spec.md §6, §4.3).
type SignatureAggregator interface {
	Combine(signatures [][]byte) ([]byte, error)
}

// MetricsGauge is a single settable gauge, the shape the pool needs
// to publish its size and other scalar metrics without depending on
// a specific metrics backend at the interface level (spec.md §6).
type MetricsGauge interface {
	Set(value float64)
}

// Package attestation defines the wire-level shapes the attestation
// pool operates on: attestation data, checkpoints, and the attestation
// itself, including the EIP-7549 CommitteeBits variant. The pool
// treats these as opaque beyond the fields it needs to group, dedupe,
// and aggregate them (spec.md §3).
package attestation

import (
	"github.com/chainlayer/attestpool/config/params"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// Checkpoint is a (epoch, root) pair identifying a justified or
// finalized point on the chain.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  [32]byte
}

// Data is the canonical, signed content of an attestation. Its
// HashTreeRoot is the dataHash that groups attestations for
// aggregation (spec.md §3).
type Data struct {
	Slot            primitives.Slot
	CommitteeIndex  primitives.CommitteeIndex
	BeaconBlockRoot [32]byte
	Source          Checkpoint
	Target          Checkpoint
}

// Attestation is a validator's (or aggregate of validators')
// signed vote, as ingested by the pool. CommitteeBits is non-empty
// only once RequiresCommitteeBits is true for Data.Slot.
type Attestation struct {
	Data            *Data
	AggregationBits bitfield.Bitlist
	Signature       []byte
	CommitteeBits   bitfield.Bitlist
}

// RequiresCommitteeBits reports whether this attestation's slot falls
// at or after the milestone that introduced EIP-7549 multi-committee
// attestations. It is recomputed from Data.Slot on every call; the
// pool's group records the result once, when the group is created
// (spec.md §9, "Deep inheritance ... maps to a tagged variant
// dispatched once at ingress").
func (a *Attestation) RequiresCommitteeBits() bool {
	if a == nil || a.Data == nil {
		return false
	}
	epoch := params.BeaconConfig().SlotToEpoch(a.Data.Slot)
	return params.BeaconConfig().RequiresCommitteeBitsAtEpoch(epoch)
}

// Clone returns a deep-enough copy suitable for mutation during
// aggregation; the byte slices and bitlists are copied so that
// absorbing attestations into an accumulator never mutates an input
// still referenced elsewhere (spec.md §5, "Shared-resource policy").
func (a *Attestation) Clone() *Attestation {
	if a == nil {
		return nil
	}
	cloned := &Attestation{
		Signature: append([]byte(nil), a.Signature...),
	}
	if a.Data != nil {
		data := *a.Data
		cloned.Data = &data
	}
	if a.AggregationBits != nil {
		cloned.AggregationBits = append(bitfield.Bitlist(nil), a.AggregationBits...)
	}
	if a.CommitteeBits != nil {
		cloned.CommitteeBits = append(bitfield.Bitlist(nil), a.CommitteeBits...)
	}
	return cloned
}

// BitCount returns the number of set aggregation bits, the sort key
// used throughout §4 ("ordered by aggregation-bit count").
func (a *Attestation) BitCount() int {
	if a == nil || a.AggregationBits == nil {
		return 0
	}
	return int(a.AggregationBits.Count())
}

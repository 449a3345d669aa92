package kv

import (
	"bytes"

	"github.com/chainlayer/attestpool/attestation"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// matchingDataGroup holds every attestation the pool has seen for one
// dataHash, grounded on Teku's MatchingDataAttestationGroup. Prysm
// never had this type; the teacher's AttCaches kept attestations in
// flat slices and deduped ad hoc, which is exactly the arrangement
// spec.md §4.2 replaces with per-dataHash grouping.
type matchingDataGroup struct {
	data                  *attestation.Data
	dataHash              [32]byte
	requiresCommitteeBits bool
	committeeBits         bitfield.Bitlist
	bitLength             uint64
	members               []*attestation.Attestation
	seen                  *seenTracker
}

func newMatchingDataGroup(data *attestation.Data, dataHash [32]byte, requiresCommitteeBits bool, seen *seenTracker) *matchingDataGroup {
	return &matchingDataGroup{
		data:                  data,
		dataHash:              dataHash,
		requiresCommitteeBits: requiresCommitteeBits,
		seen:                  seen,
	}
}

// add stores att in the group unless it is redundant with what the
// group already has committed to chain, or its shape disagrees with
// the group's established layout. A true return means the caller
// should keep counting it toward pool size (spec.md §4.2).
func (g *matchingDataGroup) add(att *attestation.Attestation) (bool, error) {
	if g.requiresCommitteeBits != att.RequiresCommitteeBits() {
		return false, droppedInput("attestation committee-bits mode does not match group")
	}
	if g.requiresCommitteeBits {
		if len(att.CommitteeBits) == 0 {
			return false, droppedInput("committee-bits attestation missing committee bits")
		}
		if g.committeeBits == nil {
			g.committeeBits = append(bitfield.Bitlist(nil), att.CommitteeBits...)
		} else if !bytes.Equal(g.committeeBits, att.CommitteeBits) {
			return false, droppedInput("attestation committee layout does not match group")
		}
	}

	if att.AggregationBits == nil || att.AggregationBits.Len() == 0 {
		return false, droppedInput("attestation has no aggregation bits")
	}
	if g.bitLength == 0 {
		g.bitLength = att.AggregationBits.Len()
	} else if att.AggregationBits.Len() != g.bitLength {
		return false, droppedInput("attestation aggregation bit length does not match group")
	}

	alreadySeen := g.seen.union(g.dataHash, g.bitLength)
	if alreadySeen.Len() == att.AggregationBits.Len() {
		contains, err := alreadySeen.Contains(att.AggregationBits)
		if err != nil {
			return false, invariantViolation("bitlist contains check failed: " + err.Error())
		}
		if contains {
			return false, droppedInput("attestation already fully included on chain")
		}
	}

	for _, existing := range g.members {
		if existing.AggregationBits.Len() == att.AggregationBits.Len() {
			contains, err := existing.AggregationBits.Contains(att.AggregationBits)
			if err != nil {
				return false, invariantViolation("bitlist contains check failed: " + err.Error())
			}
			if contains {
				return false, droppedInput("attestation already subsumed by a stored aggregate")
			}
		}
	}

	g.members = append(g.members, att)
	return true, nil
}

// reportIncluded removes and records as seen every stored attestation
// subsumed by the accumulated union of everything ever reported
// included for this dataHash -- not just the bits of this single
// inclusion -- so that a member covered piecemeal across several
// reportIncluded calls is still pruned once the union catches up to
// it (spec.md §4.2, §8: "after reportIncluded, no member's bit-set is
// a subset of the seen set"). Returns how many members were dropped
// (spec.md §4.1).
func (g *matchingDataGroup) reportIncluded(slot primitives.Slot, includedBits bitfield.Bitlist) int {
	g.seen.recordInclusion(g.dataHash, slot, includedBits)
	if includedBits == nil {
		return 0
	}
	seenUnion := g.seen.union(g.dataHash, g.bitLength)
	kept := g.members[:0:0]
	removed := 0
	for _, m := range g.members {
		if m.AggregationBits.Len() == seenUnion.Len() {
			contains, err := seenUnion.Contains(m.AggregationBits)
			if err != nil {
				panic(invariantViolation("bitlist contains check failed: " + err.Error()))
			}
			if contains {
				removed++
				continue
			}
		}
		kept = append(kept, m)
	}
	g.members = kept
	return removed
}

func (g *matchingDataGroup) size() int {
	return len(g.members)
}

func (g *matchingDataGroup) isEmpty() bool {
	return len(g.members) == 0
}

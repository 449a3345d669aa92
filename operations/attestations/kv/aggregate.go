package kv

import (
	"sort"

	"github.com/chainlayer/attestpool/attestation"
)

// buildAggregate greedily folds as many bit-disjoint candidates as
// possible into a single aggregate, starting from the
// highest-bit-count candidate and skipping anything that overlaps
// what has already been folded in. This is the naive strategy from
// the teacher's shared/aggregation/attestations/attestations.go
// Aggregate/AggregatePair, generalized to combine opaque signatures
// through a SignatureAggregator instead of calling into a BLS library
// directly (spec.md §4.3, "no cryptography").
func buildAggregate(candidates []*attestation.Attestation, sigAggregator SignatureAggregator) (*attestation.Attestation, []int, error) {
	if len(candidates) == 0 {
		return nil, nil, invariantViolation("buildAggregate called with zero candidates")
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return candidates[order[i]].BitCount() > candidates[order[j]].BitCount()
	})

	base := candidates[order[0]].Clone()
	used := []int{order[0]}
	signatures := [][]byte{base.Signature}

	for _, idx := range order[1:] {
		cand := candidates[idx]
		if base.AggregationBits.Len() != cand.AggregationBits.Len() {
			continue
		}
		overlaps, err := base.AggregationBits.Overlaps(cand.AggregationBits)
		if err != nil {
			return nil, nil, invariantViolation("bitlist overlap check failed: " + err.Error())
		}
		if overlaps {
			continue
		}
		merged, err := base.AggregationBits.Or(cand.AggregationBits)
		if err != nil {
			return nil, nil, invariantViolation("bitlist or failed: " + err.Error())
		}
		base.AggregationBits = merged
		signatures = append(signatures, cand.Signature)
		used = append(used, idx)
	}

	combined, err := sigAggregator.Combine(signatures)
	if err != nil {
		return nil, nil, invariantViolation("signature aggregation failed: " + err.Error())
	}
	base.Signature = combined
	return base, used, nil
}

// streamAggregates repeatedly runs buildAggregate over whatever
// members remain, removing the ones just folded in, until every
// member has been absorbed into some aggregate. This is the
// multi-aggregate generalization of the teacher's single-aggregate
// Aggregate() loop, needed because one matchingDataGroup can hold
// members across disjoint committees that no single aggregate can
// cover (spec.md §4.2, §4.3).
func streamAggregates(members []*attestation.Attestation, sigAggregator SignatureAggregator) ([]*attestation.Attestation, error) {
	remaining := append([]*attestation.Attestation(nil), members...)
	var out []*attestation.Attestation

	for len(remaining) > 0 {
		agg, used, err := buildAggregate(remaining, sigAggregator)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
		remaining = removeIndices(remaining, used)
	}
	return out, nil
}

// removeIndices returns items with the given indices dropped,
// preserving the relative order of what remains. The indices may come
// in any order (buildAggregate reports them in bit-count order).
func removeIndices(items []*attestation.Attestation, indices []int) []*attestation.Attestation {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := make([]*attestation.Attestation, 0, len(items)-len(indices))
	for i, item := range items {
		if drop[i] {
			continue
		}
		out = append(out, item)
	}
	return out
}

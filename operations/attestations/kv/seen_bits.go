package kv

import (
	"time"

	"github.com/chainlayer/attestpool/consensus-types/primitives"
	cache "github.com/patrickmn/go-cache"
	"github.com/prysmaticlabs/go-bitfield"
)

// inclusionRecord is one block's worth of covered aggregation bits
// for a given dataHash, stamped with the slot it was included at so
// onReorg can roll records back past a common ancestor (spec.md §3,
// §4.1 "OnReorg").
type inclusionRecord struct {
	slot primitives.Slot
	bits bitfield.Bitlist
}

// seenTracker remembers, per dataHash, which aggregation bits have
// already made it on chain. The teacher's kv/seen_bits.go kept a
// single pool-wide go-cache of bitlists keyed by dataHash with no way
// to undo an entry; this generalizes it to a slice of slot-stamped
// records per key, which onReorg can selectively unwind, while
// keeping go-cache for the same time-bounded eviction the teacher
// relied on instead of tracking expiry by hand.
type seenTracker struct {
	cache *cache.Cache
}

func newSeenTracker(ttl time.Duration) *seenTracker {
	return &seenTracker{cache: cache.New(ttl, ttl/2)}
}

func (s *seenTracker) recordInclusion(dataHash [32]byte, slot primitives.Slot, bits bitfield.Bitlist) {
	if bits == nil {
		return
	}
	key := string(dataHash[:])
	records, _ := s.recordsLocked(key)
	records = append(records, inclusionRecord{slot: slot, bits: append(bitfield.Bitlist(nil), bits...)})
	s.cache.Set(key, records, cache.DefaultExpiration)
}

func (s *seenTracker) recordsLocked(key string) ([]inclusionRecord, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]inclusionRecord), true
}

// union returns the OR of every bit ever reported included for
// dataHash, the set an incoming attestation must not be fully
// contained within to still be worth storing (spec.md §4.1, Teku's
// "keep if not already seen").
func (s *seenTracker) union(dataHash [32]byte, bitLength uint64) bitfield.Bitlist {
	result := bitfield.NewBitlist(bitLength)
	records, ok := s.recordsLocked(string(dataHash[:]))
	if !ok {
		return result
	}
	for _, r := range records {
		if r.bits.Len() != result.Len() {
			continue
		}
		merged, err := result.Or(r.bits)
		if err != nil {
			panic(invariantViolation("bitlist or failed: " + err.Error()))
		}
		result = merged
	}
	return result
}

// onReorg drops inclusion records made at or after the first slot
// that is no longer an ancestor of the canonical head, so the bits
// they covered become eligible for selection again (spec.md §4.1).
func (s *seenTracker) onReorg(dataHash [32]byte, commonAncestorSlot primitives.Slot) {
	key := string(dataHash[:])
	records, ok := s.recordsLocked(key)
	if !ok {
		return
	}
	kept := make([]inclusionRecord, 0, len(records))
	for _, r := range records {
		if r.slot <= commonAncestorSlot {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		s.cache.Delete(key)
		return
	}
	s.cache.Set(key, kept, cache.DefaultExpiration)
}

func (s *seenTracker) forget(dataHash [32]byte) {
	s.cache.Delete(string(dataHash[:]))
}

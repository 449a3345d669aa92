package kv

import (
	"strconv"

	"github.com/chainlayer/attestpool/config/params"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/dgraph-io/ristretto"
)

// CommitteeSizeFunc is supplied by the host to resolve per-committee
// sizes for the epoch that contains slot. It is the one piece of
// beacon-state knowledge StateCommitteeResolver cannot derive on its
// own; Teku's equivalent, getCommitteesSizeUsingTheState, reaches
// into a BeaconState the same way.
type CommitteeSizeFunc func(epochStartSlot primitives.Slot) (map[primitives.CommitteeIndex]uint64, bool)

// StateCommitteeResolver caches CommitteeSizeFunc results per
// epoch-start slot behind a ristretto cache, the library the teacher
// wires into beacon-chain/operations/attestations/service.go for its
// forkChoiceProcessedRoots set, so CommitteeBits-format attestations
// on the hot Select path do not refetch committee sizes on every call
// (spec.md §4.4).
type StateCommitteeResolver struct {
	fetch CommitteeSizeFunc
	cache *ristretto.Cache
}

// NewStateCommitteeResolver constructs a resolver backed by fetch.
func NewStateCommitteeResolver(fetch CommitteeSizeFunc) (*StateCommitteeResolver, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 14,
		MaxCost:     1 << 14,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &StateCommitteeResolver{fetch: fetch, cache: c}, nil
}

// CommitteesSize resolves committee sizes for the epoch that contains
// slot. stateAtSlot is not consulted; the result comes from the cache
// or from fetch, exactly as in CommitteesSizeAt.
func (r *StateCommitteeResolver) CommitteesSize(stateAtSlot State, slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, bool) {
	cfg := params.BeaconConfig()
	return r.resolve(cfg.EpochStartSlot(cfg.SlotToEpoch(slot)))
}

// CommitteesSizeAt resolves committee sizes as of the start of slot's
// own epoch. The resolver applies no age limit of its own: any slot
// resolves whenever fetch can supply sizes for its epoch, and reports
// ok=false only when fetch does.
func (r *StateCommitteeResolver) CommitteesSizeAt(slot primitives.Slot) (map[primitives.CommitteeIndex]uint64, bool) {
	cfg := params.BeaconConfig()
	return r.resolve(cfg.EpochStartSlot(cfg.SlotToEpoch(slot)))
}

func (r *StateCommitteeResolver) resolve(epochStartSlot primitives.Slot) (map[primitives.CommitteeIndex]uint64, bool) {
	key := strconv.FormatUint(uint64(epochStartSlot), 10)
	if v, ok := r.cache.Get(key); ok {
		return v.(map[primitives.CommitteeIndex]uint64), true
	}
	sizes, ok := r.fetch(epochStartSlot)
	if !ok {
		return nil, false
	}
	r.cache.Set(key, sizes, 1)
	return sizes, true
}

// Package kv implements the attestation aggregation pool: dataHash-keyed
// groups of matching attestations, greedy bit-disjoint aggregation, slot
// retention, and block-production selection (spec.md §4). The package
// name and layout follow the teacher's
// beacon-chain/operations/attestations/kv, but the data structure it
// holds is rebuilt from Teku's AggregatingAttestationPool rather than
// carried over from the teacher's own AttCaches.
package kv

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chainlayer/attestpool/attestation"
	"github.com/chainlayer/attestpool/config/params"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"go.opencensus.io/trace"
)

// Config configures an AggregatingPool. Zero-value fields fall back
// to spec.md §9 defaults applied by the caller (operations/attestations.Config).
type Config struct {
	MaxSize        int
	RetentionSlots primitives.Slot
}

// AggregatingPool is the default Pool implementation. Attestations
// are grouped by dataHash into matchingDataGroup values, and those
// groups are indexed by slot so OnSlot can evict by retention window
// in one pass. A single mutex guards all of it, matching spec.md §5's
// "single coarse-grained mutex, no RWMutex split".
type AggregatingPool struct {
	mu     sync.Mutex
	cfg    Config
	groups map[[32]byte]*matchingDataGroup
	bySlot map[primitives.Slot]map[[32]byte]struct{}
	size   int

	committeeResolver CommitteeResolver
	sigAggregator     SignatureAggregator
	sizeGauge         MetricsGauge
	liveValidators    *liveValidatorCounter
	seen              *seenTracker
}

// NewAggregatingPool constructs the pool. sigAggregator is required;
// committeeResolver and sizeGauge are optional (spec.md §6). With a nil
// committeeResolver, committee sizes are never looked up, so
// CommitteeBits-format attestations are neither dropped in Add nor
// skipped in Select for want of them.
func NewAggregatingPool(cfg Config, committeeResolver CommitteeResolver, sigAggregator SignatureAggregator, sizeGauge MetricsGauge) *AggregatingPool {
	if cfg.RetentionSlots == 0 {
		cfg.RetentionSlots = 64
	}
	ttl := time.Duration(cfg.RetentionSlots) * 4 * time.Duration(params.BeaconConfig().SecondsPerSlot) * time.Second
	return &AggregatingPool{
		cfg:               cfg,
		groups:            make(map[[32]byte]*matchingDataGroup),
		bySlot:            make(map[primitives.Slot]map[[32]byte]struct{}),
		committeeResolver: committeeResolver,
		sigAggregator:     sigAggregator,
		sizeGauge:         sizeGauge,
		liveValidators:    newLiveValidatorCounter(promGauge{currentEpochLiveValidators}, promGauge{previousEpochLiveValidators}),
		seen:              newSeenTracker(ttl),
	}
}

// Add accepts a validated attestation, grouping it by its data's
// HashTreeRoot and folding it into that group unless it is redundant
// (spec.md §4.1, §4.2).
func (p *AggregatingPool) Add(ctx context.Context, att *attestation.Attestation) error {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.Add")
	defer span.End()

	if att == nil || att.Data == nil {
		return droppedInput("nil attestation or data")
	}
	hash, err := att.Data.HashTreeRoot()
	if err != nil {
		return droppedInput("could not hash attestation data: " + err.Error())
	}

	if att.RequiresCommitteeBits() && p.committeeResolver != nil {
		if _, ok := p.committeeResolver.CommitteesSizeAt(att.Data.Slot); !ok {
			attestationsDropped.WithLabelValues("committee resolution failed").Inc()
			log.WithField("slot", att.Data.Slot).Debug("dropped attestation: could not resolve committee sizes")
			return droppedInput("could not resolve committee sizes for slot")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	group, ok := p.groups[hash]
	if !ok {
		group = newMatchingDataGroup(att.Data, hash, att.RequiresCommitteeBits(), p.seen)
		p.groups[hash] = group
		p.indexBySlot(att.Data.Slot, hash)
	}

	stored := att.Clone()
	added, addErr := group.add(stored)
	if addErr != nil {
		if di, ok := addErr.(*DroppedInput); ok {
			attestationsDropped.WithLabelValues(di.Reason).Inc()
			log.WithField("reason", di.Reason).Debug("dropped attestation")
		}
		return addErr
	}
	if !added {
		return nil
	}

	p.size++
	p.liveValidators.observe(
		params.BeaconConfig().SlotToEpoch(att.Data.Slot),
		att.Data.Slot,
		att.Data.CommitteeIndex,
		att.AggregationBits,
	)
	p.evictOldestForCapacity()
	p.publishSize()
	return nil
}

func (p *AggregatingPool) indexBySlot(slot primitives.Slot, hash [32]byte) {
	set, ok := p.bySlot[slot]
	if !ok {
		set = make(map[[32]byte]struct{})
		p.bySlot[slot] = set
	}
	set[hash] = struct{}{}
}

// evictOldestForCapacity drops the oldest tracked slot, one at a time,
// for as long as the pool is over cfg.MaxSize and more than one slot
// remains -- never evicting the single most recent slot even if that
// leaves the pool over budget (spec.md §4.1, §8: "ingesting exactly
// maxSize + 1 attestations across >= 2 slots evicts the oldest-slot
// group(s); the newest slot is preserved intact"). Grounded on Teku's
// AggregatingAttestationPool.add: "while (dataHashBySlot.size() > 1 &&
// currentSize > maximumAttestationCount)
// removeAttestationsPriorToSlot(firstKey+1)".
func (p *AggregatingPool) evictOldestForCapacity() {
	if p.cfg.MaxSize <= 0 {
		return
	}
	for p.size > p.cfg.MaxSize && len(p.bySlot) > 1 {
		oldest, ok := p.oldestSlot()
		if !ok {
			return
		}
		for hash := range p.bySlot[oldest] {
			if g, ok := p.groups[hash]; ok {
				p.size -= g.size()
				delete(p.groups, hash)
				p.seen.forget(hash)
				groupsEvicted.Inc()
			}
		}
		delete(p.bySlot, oldest)
	}
}

func (p *AggregatingPool) oldestSlot() (primitives.Slot, bool) {
	var oldest primitives.Slot
	found := false
	for s := range p.bySlot {
		if !found || s < oldest {
			oldest = s
			found = true
		}
	}
	return oldest, found
}

// OnSlot evicts every group whose slot is strictly older than
// currentSlot minus the retention window; a group exactly at that
// cutoff slot is kept. It does nothing while currentSlot is at or
// below the retention window (spec.md §3, §4.1). The "always keep the
// latest slot" guard applies only to capacity eviction in Add
// (SPEC_FULL.md §12), not here.
func (p *AggregatingPool) OnSlot(ctx context.Context, currentSlot primitives.Slot) {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.OnSlot")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	if currentSlot <= p.cfg.RetentionSlots {
		return
	}
	cutoff := currentSlot - p.cfg.RetentionSlots

	var stale []primitives.Slot
	for s := range p.bySlot {
		if s < cutoff {
			stale = append(stale, s)
		}
	}
	if len(stale) == 0 {
		return
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })

	for _, s := range stale {
		for hash := range p.bySlot[s] {
			if g, ok := p.groups[hash]; ok {
				p.size -= g.size()
				delete(p.groups, hash)
				p.seen.forget(hash)
				groupsEvicted.Inc()
			}
		}
		delete(p.bySlot, s)
	}
	p.publishSize()
}

// OnIncludedInBlock removes the members of each included attestation's
// group that its covered bits subsume, and records those bits as seen
// so they are not offered again (spec.md §4.1).
func (p *AggregatingPool) OnIncludedInBlock(ctx context.Context, slot primitives.Slot, included []*attestation.Attestation) {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.OnIncludedInBlock")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, att := range included {
		if att == nil || att.Data == nil {
			continue
		}
		hash, err := att.Data.HashTreeRoot()
		if err != nil {
			continue
		}
		group, ok := p.groups[hash]
		if !ok {
			p.seen.recordInclusion(hash, slot, att.AggregationBits)
			continue
		}
		p.size -= group.reportIncluded(slot, att.AggregationBits)
	}
	p.publishSize()
}

// OnReorg clears "seen inclusion" state past commonAncestorSlot for
// every known dataHash, so aggregates orphaned by the reorg become
// eligible for selection again (spec.md §3, §4.1).
func (p *AggregatingPool) OnReorg(ctx context.Context, commonAncestorSlot primitives.Slot) {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.OnReorg")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	for hash := range p.groups {
		p.seen.onReorg(hash, commonAncestorSlot)
	}
}

// Select runs the block-production selection algorithm: newest slots
// first, validated and fork-checked groups only, greedily aggregated,
// capped at the schema's per-block maximum with a separate quota for
// previous-epoch aggregates (spec.md §4.1, the seven-step algorithm
// grounded on Teku's getAttestationsForBlock).
func (p *AggregatingPool) Select(ctx context.Context, stateAtSlot State, forkCheck ForkChecker, validator SpecValidator) ([]*attestation.Attestation, error) {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.Select")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := params.BeaconConfig()
	epoch := stateAtSlot.CurrentEpoch()
	maxTotal := int(cfg.MaxAttestationsAtEpoch(epoch))
	blockRequiresCommitteeBits := cfg.RequiresCommitteeBitsAtEpoch(epoch)
	previousEpochCapacity := stateAtSlot.PreviousEpochAttestationCapacity()
	if previousEpochCapacity < 0 {
		previousEpochCapacity = 0
	}

	slots := make([]primitives.Slot, 0, len(p.bySlot))
	for s := range p.bySlot {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] > slots[j] })

	var selected []*attestation.Attestation
	previousEpochUsed := 0

	for _, slot := range slots {
		if len(selected) >= maxTotal {
			break
		}
		// Every epoch strictly older than the current one counts
		// against the previous-epoch quota, not just exactly epoch-1
		// (the retention window spans roughly two epochs, so
		// epoch-2 aggregates are routinely still in the pool),
		// matching the original's computeEpochAtSlot(...).isLessThan(currentEpoch).
		isPreviousEpoch := cfg.SlotToEpoch(slot) < epoch

		hashes := make([][32]byte, 0, len(p.bySlot[slot]))
		for hash := range p.bySlot[slot] {
			hashes = append(hashes, hash)
		}

		// Every group's aggregates are gathered before sorting, so the
		// bit-count ordering guarantee ("within a slot, higher-bitcount
		// aggregates precede lower") holds across the whole slot rather
		// than within each group separately -- otherwise the maxTotal
		// cap can cut off a high-bitcount aggregate from a
		// later-processed group while a lower-bitcount aggregate from
		// an earlier group was already admitted. Grounded on the
		// original's streamAggregatesForDataHashesBySlot, which sorts
		// ATTESTATION_INCLUSION_COMPARATOR across the entire slot bucket
		// before applying .limit(maxLength).
		var slotAggregates []*attestation.Attestation
		for _, hash := range hashes {
			group, ok := p.groups[hash]
			if !ok || group.isEmpty() {
				continue
			}
			if reason, valid := validator.Validate(stateAtSlot, group.data); !valid {
				log.WithField("reason", reason).Debug("skipping group failing validation")
				continue
			}
			if !forkCheck.InBlockFork(group.data) {
				continue
			}
			if group.requiresCommitteeBits != blockRequiresCommitteeBits {
				continue
			}
			if group.requiresCommitteeBits && p.committeeResolver != nil {
				if _, ok := p.committeeResolver.CommitteesSize(stateAtSlot, slot); !ok {
					log.WithField("slot", slot).Debug("skipping committee-bits group with unresolved committee sizes")
					continue
				}
			}

			aggregates, err := streamAggregates(group.members, p.sigAggregator)
			if err != nil {
				return nil, err
			}
			slotAggregates = append(slotAggregates, aggregates...)
		}

		sort.SliceStable(slotAggregates, func(i, j int) bool {
			return slotAggregates[i].BitCount() > slotAggregates[j].BitCount()
		})

		for _, agg := range slotAggregates {
			if len(selected) >= maxTotal {
				break
			}
			if isPreviousEpoch {
				if previousEpochUsed >= previousEpochCapacity {
					continue
				}
				previousEpochUsed++
			}
			selected = append(selected, agg)
		}
	}

	return selected, nil
}

// GetAll lists stored attestations, most recent slot first, optionally
// filtered by slot and committee index (spec.md §6, diagnostics).
func (p *AggregatingPool) GetAll(ctx context.Context, slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex) []*attestation.Attestation {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.GetAll")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	slots := make([]primitives.Slot, 0, len(p.bySlot))
	for s := range p.bySlot {
		if slot != nil && s != *slot {
			continue
		}
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] > slots[j] })

	var out []*attestation.Attestation
	for _, s := range slots {
		for hash := range p.bySlot[s] {
			group, ok := p.groups[hash]
			if !ok {
				continue
			}
			if committeeIndex != nil && group.data.CommitteeIndex != *committeeIndex {
				continue
			}
			out = append(out, group.members...)
		}
	}
	return out
}

// AggregateForData returns the largest aggregate the pool can build
// right now for dataHash, the read-only diagnostic query Teku exposes
// as createAggregateFor (SPEC_FULL.md §12).
func (p *AggregatingPool) AggregateForData(ctx context.Context, dataHash [32]byte, committeeIndex *primitives.CommitteeIndex) (*attestation.Attestation, bool) {
	_, span := trace.StartSpan(ctx, "operations.attestations.kv.AggregateForData")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	group, ok := p.groups[dataHash]
	if !ok || group.isEmpty() {
		return nil, false
	}
	if committeeIndex != nil && group.data.CommitteeIndex != *committeeIndex {
		return nil, false
	}
	aggregates, err := streamAggregates(group.members, p.sigAggregator)
	if err != nil || len(aggregates) == 0 {
		return nil, false
	}
	best := aggregates[0]
	for _, a := range aggregates[1:] {
		if a.BitCount() > best.BitCount() {
			best = a
		}
	}
	return best, true
}

// Size returns the current total stored attestation count.
func (p *AggregatingPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

func (p *AggregatingPool) publishSize() {
	poolSize.Set(float64(p.size))
	if p.sizeGauge != nil {
		p.sizeGauge.Set(float64(p.size))
	}
}

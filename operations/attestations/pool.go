package attestations

import (
	"context"

	"github.com/chainlayer/attestpool/attestation"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/chainlayer/attestpool/operations/attestations/kv"
)

// Pool is the facade the gossip, block-production, and fork-choice
// subsystems use to drive the attestation aggregation pool
// (spec.md §1, §6). The concrete implementation lives in package kv;
// Pool is declared here so callers depend only on behavior, never on
// kv's internal representation of groups.
type Pool interface {
	// Add accepts a validated attestation. An attestation that is not
	// stored is reported through the returned error, a *DroppedInput
	// for ordinary drops, which are mostly also logged at debug; the
	// source of attestations is unreliable by design (spec.md §4.1, §7).
	Add(ctx context.Context, att *attestation.Attestation) error

	// OnSlot drops all groups older than the retention window
	// relative to currentSlot (spec.md §3, §4.1).
	OnSlot(ctx context.Context, currentSlot primitives.Slot)

	// OnIncludedInBlock reports attestations that made it on chain so
	// their covered bits stop being offered again (spec.md §4.1).
	OnIncludedInBlock(ctx context.Context, slot primitives.Slot, included []*attestation.Attestation)

	// OnReorg clears "seen inclusion" state past the common ancestor
	// slot so previously-included aggregates become eligible again
	// (spec.md §3, §4.1).
	OnReorg(ctx context.Context, commonAncestorSlot primitives.Slot)

	// Select returns the best available aggregates for a block being
	// built on top of stateAtSlot, never more than the schema allows
	// (spec.md §4.1, the hot path).
	Select(ctx context.Context, stateAtSlot State, forkCheck ForkChecker, validator SpecValidator) ([]*attestation.Attestation, error)

	// GetAll is a diagnostic listing for operators, descending by
	// slot, optionally filtered by slot and committee index.
	GetAll(ctx context.Context, slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex) []*attestation.Attestation

	// AggregateForData returns a single best-effort aggregate for the
	// given dataHash, the read-only query the original's
	// createAggregateFor exposes (SPEC_FULL.md §12).
	AggregateForData(ctx context.Context, dataHash [32]byte, committeeIndex *primitives.CommitteeIndex) (*attestation.Attestation, bool)

	// Size returns the current total stored attestation count.
	Size() int
}

// NewPool constructs the default AggregatingPool implementation.
func NewPool(cfg Config, committeeResolver CommitteeResolver, sigAggregator SignatureAggregator, sizeGauge MetricsGauge) Pool {
	cfg = cfg.withDefaults()
	return kv.NewAggregatingPool(kv.Config{
		MaxSize:        cfg.MaxSize,
		RetentionSlots: cfg.RetentionSlots,
	}, committeeResolver, sigAggregator, sizeGauge)
}

// Package params defines the chain-timing and schema constants the
// attestation pool needs: slot/epoch timing, the fork-milestone
// schedule that decides when attestations require CommitteeBits, and
// the per-slot attestation caps the pool must respect when filling a
// block.
package params

import (
	"sync"

	"github.com/chainlayer/attestpool/consensus-types/primitives"
)

// BeaconChainConfig mirrors the teacher's sprawling config struct,
// trimmed to the fields the attestation pool actually consults. Field
// names and yaml tags follow the same convention so the struct stays
// recognizable to anyone who has read the teacher's config package.
type BeaconChainConfig struct {
	ConfigName string `yaml:"CONFIG_NAME" spec:"true"`

	SecondsPerSlot uint64         `yaml:"SECONDS_PER_SLOT" spec:"true"`
	SlotsPerEpoch  primitives.Slot `yaml:"SLOTS_PER_EPOCH" spec:"true"`

	// AttestationRetentionSlots is the pool's slot-age eviction
	// threshold (spec.md §3, "Retention window").
	AttestationRetentionSlots primitives.Slot `yaml:"ATTESTATION_RETENTION_SLOTS" spec:"true"`

	// DefaultMaxAttestationPoolSize is the hard cap on stored
	// attestation count (spec.md §6, "maxSize").
	DefaultMaxAttestationPoolSize int `yaml:"DEFAULT_MAX_ATTESTATION_POOL_SIZE" spec:"true"`

	// MaxCommitteesPerSlot bounds the committee-index domain. No code
	// in this repository reads it.
	MaxCommitteesPerSlot uint64 `yaml:"MAX_COMMITTEES_PER_SLOT" spec:"true"`

	// MilestoneForkEpochs maps each protocol milestone to the epoch at
	// which it activates. A milestone at or after Electra requires
	// CommitteeBits-format attestations.
	MilestoneForkEpochs map[Milestone]primitives.Epoch

	// MaxAttestationsPerBlock and MaxAttestationsPerBlockElectra are
	// the per-slot schema caps referenced by spec.md §4.1 step 1 as
	// "attestationsPerBlock" (dynamic, keyed by milestone, not a
	// single static constant).
	MaxAttestationsPerBlock        uint64 `yaml:"MAX_ATTESTATIONS" spec:"true"`
	MaxAttestationsPerBlockElectra uint64 `yaml:"MAX_ATTESTATIONS_ELECTRA" spec:"true"`
}

// Copy returns a deep-enough copy for safe mutation by callers that
// want a network variant, mirroring the teacher's BeaconChainConfig.Copy.
func (b *BeaconChainConfig) Copy() *BeaconChainConfig {
	cpy := *b
	cpy.MilestoneForkEpochs = make(map[Milestone]primitives.Epoch, len(b.MilestoneForkEpochs))
	for k, v := range b.MilestoneForkEpochs {
		cpy.MilestoneForkEpochs[k] = v
	}
	return &cpy
}

// MilestoneAtEpoch returns the highest milestone whose fork epoch has
// been reached by the given epoch.
func (b *BeaconChainConfig) MilestoneAtEpoch(epoch primitives.Epoch) Milestone {
	best := Phase0
	for milestone, forkEpoch := range b.MilestoneForkEpochs {
		if epoch >= forkEpoch && milestone > best {
			best = milestone
		}
	}
	return best
}

// MaxAttestationsAtEpoch returns the per-block attestation cap the
// schema allows at the given epoch.
func (b *BeaconChainConfig) MaxAttestationsAtEpoch(epoch primitives.Epoch) uint64 {
	if b.MilestoneAtEpoch(epoch) >= Electra {
		return b.MaxAttestationsPerBlockElectra
	}
	return b.MaxAttestationsPerBlock
}

// RequiresCommitteeBitsAtEpoch reports whether attestations at the
// given epoch must carry the EIP-7549 CommitteeBits field.
func (b *BeaconChainConfig) RequiresCommitteeBitsAtEpoch(epoch primitives.Epoch) bool {
	return b.MilestoneAtEpoch(epoch) >= Electra
}

// SlotToEpoch converts a slot to the epoch it belongs to.
func (b *BeaconChainConfig) SlotToEpoch(slot primitives.Slot) primitives.Epoch {
	if b.SlotsPerEpoch == 0 {
		return 0
	}
	return primitives.Epoch(slot / b.SlotsPerEpoch)
}

// EpochStartSlot returns the first slot of the given epoch.
func (b *BeaconChainConfig) EpochStartSlot(epoch primitives.Epoch) primitives.Slot {
	return primitives.Slot(epoch) * b.SlotsPerEpoch
}

// mainnetConfig returns the production defaults. Values are rounded,
// illustrative constants for this library, not a byte-for-byte port of
// the real mainnet preset.
func mainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		ConfigName:                     "mainnet",
		SecondsPerSlot:                 12,
		SlotsPerEpoch:                  32,
		AttestationRetentionSlots:      64,
		DefaultMaxAttestationPoolSize:  187_500,
		MaxCommitteesPerSlot:           64,
		MaxAttestationsPerBlock:        128,
		MaxAttestationsPerBlockElectra: 8,
		MilestoneForkEpochs: map[Milestone]primitives.Epoch{
			Phase0:    0,
			Altair:    74_240,
			Bellatrix: 144_896,
			Capella:   194_048,
			Deneb:     269_568,
			Electra:   364_032,
		},
	}
}

var (
	beaconConfig     = mainnetConfig()
	beaconConfigLock sync.RWMutex
)

// BeaconConfig returns the currently active chain configuration,
// mirroring the teacher's global params.BeaconConfig() accessor.
func BeaconConfig() *BeaconChainConfig {
	beaconConfigLock.RLock()
	defer beaconConfigLock.RUnlock()
	return beaconConfig
}

// OverrideBeaconConfig replaces the active configuration, mirroring
// the teacher's params.OverrideBeaconConfig used by tests and
// alternate-network setups.
func OverrideBeaconConfig(cfg *BeaconChainConfig) {
	beaconConfigLock.Lock()
	defer beaconConfigLock.Unlock()
	beaconConfig = cfg
}

// MainnetConfig returns a fresh copy of the mainnet defaults.
func MainnetConfig() *BeaconChainConfig {
	return mainnetConfig()
}

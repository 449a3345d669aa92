package attestations

import "github.com/chainlayer/attestpool/consensus-types/primitives"

// Default configuration values (spec.md §6, "Configuration").
const (
	// DefaultMaxAttestationCount is the hard cap on stored attestation
	// count before the pool starts evicting the oldest slots.
	//
	// With 2 million active validators, we'd expect around 62,500
	// attestations per slot, so 3 slots worth of attestations is
	// almost 187,500 -- the same reasoning the teacher's
	// DEFAULT_MAXIMUM_ATTESTATION_COUNT documents.
	DefaultMaxAttestationCount = 187_500

	// DefaultRetentionSlots is the slot-age eviction threshold.
	DefaultRetentionSlots primitives.Slot = 64
)

// Config configures an AggregatingPool. Both fields have sane
// defaults and may be left zero-valued to use them.
type Config struct {
	// MaxSize is the hard cap on stored attestation count. Zero means
	// DefaultMaxAttestationCount.
	MaxSize int

	// RetentionSlots bounds how many slots behind the current slot a
	// group may fall before onSlot evicts it. Zero means
	// DefaultRetentionSlots.
	RetentionSlots primitives.Slot
}

func (c Config) withDefaults() Config {
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxAttestationCount
	}
	if c.RetentionSlots <= 0 {
		c.RetentionSlots = DefaultRetentionSlots
	}
	return c
}

package kv

import (
	"sync"

	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// slotCommittee keys a single (slot, committeeIndex) bucket. Keying
// on slot as well as committee index is required by §4.5: "distinct
// slots with the same (committee, bit) count separately as distinct
// liveness signals" — the same validator attesting in two different
// slots of the same epoch and committee must count twice, not once.
type slotCommittee struct {
	slot           primitives.Slot
	committeeIndex primitives.CommitteeIndex
}

// liveValidatorCounter counts distinct (slot, committeeIndex, bitIndex)
// triples observed across stored attestations for the current and
// previous epoch, the "live validators" signal SPEC_FULL.md's
// live-validator counting scenarios describe: a validator counts once
// per (slot, committee) no matter how many attestations or aggregates
// carry its bit there, and rolls from current into previous rather
// than resetting when the epoch advances.
type liveValidatorCounter struct {
	mu          sync.Mutex
	initialized bool
	epoch       primitives.Epoch
	current     map[slotCommittee]bitfield.Bitlist
	previous    map[slotCommittee]bitfield.Bitlist

	currentGauge  MetricsGauge
	previousGauge MetricsGauge
}

func newLiveValidatorCounter(currentGauge, previousGauge MetricsGauge) *liveValidatorCounter {
	return &liveValidatorCounter{
		current:       make(map[slotCommittee]bitfield.Bitlist),
		previous:      make(map[slotCommittee]bitfield.Bitlist),
		currentGauge:  currentGauge,
		previousGauge: previousGauge,
	}
}

// observe folds bits into the (slot, committeeIndex) bucket for
// epoch, rolling the window forward first if epoch is newer than
// anything seen so far.
func (c *liveValidatorCounter) observe(epoch primitives.Epoch, slot primitives.Slot, committeeIndex primitives.CommitteeIndex, bits bitfield.Bitlist) {
	if bits == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rollTo(epoch)

	var target map[slotCommittee]bitfield.Bitlist
	switch {
	case epoch == c.epoch:
		target = c.current
	case epoch+1 == c.epoch:
		target = c.previous
	default:
		return
	}

	key := slotCommittee{slot: slot, committeeIndex: committeeIndex}
	existing, ok := target[key]
	if !ok || existing.Len() != bits.Len() {
		target[key] = append(bitfield.Bitlist(nil), bits...)
	} else {
		merged, err := existing.Or(bits)
		if err != nil {
			panic(invariantViolation("bitlist or failed: " + err.Error()))
		}
		target[key] = merged
	}
	c.publish()
}

func (c *liveValidatorCounter) rollTo(epoch primitives.Epoch) {
	if !c.initialized {
		c.initialized = true
		c.epoch = epoch
		return
	}
	if epoch <= c.epoch {
		return
	}
	if epoch == c.epoch+1 {
		c.previous = c.current
	} else {
		c.previous = make(map[slotCommittee]bitfield.Bitlist)
	}
	c.current = make(map[slotCommittee]bitfield.Bitlist)
	c.epoch = epoch
}

func (c *liveValidatorCounter) publish() {
	if c.currentGauge != nil {
		c.currentGauge.Set(float64(countLiveBits(c.current)))
	}
	if c.previousGauge != nil {
		c.previousGauge.Set(float64(countLiveBits(c.previous)))
	}
}

func countLiveBits(m map[slotCommittee]bitfield.Bitlist) uint64 {
	var total uint64
	for _, b := range m {
		total += b.Count()
	}
	return total
}

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiveValidatorCounter_DistinctSlotsCountSeparately(t *testing.T) {
	current := &noopGauge{}
	previous := &noopGauge{}
	c := newLiveValidatorCounter(current, previous)

	c.observe(0, 13, 1, bitsWith(8, 1, 3, 5, 7))
	assert.Equal(t, float64(4), current.last)

	// the same bits in a different slot of the same epoch/committee
	// must count as a second, distinct liveness signal (spec.md §8
	// scenario 1), not dedupe against slot 13's tally.
	c.observe(0, 14, 1, bitsWith(8, 1, 3, 5, 7))
	assert.Equal(t, float64(8), current.last)
}

func TestLiveValidatorCounter_SameSlotAndCommitteeDeduplicates(t *testing.T) {
	current := &noopGauge{}
	previous := &noopGauge{}
	c := newLiveValidatorCounter(current, previous)

	c.observe(0, 13, 0, bitsWith(8, 0, 1))
	assert.Equal(t, float64(2), current.last)

	// observing the same bits again for the same slot and committee
	// must not double-count.
	c.observe(0, 13, 0, bitsWith(8, 0, 1))
	assert.Equal(t, float64(2), current.last)

	// a new bit from the same slot/committee adds on top.
	c.observe(0, 13, 0, bitsWith(8, 2))
	assert.Equal(t, float64(3), current.last)
}

func TestLiveValidatorCounter_RollsCurrentIntoPrevious(t *testing.T) {
	current := &noopGauge{}
	previous := &noopGauge{}
	c := newLiveValidatorCounter(current, previous)

	c.observe(5, 160, 0, bitsWith(8, 0, 1))
	assert.Equal(t, float64(2), current.last)

	c.observe(6, 192, 0, bitsWith(8, 0))
	assert.Equal(t, float64(2), previous.last, "epoch 5's tally must roll into previous once epoch 6 is observed")
	assert.Equal(t, float64(1), current.last)
}

func TestLiveValidatorCounter_IgnoresStaleEpoch(t *testing.T) {
	current := &noopGauge{}
	previous := &noopGauge{}
	c := newLiveValidatorCounter(current, previous)

	c.observe(10, 320, 0, bitsWith(8, 0))
	c.observe(8, 256, 0, bitsWith(8, 1)) // more than one epoch behind, dropped
	assert.Equal(t, float64(1), current.last)
	assert.Equal(t, float64(0), previous.last)
}

func TestLiveValidatorCounter_DifferentCommitteeIndicesAccumulate(t *testing.T) {
	current := &noopGauge{}
	previous := &noopGauge{}
	c := newLiveValidatorCounter(current, previous)

	c.observe(0, 13, 0, bitsWith(8, 0))
	c.observe(0, 13, 1, bitsWith(8, 0))
	assert.Equal(t, float64(2), current.last)
}

package kv

import (
	"testing"
	"time"

	"github.com/chainlayer/attestpool/attestation"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroup(t *testing.T, requiresCommitteeBits bool) *matchingDataGroup {
	t.Helper()
	data := &attestation.Data{Slot: 10}
	seen := newSeenTracker(time.Hour)
	return newMatchingDataGroup(data, [32]byte{1}, requiresCommitteeBits, seen)
}

func TestMatchingDataGroup_AddRejectsLengthMismatch(t *testing.T) {
	g := newTestGroup(t, false)

	bits8 := bitfield.NewBitlist(8)
	bits8.SetBitAt(0, true)
	added, err := g.add(&attestation.Attestation{AggregationBits: bits8, Signature: []byte{1}})
	require.NoError(t, err)
	assert.True(t, added)

	bits16 := bitfield.NewBitlist(16)
	bits16.SetBitAt(0, true)
	_, err = g.add(&attestation.Attestation{AggregationBits: bits16, Signature: []byte{2}})
	assert.Error(t, err)
}

func TestMatchingDataGroup_AddRejectsMissingCommitteeBits(t *testing.T) {
	g := newTestGroup(t, true)
	bits := bitfield.NewBitlist(8)
	bits.SetBitAt(0, true)
	_, err := g.add(&attestation.Attestation{
		Data:            &attestation.Data{Slot: 10 + 364_032*32}, // a slot past the mainnet Electra fork epoch
		AggregationBits: bits,
	})
	assert.Error(t, err)
}

func TestMatchingDataGroup_ReportIncludedRemovesSubsumedOnly(t *testing.T) {
	g := newTestGroup(t, false)

	bitsA := bitfield.NewBitlist(8)
	bitsA.SetBitAt(0, true)
	bitsB := bitfield.NewBitlist(8)
	bitsB.SetBitAt(1, true)

	_, err := g.add(&attestation.Attestation{AggregationBits: bitsA, Signature: []byte{1}})
	require.NoError(t, err)
	_, err = g.add(&attestation.Attestation{AggregationBits: bitsB, Signature: []byte{2}})
	require.NoError(t, err)
	require.Equal(t, 2, g.size())

	includedBits := bitfield.NewBitlist(8)
	includedBits.SetBitAt(0, true)
	removed := g.reportIncluded(11, includedBits)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, g.size())
}

func TestMatchingDataGroup_ReportIncludedPrunesAgainstAccumulatedSeenUnion(t *testing.T) {
	g := newTestGroup(t, false)

	both := bitfield.NewBitlist(8)
	both.SetBitAt(0, true)
	both.SetBitAt(1, true)
	_, err := g.add(&attestation.Attestation{AggregationBits: both, Signature: []byte{1}})
	require.NoError(t, err)
	require.Equal(t, 1, g.size())

	bitZero := bitfield.NewBitlist(8)
	bitZero.SetBitAt(0, true)
	removed := g.reportIncluded(11, bitZero)
	assert.Equal(t, 0, removed, "member {0,1} is not yet fully covered by seen {0}")
	assert.Equal(t, 1, g.size())

	bitOne := bitfield.NewBitlist(8)
	bitOne.SetBitAt(1, true)
	removed = g.reportIncluded(12, bitOne)
	assert.Equal(t, 1, removed, "seen union {0,1} now fully covers the stored member")
	assert.Equal(t, 0, g.size())
}

func TestMatchingDataGroup_IsEmpty(t *testing.T) {
	g := newTestGroup(t, false)
	assert.True(t, g.isEmpty())

	bits := bitfield.NewBitlist(8)
	bits.SetBitAt(0, true)
	_, err := g.add(&attestation.Attestation{AggregationBits: bits, Signature: []byte{1}})
	require.NoError(t, err)
	assert.False(t, g.isEmpty())
}

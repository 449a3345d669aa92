package attestation

import (
	"testing"

	"github.com/chainlayer/attestpool/config/params"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttestation_RequiresCommitteeBits(t *testing.T) {
	cfg := params.MainnetConfig()
	params.OverrideBeaconConfig(cfg)
	defer params.OverrideBeaconConfig(params.MainnetConfig())

	electraStart := cfg.EpochStartSlot(cfg.MilestoneForkEpochs[params.Electra])

	phase0Att := &Attestation{Data: &Data{Slot: 0}}
	assert.False(t, phase0Att.RequiresCommitteeBits())

	electraAtt := &Attestation{Data: &Data{Slot: electraStart}}
	assert.True(t, electraAtt.RequiresCommitteeBits())
}

func TestAttestation_Clone(t *testing.T) {
	original := &Attestation{
		Data: &Data{
			Slot:           5,
			CommitteeIndex: 1,
			Source:         Checkpoint{Epoch: 1, Root: [32]byte{1}},
			Target:         Checkpoint{Epoch: 2, Root: [32]byte{2}},
		},
		AggregationBits: bitfield.NewBitlist(8),
		Signature:       []byte{0xAB},
	}
	original.AggregationBits.SetBitAt(1, true)

	clone := original.Clone()
	require.NotSame(t, original, clone)
	require.NotSame(t, original.Data, clone.Data)
	assert.Equal(t, original.Data.Slot, clone.Data.Slot)
	assert.True(t, clone.AggregationBits.BitAt(1))

	clone.AggregationBits.SetBitAt(2, true)
	assert.False(t, original.AggregationBits.BitAt(2), "mutating the clone must not affect the original")
}

func TestAttestation_BitCount(t *testing.T) {
	att := &Attestation{AggregationBits: bitfield.NewBitlist(8)}
	att.AggregationBits.SetBitAt(0, true)
	att.AggregationBits.SetBitAt(3, true)
	assert.Equal(t, 2, att.BitCount())

	var nilAtt *Attestation
	assert.Equal(t, 0, nilAtt.BitCount())
}

func TestData_HashTreeRoot_Deterministic(t *testing.T) {
	d1 := &Data{
		Slot:            10,
		CommitteeIndex:  2,
		BeaconBlockRoot: [32]byte{0xAA},
		Source:          Checkpoint{Epoch: 1, Root: [32]byte{0x01}},
		Target:          Checkpoint{Epoch: 2, Root: [32]byte{0x02}},
	}
	d2 := &Data{
		Slot:            10,
		CommitteeIndex:  2,
		BeaconBlockRoot: [32]byte{0xAA},
		Source:          Checkpoint{Epoch: 1, Root: [32]byte{0x01}},
		Target:          Checkpoint{Epoch: 2, Root: [32]byte{0x02}},
	}

	h1, err := d1.HashTreeRoot()
	require.NoError(t, err)
	h2, err := d2.HashTreeRoot()
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "identical data must hash identically")

	d2.Slot = 11
	h3, err := d2.HashTreeRoot()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "different data must hash differently")
}

func TestData_HashTreeRoot_Nil(t *testing.T) {
	var d *Data
	root, err := d.HashTreeRoot()
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, root)
}

func TestCommitteeIndexType(t *testing.T) {
	var ci primitives.CommitteeIndex = 3
	d := &Data{CommitteeIndex: ci}
	assert.EqualValues(t, 3, d.CommitteeIndex)
}

func TestNewFixtureRoot_DistinctAcrossCalls(t *testing.T) {
	r1 := NewFixtureRoot()
	r2 := NewFixtureRoot()
	assert.NotEqual(t, r1, r2)

	d1 := &Data{Slot: 1, BeaconBlockRoot: r1}
	d2 := &Data{Slot: 1, BeaconBlockRoot: r2}
	h1, err := d1.HashTreeRoot()
	require.NoError(t, err)
	h2, err := d2.HashTreeRoot()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "fixture roots must produce distinguishable attestation data")
}

package attestations

import (
	"context"
	"testing"

	"github.com/chainlayer/attestpool/attestation"
	"github.com/chainlayer/attestpool/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passValidator struct{}

func (passValidator) Validate(State, *attestation.Data) (string, bool) { return "", true }

type inForkChecker struct{}

func (inForkChecker) InBlockFork(*attestation.Data) bool { return true }

type concatAggregator struct{}

func (concatAggregator) Combine(sigs [][]byte) ([]byte, error) {
	var out []byte
	for _, s := range sigs {
		out = append(out, s...)
	}
	return out, nil
}

type fakeState struct {
	slot         primitives.Slot
	currentEpoch primitives.Epoch
	prevCapacity int
}

func (f *fakeState) Slot() primitives.Slot          { return f.slot }
func (f *fakeState) CurrentEpoch() primitives.Epoch { return f.currentEpoch }
func (f *fakeState) PreviousEpochAttestationCapacity() int {
	return f.prevCapacity
}

func TestNewPool_DefaultsAndRoundTrip(t *testing.T) {
	pool := NewPool(Config{}, nil, concatAggregator{}, nil)

	bits := bitfield.NewBitlist(8)
	bits.SetBitAt(0, true)
	att := &attestation.Attestation{
		Data:            &attestation.Data{Slot: 1},
		AggregationBits: bits,
		Signature:       []byte{0x01},
	}
	require.NoError(t, pool.Add(context.Background(), att))
	assert.Equal(t, 1, pool.Size())

	state := &fakeState{slot: 2, currentEpoch: 0, prevCapacity: 1000}
	selected, err := pool.Select(context.Background(), state, inForkChecker{}, passValidator{})
	require.NoError(t, err)
	require.Len(t, selected, 1)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultMaxAttestationCount, cfg.MaxSize)
	assert.Equal(t, DefaultRetentionSlots, cfg.RetentionSlots)

	explicit := Config{MaxSize: 10, RetentionSlots: 5}.withDefaults()
	assert.Equal(t, 10, explicit.MaxSize)
	assert.EqualValues(t, 5, explicit.RetentionSlots)
}

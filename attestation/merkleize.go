package attestation

import (
	"encoding/binary"

	"github.com/chainlayer/attestpool/encoding/hashutil"
)

// uint64Root computes the HashTreeRoot merkleization of a plain
// uint64, following the teacher's htrutils.Uint64Root convention.
func uint64Root(val uint64) [32]byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf, val)
	var root [32]byte
	copy(root[:], buf)
	return root
}

// checkpointRoot computes the HashTreeRoot merkleization of a
// Checkpoint (epoch, root), following htrutils.CheckpointRoot.
func checkpointRoot(c Checkpoint) [32]byte {
	fieldRoots := [][]byte{
		firstN(uint64Root(uint64(c.Epoch))),
		firstN(c.Root),
	}
	return bitwiseMerkleize(fieldRoots, uint64(len(fieldRoots)), uint64(len(fieldRoots)))
}

func firstN(b [32]byte) []byte {
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// HashTreeRoot computes the dataHash fingerprint used to group
// attestations (spec.md §3). It follows the same field-roots-then-
// merkleize shape as the teacher's htrutils helpers: every field is
// first reduced to its own 32-byte root, then the roots are
// merkleized pairwise.
func (d *Data) HashTreeRoot() ([32]byte, error) {
	if d == nil {
		return [32]byte{}, nil
	}
	fieldRoots := [][]byte{
		firstN(uint64Root(uint64(d.Slot))),
		firstN(uint64Root(uint64(d.CommitteeIndex))),
		firstN(d.BeaconBlockRoot),
		firstN(checkpointRoot(d.Source)),
		firstN(checkpointRoot(d.Target)),
	}
	return bitwiseMerkleize(fieldRoots, uint64(len(fieldRoots)), uint64(len(fieldRoots))), nil
}

// bitwiseMerkleize reduces a list of 32-byte leaves (padded with
// zero roots up to the next power of two, bounded by limit) to a
// single root via pairwise hashing, the same shape as the teacher's
// (unretrieved) htrutils.BitwiseMerkleize -- reconstructed here from
// its call sites and from beacon-chain/state/stateutil's HasherFunc
// combine-pair convention, since the teacher's own implementation
// file was not part of the retrieved sources.
func bitwiseMerkleize(leaves [][]byte, count, limit uint64) [32]byte {
	hasher := hashutil.NewHasherFunc(hashutil.CustomSHA256Hasher())

	depth := uint64(0)
	for (uint64(1) << depth) < limit {
		depth++
	}

	layer := make([][32]byte, uint64(1)<<depth)
	for i := uint64(0); i < count && i < uint64(len(layer)); i++ {
		var leaf [32]byte
		copy(leaf[:], leaves[i])
		layer[i] = leaf
	}

	for d := depth; d > 0; d-- {
		next := make([][32]byte, uint64(1)<<(d-1))
		for i := range next {
			next[i] = hasher.Combi(layer[2*i], layer[2*i+1])
		}
		layer = next
	}
	if len(layer) == 0 {
		return [32]byte{}
	}
	return layer[0]
}

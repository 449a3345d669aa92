// Package hashutil provides the small SSZ-style hashing primitives
// the attestation package needs to compute a stable dataHash
// fingerprint, grounded on the teacher's shared/hashutil.Hash and
// beacon-chain/state/stateutil.HasherFunc combine-pair convention.
package hashutil

import (
	"crypto/sha256"
	"encoding/binary"
)

// HashFn hashes an arbitrary byte slice down to 32 bytes.
type HashFn func(input []byte) [32]byte

// CustomSHA256Hasher returns the hash function the teacher's SSZ
// helpers use to merkleize fields: plain SHA-256, not the blake2b
// truncation used by shared/hashutil.Hash (which is reserved for
// non-consensus hashing elsewhere in the teacher).
func CustomSHA256Hasher() HashFn {
	return func(input []byte) [32]byte {
		return sha256.Sum256(input)
	}
}

// Hasher performs the pairwise-combine and length-mixing operations
// SSZ merkleization needs.
type Hasher interface {
	Hash(a []byte) [32]byte
	Combi(a, b [32]byte) [32]byte
	MixIn(a [32]byte, i uint64) [32]byte
}

// HasherFunc is the concrete Hasher backed by a HashFn, mirroring the
// teacher's beacon-chain/state/stateutil.HasherFunc.
type HasherFunc struct {
	buf      [64]byte
	hashFunc HashFn
}

// NewHasherFunc constructs a HasherFunc from the given hash function.
func NewHasherFunc(h HashFn) *HasherFunc {
	return &HasherFunc{hashFunc: h}
}

// Hash applies the underlying hash function.
func (h *HasherFunc) Hash(a []byte) [32]byte {
	return h.hashFunc(a)
}

// Combi hashes two 32-byte roots together, as a merkle tree node
// combines its two children.
func (h *HasherFunc) Combi(a, b [32]byte) [32]byte {
	copy(h.buf[:32], a[:])
	copy(h.buf[32:], b[:])
	return h.Hash(h.buf[:])
}

// MixIn folds a little-endian length into a root, as SSZ does for
// variable-length containers.
func (h *HasherFunc) MixIn(a [32]byte, i uint64) [32]byte {
	copy(h.buf[:32], a[:])
	var lenBuf [32]byte
	binary.LittleEndian.PutUint64(lenBuf[:], i)
	copy(h.buf[32:], lenBuf[:])
	return h.Hash(h.buf[:])
}

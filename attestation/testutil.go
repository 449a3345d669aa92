package attestation

import "github.com/google/uuid"

// NewFixtureRoot returns a synthetic 32-byte root suitable for test
// fixtures that need a distinct BeaconBlockRoot or checkpoint root
// without caring about its provenance, grounded on the teacher's use
// of github.com/google/uuid for synthetic IDs in its own test
// fixtures (e.g. shared/p2p/testing).
func NewFixtureRoot() [32]byte {
	id := uuid.New()
	var root [32]byte
	copy(root[:16], id[:])
	copy(root[16:], id[:])
	return root
}

package primitives

// Slot represents a single slot of the beacon chain.
type Slot uint64

// Epoch represents a single epoch, a fixed number of consecutive slots.
type Epoch uint64

// CommitteeIndex identifies a beacon committee within a slot.
type CommitteeIndex uint64

// ValidatorIndex identifies a validator within the beacon state's
// validator registry.
type ValidatorIndex uint64

// SubCommitteeIndex identifies one of several sub-committees an
// attestation's CommitteeBits may reference under EIP-7549.
type SubCommitteeIndex uint64

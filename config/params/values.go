package params

// Milestone enumerates the protocol upgrades relevant to attestation
// aggregation. Each milestone is associated with a fork epoch in
// BeaconChainConfig.MilestoneForkEpochs.
type Milestone int

const (
	Phase0 Milestone = iota
	Altair
	Bellatrix
	Capella
	Deneb
	// Electra introduces EIP-7549: attestations carry CommitteeBits and
	// aggregate over multiple committees instead of a single one.
	Electra
)

// MilestoneNames provides human-readable names, mirroring the
// teacher's ConfigName.String() convention.
var MilestoneNames = map[Milestone]string{
	Phase0:    "phase0",
	Altair:    "altair",
	Bellatrix: "bellatrix",
	Capella:   "capella",
	Deneb:     "deneb",
	Electra:   "electra",
}

func (m Milestone) String() string {
	s, ok := MilestoneNames[m]
	if !ok {
		return "undefined"
	}
	return s
}

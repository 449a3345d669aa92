package attestations

import "github.com/chainlayer/attestpool/operations/attestations/kv"

// These collaborator interfaces are re-exported from package kv,
// which is where the pool implementation actually consumes them, so
// callers can depend on the stable top-level package path without
// either package importing the other in both directions (spec.md
// §6, "Outbound (capabilities the core requires)").
type (
	State               = kv.State
	CommitteeResolver   = kv.CommitteeResolver
	SpecValidator       = kv.SpecValidator
	ForkChecker         = kv.ForkChecker
	SignatureAggregator = kv.SignatureAggregator
	MetricsGauge        = kv.MetricsGauge
)

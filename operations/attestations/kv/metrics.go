package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names and the promauto wiring style follow the teacher's
// validator/client/metrics.go (package-level promauto vars, no
// per-instance registration).
var (
	poolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_size",
		Help: "Number of attestations currently stored in the aggregation pool.",
	})

	attestationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attestation_pool_dropped_total",
		Help: "Number of attestations dropped on ingest, by reason.",
	}, []string{"reason"})

	groupsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestation_pool_groups_evicted_total",
		Help: "Number of matching-data groups evicted, either for falling outside the retention window or to bring the pool back under its size cap.",
	})

	currentEpochLiveValidators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_current_live_validators",
		Help: "Distinct validator bits observed across stored attestations for the current epoch.",
	})

	previousEpochLiveValidators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_previous_live_validators",
		Help: "Distinct validator bits observed across stored attestations for the previous epoch.",
	})
)

// promGauge adapts a prometheus.Gauge to the MetricsGauge interface
// package attestations exposes to callers, so internal promauto
// metrics and an operator-supplied external gauge share one seam.
type promGauge struct{ g prometheus.Gauge }

func (p promGauge) Set(v float64) { p.g.Set(v) }

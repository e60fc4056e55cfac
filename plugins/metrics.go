package plugins

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/anvil-platform/delegatehoist/internal/hoist"
)

const (
	passResultSkipped   = "skipped"
	passResultChanged   = "changed"
	passResultConverged = "converged"
	passResultPending   = "pending"
)

var (
	delegateHoistPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delegatehoist_passes_total",
			Help: "Number of optimize passes by result.",
		},
		[]string{"result"},
	)

	delegateHoistDelegatesDiscovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "delegatehoist_delegates_discovered",
			Help: "Number of delegate modules discovered in the last compilation.",
		},
	)

	delegateHoistModuleConnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delegatehoist_module_connects_total",
			Help: "Total chunk/module connections made, by kind.",
		},
		[]string{"kind"},
	)
	delegateHoistModuleDisconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delegatehoist_module_disconnects_total",
			Help: "Total chunk/module connections removed, by kind.",
		},
		[]string{"kind"},
	)

	delegateHoistPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delegatehoist_pass_duration_seconds",
			Help:    "Time taken by one optimize pass.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		delegateHoistPassesTotal,
		delegateHoistDelegatesDiscovered,
		delegateHoistModuleConnectsTotal,
		delegateHoistModuleDisconnectsTotal,
		delegateHoistPassDuration,
	)
}

// PassResult is the result label recorded for a pass.
func PassResult(report hoist.Report) string {
	switch {
	case report.Skipped != "":
		return passResultSkipped
	case report.Mutations() > 0:
		return passResultChanged
	default:
		return passResultConverged
	}
}

func recordPass(report hoist.Report, seconds float64) {
	delegateHoistPassesTotal.WithLabelValues(PassResult(report)).Inc()
	delegateHoistPassDuration.Observe(seconds)

	var connected, evicted, associated int
	for _, a := range report.Applications {
		connected += a.Connected
		evicted += a.Evicted
		associated += a.Associated
	}
	delegateHoistModuleConnectsTotal.WithLabelValues("delegate").Add(float64(report.DelegatesConnected))
	delegateHoistModuleConnectsTotal.WithLabelValues("runtime").Add(float64(connected))
	delegateHoistModuleConnectsTotal.WithLabelValues("association").Add(float64(associated))
	delegateHoistModuleDisconnectsTotal.WithLabelValues("delegate").Add(float64(report.DelegatesRemoved))
	delegateHoistModuleDisconnectsTotal.WithLabelValues("eviction").Add(float64(evicted))
}

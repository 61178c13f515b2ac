package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(resolutionsTotal, resolutionSeconds) }

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_resolutions_total",
			Help: "Resolutions by outcome kind.",
		},
		[]string{"outcome"},
	)

	resolutionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "link_resolution_duration_seconds",
			Help:    "Time spent resolving a request, store calls included.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 3},
		},
		[]string{"host"}, // canonical, tenant, malformed
	)
)

// ObserveResolution records one finished resolution.
func ObserveResolution(hostKind, outcome string, d time.Duration) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
	resolutionSeconds.WithLabelValues(hostKind).Observe(d.Seconds())
}

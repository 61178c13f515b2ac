package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(linksCreated) }

var linksCreated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "links_created_total",
		Help: "Links created, by code source.",
	},
	[]string{"source"}, // 'alias', 'generated'
)

func IncLinkCreated(alias bool) {
	if alias {
		linksCreated.WithLabelValues("alias").Inc()
		return
	}
	linksCreated.WithLabelValues("generated").Inc()
}

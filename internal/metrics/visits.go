package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(visitsFlushed, visitsDropped, visitFlushErrors) }

var (
	visitsFlushed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "visit_journal_flushed_total",
		Help: "Visits written to the journal.",
	})

	visitsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "visit_journal_dropped_total",
		Help: "Visits dropped because the journal buffer was full.",
	})

	visitFlushErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "visit_journal_flush_errors_total",
		Help: "Failed journal batch writes.",
	})
)

func AddVisitsFlushed(n int) { visitsFlushed.Add(float64(n)) }

func IncVisitDropped() { visitsDropped.Inc() }

func IncVisitFlushError() { visitFlushErrors.Inc() }

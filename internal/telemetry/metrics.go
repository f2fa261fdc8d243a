package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EventsPublished  = prometheus.NewCounter(prometheus.CounterOpts{Name: "career_events_published_total", Help: "Total events published"})
	EventsCompleted  = prometheus.NewCounter(prometheus.CounterOpts{Name: "career_events_completed_total", Help: "Events whose handler succeeded"})
	EventsErrored    = prometheus.NewCounter(prometheus.CounterOpts{Name: "career_events_errored_total", Help: "Events whose handler failed (terminal)"})
	EventsDeadLetter = prometheus.NewCounter(prometheus.CounterOpts{Name: "career_events_failed_total", Help: "Events dead-lettered after exhausting attempts"})
	PendingDepth     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "career_events_pending", Help: "Pending events awaiting dispatch"})
	FanoutFailures   = prometheus.NewCounter(prometheus.CounterOpts{Name: "career_fanout_branch_failures_total", Help: "Fan-out branches that returned a captured error"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			EventsPublished,
			EventsCompleted,
			EventsErrored,
			EventsDeadLetter,
			PendingDepth,
			FanoutFailures,
		)
	})
	return promhttp.Handler()
}

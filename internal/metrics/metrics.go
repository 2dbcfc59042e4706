// Package metrics exposes Prometheus counters for the monitoring pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_events_ingested_total",
		Help: "Events accepted into the feed buffer, by kind",
	}, []string{"kind"})

	MalformedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_malformed_events_total",
		Help: "Inbound events dropped for failing validation",
	})

	AlertsRaised = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_alerts_raised_total",
		Help: "Alerts created from qualifying analyses, by risk level",
	}, []string{"level"})

	AlertsSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_alerts_suppressed_total",
		Help: "Duplicate alerts suppressed within the recency window",
	})

	MonitoringCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_monitoring_cycles_total",
		Help: "Completed monitoring cycles",
	})

	CycleErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_cycle_errors_total",
		Help: "Source or analyzer failures during monitoring cycles",
	})

	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_cycle_duration_seconds",
		Help:    "Wall time of one monitoring cycle",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister registers all pipeline metrics on the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		EventsIngested,
		MalformedEvents,
		AlertsRaised,
		AlertsSuppressed,
		MonitoringCycles,
		CycleErrors,
		CycleDuration,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

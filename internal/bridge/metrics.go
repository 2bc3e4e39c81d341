package bridge

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "state",
			Help:      "Session state (0=unloaded, 1=loading, 2=ready, 3=busy)",
		},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "jobs_total",
			Help:      "Total number of jobs admitted to the engine worker",
		},
		[]string{"kind"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "queue_depth",
			Help:      "Jobs waiting on the engine worker",
		},
	)

	tokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "tokens_total",
			Help:      "Total number of generated tokens",
		},
		[]string{"mode"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "generation_duration_seconds",
			Help:      "Wall-clock generation time including queueing",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"mode"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamabridge",
			Subsystem: "bridge",
			Name:      "errors_total",
			Help:      "Total errors returned by the session, by code",
		},
		[]string{"code"},
	)
)

func init() {
	prometheus.MustRegister(sessionState, jobsTotal, queueDepth, tokensTotal, generationDuration, errorsTotal)
}

// countError records err under its code. Foreign errors count as "other".
func countError(err error) {
	if err == nil {
		return
	}
	code := CodeOf(err)
	if code == "" {
		code = "other"
	}
	errorsTotal.WithLabelValues(code).Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastRunsTotal,
		broadcastSendsTotal,
		broadcastDurationSeconds,
	)
}

var (
	broadcastRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_runs_total",
			Help: "Total number of broadcast runs dispatched.",
		},
	)

	broadcastSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_sends_total",
			Help: "Per-recipient broadcast outcomes (delivered/unreachable/failed).",
		},
		[]string{"outcome"},
	)

	broadcastDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_duration_seconds",
			Help:    "Wall time of a full broadcast run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

func IncBroadcastRun() {
	broadcastRunsTotal.Inc()
}

func IncBroadcastSend(outcome string) {
	broadcastSendsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveBroadcastDuration(seconds float64) {
	broadcastDurationSeconds.Observe(seconds)
}

package transfer

import "github.com/prometheus/client_golang/prometheus"

var (
	transferCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "transfer",
			Name:      "total",
			Help:      "Counter of transfers by result.",
		}, []string{"result"})

	transferDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger",
			Subsystem: "transfer",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of transfer latency (s), latch wait included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		})

	transferInFlightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "transfer",
			Name:      "in_flight",
			Help:      "Number of transfers being executed.",
		})

	latchContendedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "transfer",
			Name:      "latch_contended_total",
			Help:      "Counter of transfers that waited for an account latch.",
		})

	recoveredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "transfer",
			Name:      "recovered_total",
			Help:      "Counter of pending transactions marked failed at startup.",
		})
)

func init() {
	prometheus.MustRegister(transferCounter)
	prometheus.MustRegister(transferDuration)
	prometheus.MustRegister(transferInFlightGauge)
	prometheus.MustRegister(latchContendedCounter)
	prometheus.MustRegister(recoveredCounter)
}

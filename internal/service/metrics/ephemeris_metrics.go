package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EphemerisLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "horacle",
			Subsystem: "ephemeris",
			Name:      "latency_seconds",
			Help:      "Latency of ephemeris collaborator endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EphemerisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "horacle",
			Subsystem: "ephemeris",
			Name:      "errors_total",
			Help:      "Errors by ephemeris collaborator endpoint",
		},
		[]string{"endpoint"},
	)

	EphemerisMemoHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "horacle",
			Subsystem: "ephemeris",
			Name:      "memo_hits_total",
			Help:      "Transit lookups served from the memo",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EphemerisLatency, EphemerisErrors, EphemerisMemoHits)
	})
}

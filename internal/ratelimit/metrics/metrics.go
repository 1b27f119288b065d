package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	StoreFailures *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_ratelimit_decisions_total",
			Help: "Rate limit checks by route class and outcome",
		}, []string{"class", "outcome"}),
		StoreFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_ratelimit_store_failures_total",
			Help: "Rate limit checks that failed open because the bucket store errored",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncrementAllowed(class string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(class, "allowed").Inc()
}

func (m *Metrics) IncrementDenied(class string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(class, "denied").Inc()
}

func (m *Metrics) IncrementStoreFailures(class string) {
	if m == nil {
		return
	}
	m.StoreFailures.WithLabelValues(class).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the visitor lifecycle.
type Metrics struct {
	// Successful operations by kind (create, approve, deny, checkin, checkout)
	Operations *prometheus.CounterVec

	// Lost compare-and-swap races by transition
	Conflicts *prometheus.CounterVec

	// Authorization denials by operation
	Denials *prometheus.CounterVec

	ListLatency prometheus.Histogram
}

// New creates a new Metrics instance with all visitor metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_visitor_operations_total",
			Help: "Successful visitor lifecycle operations by kind",
		}, []string{"operation"}),
		Conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_visitor_conflicts_total",
			Help: "Transitions rejected because another caller changed the visitor first",
		}, []string{"operation"}),
		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_visitor_authorization_denials_total",
			Help: "Operations rejected by role or household checks",
		}, []string{"operation"}),
		ListLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatepass_visitor_list_duration_seconds",
			Help:    "Duration of visitor list and search queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncOperation(op string) {
	if m != nil {
		m.Operations.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncConflict(op string) {
	if m != nil {
		m.Conflicts.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncDenial(op string) {
	if m != nil {
		m.Denials.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) ObserveListLatency(d time.Duration) {
	if m != nil {
		m.ListLatency.Observe(d.Seconds())
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the command resolver.
type Metrics struct {
	// Tool selections by action; "none" when the model answered in text
	Actions *prometheus.CounterVec

	// Tool outcomes by action and result code
	Outcomes *prometheus.CounterVec

	// Failed model round trips by stage (function_call, reply)
	UpstreamFailures *prometheus.CounterVec

	RoundTripLatency *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Actions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_copilot_actions_total",
			Help: "Actions chosen by the language model",
		}, []string{"action"}),
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_copilot_outcomes_total",
			Help: "Resolver tool outcomes by action and result code",
		}, []string{"action", "code"}),
		UpstreamFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_copilot_upstream_failures_total",
			Help: "Language model calls that failed or timed out",
		}, []string{"stage"}),
		RoundTripLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatepass_copilot_round_trip_seconds",
			Help:    "Latency of language model round trips",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"stage"}),
	}
}

func (m *Metrics) IncAction(action string) {
	if m != nil {
		m.Actions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncOutcome(action, code string) {
	if m != nil {
		m.Outcomes.WithLabelValues(action, code).Inc()
	}
}

func (m *Metrics) IncUpstreamFailure(stage string) {
	if m != nil {
		m.UpstreamFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveRoundTrip(stage string, d time.Duration) {
	if m != nil {
		m.RoundTripLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

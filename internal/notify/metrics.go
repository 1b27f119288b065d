package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dispatcher outcomes.
type Metrics struct {
	Delivered *prometheus.CounterVec
	Failed    *prometheus.CounterVec
	Dropped   prometheus.Counter
	QueueLen  prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Delivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_notifications_delivered_total",
			Help: "Notifications accepted by the sink, by target kind",
		}, []string{"target"}),
		Failed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_notifications_failed_total",
			Help: "Notifications the sink rejected, by target kind",
		}, []string{"target"}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_notifications_dropped_total",
			Help: "Notifications dropped because the dispatch queue was full or closed",
		}),
		QueueLen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gatepass_notifications_queue_length",
			Help: "Notifications waiting for a dispatcher worker",
		}),
	}
}

func (m *Metrics) incDelivered(target string) {
	if m != nil {
		m.Delivered.WithLabelValues(target).Inc()
	}
}

func (m *Metrics) incFailed(target string) {
	if m != nil {
		m.Failed.WithLabelValues(target).Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) setQueueLen(n int) {
	if m != nil {
		m.QueueLen.Set(float64(n))
	}
}

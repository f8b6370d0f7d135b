package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PushMetrics counts web push deliveries by outcome.
type PushMetrics struct {
	deliveries *prometheus.CounterVec
}

// NewPushMetrics registers the push counter. A nil registerer yields a no-op
// recorder.
func NewPushMetrics(reg prometheus.Registerer) *PushMetrics {
	if reg == nil {
		return &PushMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Web push deliveries by result.",
	}, []string{"result"})
	reg.MustRegister(deliveries)
	return &PushMetrics{deliveries: deliveries}
}

// IncDelivery counts one delivery attempt with the given result
// (sent, failed, gone).
func (p *PushMetrics) IncDelivery(result string) {
	if p == nil || p.deliveries == nil {
		return
	}
	p.deliveries.WithLabelValues(normalizeLabel(result)).Inc()
}

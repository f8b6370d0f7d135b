package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts stock ledger writes by outcome.
type LedgerMetrics struct {
	appended *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger counters on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	appended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_appended_total",
		Help: "Stock movements written to the ledger.",
	}, []string{"type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_movements_rejected_total",
		Help: "Stock movements rejected before write.",
	}, []string{"reason"})
	reg.MustRegister(appended, rejected)
	return &LedgerMetrics{appended: appended, rejected: rejected}
}

// IncAppended counts a committed movement of the given type.
func (l *LedgerMetrics) IncAppended(movementType string) {
	if l == nil || l.appended == nil {
		return
	}
	l.appended.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncRejected counts a rejected append.
func (l *LedgerMetrics) IncRejected(reason string) {
	if l == nil || l.rejected == nil {
		return
	}
	l.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

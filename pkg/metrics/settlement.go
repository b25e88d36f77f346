package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// SettlementMetrics counts settlement outcomes per flow.
type SettlementMetrics struct {
	settled  *prometheus.CounterVec
	failed   *prometheus.CounterVec
	turnover *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Successful settlements by flow.",
	}, []string{"flow"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total",
		Help: "Failed settlement attempts by flow and reason.",
	}, []string{"flow", "reason"})
	turnover := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_turnover",
		Help: "Gross settled amount by flow, in currency units.",
	}, []string{"flow"})
	reg.MustRegister(settled, failed, turnover)
	return &SettlementMetrics{
		settled:  settled,
		failed:   failed,
		turnover: turnover,
	}
}

// IncSettled records a committed settlement and its gross amount.
func (s *SettlementMetrics) IncSettled(flow string, amount decimal.Decimal) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(flow)).Inc()
	value, _ := amount.Float64()
	s.turnover.WithLabelValues(normalizeLabel(flow)).Add(value)
}

// IncFailed records a settlement attempt that did not commit.
func (s *SettlementMetrics) IncFailed(flow, reason string) {
	if s == nil || s.failed == nil {
		return
	}
	s.failed.WithLabelValues(normalizeLabel(flow), normalizeLabel(reason)).Inc()
}

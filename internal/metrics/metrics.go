// Package metrics exposes ledger operation counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carbon-scribe/impact-ledger/pkg/ledger"
)

// Module labels
const (
	ModuleAssessment = "assessment"
	ModuleMarket     = "market"
)

// OutcomeSuccess labels successful operations; failures use their error code
const OutcomeSuccess = "success"

// Recorder counts ledger operations by outcome
type Recorder interface {
	Observe(module, operation string, res ledger.Result)
}

// Nop discards observations
type Nop struct{}

func (Nop) Observe(string, string, ledger.Result) {}

// Prometheus records operations in a counter vector registered on its own registry
type Prometheus struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	tradeValue prometheus.Counter
}

// NewPrometheus creates a recorder with a fresh registry so several ledgers
// can coexist in one process (and in tests).
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "impact_ledger",
		Name:      "operations_total",
		Help:      "Ledger state transitions by module, operation and outcome.",
	}, []string{"module", "operation", "outcome"})
	tradeValue := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "impact_ledger",
		Name:      "trade_value_total",
		Help:      "Sum of total prices of completed market transactions.",
	})
	registry.MustRegister(operations, tradeValue)

	return &Prometheus{
		registry:   registry,
		operations: operations,
		tradeValue: tradeValue,
	}
}

// Observe implements Recorder
func (p *Prometheus) Observe(module, operation string, res ledger.Result) {
	p.operations.WithLabelValues(module, operation, Outcome(res)).Inc()
}

// AddTradeValue accumulates the value of a completed purchase
func (p *Prometheus) AddTradeValue(v float64) {
	if v > 0 {
		p.tradeValue.Add(v)
	}
}

// Registry returns the registry backing this recorder
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Outcome converts a result to its label value
func Outcome(res ledger.Result) string {
	if res.Success {
		return OutcomeSuccess
	}
	return string(res.Error)
}

// TradeRecorder is implemented by recorders that also track traded value
type TradeRecorder interface {
	AddTradeValue(v float64)
}

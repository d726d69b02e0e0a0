// Package metrics exposes engine activity counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments. All increment methods
// are nil-safe so wiring metrics stays optional.
type Metrics struct {
	executionsTotal    *prometheus.CounterVec
	actionRetriesTotal prometheus.Counter
	schedulerTicks     prometheus.Counter
	activeWorkflows    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		executionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estateflow",
			Subsystem: "engine",
			Name:      "executions_total",
			Help:      "Workflow executions by outcome.",
		}, []string{"outcome"}),
		actionRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "estateflow",
			Subsystem: "engine",
			Name:      "action_retries_total",
			Help:      "Action attempts retried after a handler error.",
		}),
		schedulerTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "estateflow",
			Subsystem: "engine",
			Name:      "scheduler_ticks_total",
			Help:      "Iterations of the background scheduler loop.",
		}),
		activeWorkflows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "estateflow",
			Subsystem: "engine",
			Name:      "active_workflows",
			Help:      "Workflows currently in active status.",
		}),
	}
}

func (m *Metrics) IncExecution(success bool) {
	if m == nil {
		return
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}

	m.executionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncActionRetry() {
	if m == nil {
		return
	}

	m.actionRetriesTotal.Inc()
}

func (m *Metrics) IncSchedulerTick() {
	if m == nil {
		return
	}

	m.schedulerTicks.Inc()
}

func (m *Metrics) SetActiveWorkflows(n int) {
	if m == nil {
		return
	}

	m.activeWorkflows.Set(float64(n))
}

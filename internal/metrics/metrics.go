// Package metrics holds the Prometheus collectors for the instruction pipeline.
//
// Every Metrics value owns its registry so tests and multiple daemons in one
// process do not collide on the default registerer. A nil *Metrics is valid
// and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all pipeline collectors.
type Metrics struct {
	Registry *prometheus.Registry

	Executions      *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	Busy            prometheus.Gauge
	HistorySize     prometheus.Gauge
}

// New creates the collectors on a fresh registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxtap_executions_total",
				Help: "Instructions executed, by action kind and result",
			},
			[]string{"kind", "result"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxtap_submissions_rejected_total",
				Help: "Submissions rejected before parsing, by reason",
			},
			[]string{"reason"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voxtap_backend_call_duration_seconds",
				Help:    "Automation backend call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		),
		Busy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxtap_coordinator_busy",
			Help: "1 while an instruction is executing",
		}),
		HistorySize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voxtap_history_records",
			Help: "Execution records held in memory",
		}),
	}
}

// ObserveExecution counts a completed dispatch.
func (m *Metrics) ObserveExecution(kind string, success bool) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(kind, result(success)).Inc()
}

// ObserveRejection counts a submission refused before execution.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

// ObserveBackendCall records the latency of one backend call.
func (m *Metrics) ObserveBackendCall(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.BackendDuration.WithLabelValues(op, result(err == nil)).Observe(d.Seconds())
}

// SetBusy mirrors the coordinator's busy flag.
func (m *Metrics) SetBusy(busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.Busy.Set(1)
	} else {
		m.Busy.Set(0)
	}
}

// SetHistorySize mirrors the number of records in the history log.
func (m *Metrics) SetHistorySize(n int) {
	if m == nil {
		return
	}
	m.HistorySize.Set(float64(n))
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

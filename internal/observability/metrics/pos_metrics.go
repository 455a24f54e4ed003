// Package metrics exposes operational Prometheus metrics for the register.
// These are process-health signals; the business Metrics snapshot broadcast to
// display surfaces lives in the pos domain.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"

	PaymentOutcomeAuthorized = "authorized"
	PaymentOutcomeDeclined   = "declined"

	DemoCycleCompleted = "completed"
	DemoCycleAbandoned = "abandoned"
	DemoCycleCrashed   = "crashed"
)

// Config carries the constant labels stamped onto every series.
type Config struct {
	ServiceName string
	Environment string
}

// POSMetrics captures transaction-store and demo-loop health signals.
type POSMetrics struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	payments        *prometheus.CounterVec
	paymentDuration prometheus.Histogram
	snapshotSaves   *prometheus.CounterVec
	broadcasts      prometheus.Counter
	traceBufferSize prometheus.Gauge
	demoCycles      *prometheus.CounterVec
}

var (
	posMetricsOnce sync.Once
	posMetrics     *POSMetrics
)

// POS returns the singleton metrics registry.
func POS() *POSMetrics {
	return POSWithConfig(Config{})
}

// POSWithConfig returns the singleton metrics registry using config labels.
func POSWithConfig(cfg Config) *POSMetrics {
	posMetricsOnce.Do(func() {
		posMetrics = newPOSMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return posMetrics
}

// ResetPOSMetricsForTest resets the singleton for tests.
func ResetPOSMetricsForTest() {
	posMetricsOnce = sync.Once{}
	posMetrics = nil
}

func newPOSMetrics(registerer prometheus.Registerer, cfg Config) *POSMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "tillsync"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &POSMetrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tillsync_commands_total",
			Help:        "Dispatched commands by type and outcome.",
			ConstLabels: constLabels,
		}, []string{"type", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "tillsync_command_duration_seconds",
			Help:        "Command processing latency by type.",
			Buckets:     []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"type"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tillsync_payment_attempts_total",
			Help:        "Simulated gateway attempts by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		paymentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "tillsync_payment_duration_seconds",
			Help:        "Simulated gateway round-trip latency.",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
			ConstLabels: constLabels,
		}),
		snapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tillsync_snapshot_saves_total",
			Help:        "Snapshot persistence attempts by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "tillsync_state_broadcasts_total",
			Help:        "Full-state snapshot broadcasts delivered to observers.",
			ConstLabels: constLabels,
		}),
		traceBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "tillsync_trace_buffer_events",
			Help:        "Events currently retained in the trace ring buffer.",
			ConstLabels: constLabels,
		}),
		demoCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tillsync_demo_cycles_total",
			Help:        "Demo-loop transaction cycles by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
	}

	registerer.MustRegister(
		m.commands,
		m.commandDuration,
		m.payments,
		m.paymentDuration,
		m.snapshotSaves,
		m.broadcasts,
		m.traceBufferSize,
		m.demoCycles,
	)
	return m
}

func (m *POSMetrics) IncCommand(cmdType string, success bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.commands.WithLabelValues(cmdType, outcome).Inc()
}

func (m *POSMetrics) ObserveCommandDuration(cmdType string, d time.Duration) {
	if m == nil {
		return
	}
	m.commandDuration.WithLabelValues(cmdType).Observe(d.Seconds())
}

func (m *POSMetrics) IncPayment(authorized bool) {
	if m == nil {
		return
	}
	outcome := PaymentOutcomeAuthorized
	if !authorized {
		outcome = PaymentOutcomeDeclined
	}
	m.payments.WithLabelValues(outcome).Inc()
}

func (m *POSMetrics) ObservePaymentDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.paymentDuration.Observe(d.Seconds())
}

func (m *POSMetrics) IncSnapshotSave(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.snapshotSaves.WithLabelValues(outcome).Inc()
}

func (m *POSMetrics) IncBroadcast() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}

func (m *POSMetrics) SetTraceBufferSize(n int) {
	if m == nil {
		return
	}
	m.traceBufferSize.Set(float64(n))
}

func (m *POSMetrics) IncDemoCycle(outcome string) {
	if m == nil {
		return
	}
	m.demoCycles.WithLabelValues(outcome).Inc()
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newPOSMetrics(reg, Config{ServiceName: "test", Environment: "test"})

	m.IncCommand("ADD_ITEM", true)
	m.IncCommand("ADD_ITEM", true)
	m.IncCommand("ADD_ITEM", false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("ADD_ITEM", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("ADD_ITEM", OutcomeFailure)))

	m.IncPayment(true)
	m.IncPayment(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues(PaymentOutcomeAuthorized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues(PaymentOutcomeDeclined)))

	m.IncSnapshotSave(nil)
	m.IncSnapshotSave(errors.New("disk full"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotSaves.WithLabelValues(OutcomeFailure)))

	m.SetTraceBufferSize(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.traceBufferSize))

	m.ObserveCommandDuration("ADD_ITEM", time.Millisecond)
	m.ObservePaymentDuration(time.Second)
	m.IncBroadcast()
	m.IncDemoCycle(DemoCycleCompleted)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.demoCycles.WithLabelValues(DemoCycleCompleted)))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *POSMetrics
	assert.NotPanics(t, func() {
		m.IncCommand("X", true)
		m.IncPayment(false)
		m.IncSnapshotSave(nil)
		m.IncBroadcast()
		m.SetTraceBufferSize(1)
		m.IncDemoCycle(DemoCycleCrashed)
		m.ObserveCommandDuration("X", time.Second)
		m.ObservePaymentDuration(time.Second)
	})
}

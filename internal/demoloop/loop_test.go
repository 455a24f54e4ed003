package demoloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/tillsync/internal/catalog"
	"github.com/smallbiznis/tillsync/internal/clock"
	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	"github.com/smallbiznis/tillsync/internal/trace"
)

// scriptedHost is a hand mock of the store-side port. Results answer command
// types in order of registration; unregistered types succeed.
type scriptedHost struct {
	mu       sync.Mutex
	commands []domain.Command
	results  map[domain.CommandType][]domain.Result
	status   domain.TransactionStatus
	synced   []bool
	panicOn  domain.CommandType
}

func newScriptedHost() *scriptedHost {
	return &scriptedHost{
		results: make(map[domain.CommandType][]domain.Result),
		status:  domain.StatusIdle,
	}
}

func (h *scriptedHost) Dispatch(_ context.Context, cmd domain.Command, _ string) domain.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cmd.Type == h.panicOn {
		panic("scripted panic")
	}
	h.commands = append(h.commands, cmd)
	queue := h.results[cmd.Type]
	if len(queue) == 0 {
		return domain.OK()
	}
	res := queue[0]
	h.results[cmd.Type] = queue[1:]
	return res
}

func (h *scriptedHost) State() domain.AppState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return domain.AppState{Status: h.status}
}

func (h *scriptedHost) SyncDemoLoopRunning(running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.synced = append(h.synced, running)
}

func (h *scriptedHost) commandTypes() []domain.CommandType {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]domain.CommandType, len(h.commands))
	for i, cmd := range h.commands {
		types[i] = cmd.Type
	}
	return types
}

func (h *scriptedHost) lastSynced() (bool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.synced) == 0 {
		return false, false
	}
	return h.synced[len(h.synced)-1], true
}

func fastDemoConfig() config.DemoConfig {
	cfg := config.DefaultDemoConfig()
	zero := config.DelayRange{}
	cfg.ItemDelay = zero
	cfg.PreCheckoutDelay = zero
	cfg.PostPaymentDelay = zero
	cfg.RetryDelay = zero
	cfg.ErrorRecoveryDelay = zero
	return cfg
}

func newTestLoop(t *testing.T, host *scriptedHost, cfg config.DemoConfig) *Loop {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	tracer := trace.NewService(zap.NewNop(), fake, trace.Config{Capacity: 256})

	l := New(Params{
		Log:     zap.NewNop(),
		Host:    host,
		Catalog: cat,
		Holder:  config.NewStaticDemoConfigHolder(cfg),
		Tracer:  tracer,
	})
	// Deterministic randomness: always the first pattern, first product,
	// minimum delay.
	l.roll = func() float64 { return 0 }
	l.intn = func(int) int { return 0 }
	return l
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func countType(types []domain.CommandType, want domain.CommandType) int {
	n := 0
	for _, typ := range types {
		if typ == want {
			n++
		}
	}
	return n
}

func TestCycleCompletesAnOrder(t *testing.T) {
	host := newScriptedHost()
	l := newTestLoop(t, host, fastDemoConfig())

	res := l.Start(context.Background())
	require.True(t, res.Success)

	waitFor(t, func() bool {
		return countType(host.commandTypes(), domain.CmdNewTransaction) >= 1
	})
	l.Stop()

	types := host.commandTypes()
	assert.GreaterOrEqual(t, countType(types, domain.CmdClearCart), 1)
	assert.GreaterOrEqual(t, countType(types, domain.CmdAddItem), 1)
	assert.GreaterOrEqual(t, countType(types, domain.CmdCheckout), 1)
	assert.GreaterOrEqual(t, countType(types, domain.CmdProcessPayment), 1)

	running, ok := host.lastSynced()
	require.True(t, ok)
	assert.False(t, running, "stop must sync the running flag off")
}

func TestCycleRetriesThenAbandons(t *testing.T) {
	host := newScriptedHost()
	declined := domain.Fail(domain.FailPaymentDeclined, "declined")
	host.results[domain.CmdProcessPayment] = []domain.Result{declined, declined, declined}

	l := newTestLoop(t, host, fastDemoConfig())
	require.True(t, l.Start(context.Background()).Success)

	waitFor(t, func() bool {
		return countType(host.commandTypes(), domain.CmdCancelCheckout) >= 1
	})
	l.Stop()

	types := host.commandTypes()
	assert.GreaterOrEqual(t, countType(types, domain.CmdProcessPayment), 3,
		"payment must be attempted up to the retry ceiling")
}

func TestStartIsIdempotentAndRequiresIdle(t *testing.T) {
	host := newScriptedHost()
	l := newTestLoop(t, host, fastDemoConfig())

	require.True(t, l.Start(context.Background()).Success)
	require.True(t, l.Start(context.Background()).Success, "second start is a no-op")
	l.Stop()
	l.Stop()

	host.status = domain.StatusPending
	res := l.Start(context.Background())
	require.False(t, res.Success)
	assert.Equal(t, domain.FailInvalidState, res.Code)
}

func TestStopInterruptsSleep(t *testing.T) {
	host := newScriptedHost()
	cfg := fastDemoConfig()
	cfg.PostPaymentDelay = config.DelayRange{Min: time.Hour, Max: time.Hour}

	l := newTestLoop(t, host, cfg)
	require.True(t, l.Start(context.Background()).Success)

	waitFor(t, func() bool {
		return countType(host.commandTypes(), domain.CmdProcessPayment) >= 1
	})

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a sleeping cycle")
	}
}

func TestPanicInCycleStopsLoopCoherently(t *testing.T) {
	host := newScriptedHost()
	host.panicOn = domain.CmdCheckout

	l := newTestLoop(t, host, fastDemoConfig())
	require.True(t, l.Start(context.Background()).Success)

	waitFor(t, func() bool {
		running, ok := host.lastSynced()
		return ok && !running
	})

	// A crashed loop can be restarted.
	host.panicOn = ""
	require.True(t, l.Start(context.Background()).Success)
	l.Stop()
}

func TestBuildOrderFillsCartImmediately(t *testing.T) {
	host := newScriptedHost()
	l := newTestLoop(t, host, fastDemoConfig())

	res := l.BuildOrder(context.Background())
	require.True(t, res.Success)

	types := host.commandTypes()
	assert.Equal(t, domain.CmdClearCart, types[0])
	assert.GreaterOrEqual(t, countType(types, domain.CmdAddItem), 1)
	assert.Zero(t, countType(types, domain.CmdCheckout), "build order never checks out")
}

func TestBuildOrderWithoutPatterns(t *testing.T) {
	host := newScriptedHost()
	cfg := fastDemoConfig()
	cfg.Patterns = nil

	l := newTestLoop(t, host, cfg)
	res := l.BuildOrder(context.Background())
	require.False(t, res.Success)
	assert.Equal(t, domain.FailDemoUnavailable, res.Code)
}

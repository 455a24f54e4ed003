// Package demoloop drives the register autonomously: it builds weighted
// random orders, walks them through checkout and payment with humanized
// pacing, and recovers from declined payments the way a cashier would.
package demoloop

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/tillsync/internal/catalog"
	"github.com/smallbiznis/tillsync/internal/config"
	obsmetrics "github.com/smallbiznis/tillsync/internal/observability/metrics"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	"github.com/smallbiznis/tillsync/internal/trace"
	"github.com/smallbiznis/tillsync/pkg/weighted"
)

// Params collects the loop's dependencies.
type Params struct {
	fx.In

	Log     *zap.Logger
	Host    domain.DemoHost
	Catalog *catalog.Catalog
	Holder  *config.DemoConfigHolder
	Tracer  *trace.Service
}

// Loop is the demo-loop orchestrator. It owns exactly one goroutine while
// running and submits every mutation through the host's Dispatch, so it holds
// no register state of its own.
type Loop struct {
	log     *zap.Logger
	host    domain.DemoHost
	catalog *catalog.Catalog
	holder  *config.DemoConfigHolder
	tracer  *trace.Service
	prom    *obsmetrics.POSMetrics

	// roll and intn are injectable for deterministic tests.
	roll func() float64
	intn func(int) int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ domain.DemoController = (*Loop)(nil)

func New(p Params) *Loop {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		log:     log.Named("demoloop"),
		host:    p.Host,
		catalog: p.Catalog,
		holder:  p.Holder,
		tracer:  p.Tracer,
		prom:    obsmetrics.POS(),
		roll:    rand.Float64,
		intn:    rand.IntN,
	}
}

// Start launches the loop goroutine. Starting a running loop is an idempotent
// no-op; starting mid-transaction is rejected.
func (l *Loop) Start(_ context.Context) domain.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return domain.OK()
	}
	if status := l.host.State().Status; status != domain.StatusIdle {
		return domain.Fail(domain.FailInvalidState, "Demo loop requires an idle register")
	}

	// The loop outlives the command that started it.
	ctx, cancel := context.WithCancel(context.Background())
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)

	l.log.Info("demo loop started")
	return domain.OK()
}

// Stop cancels the loop and waits for the goroutine to exit. Stopping a
// stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
	l.log.Info("demo loop stopped")
}

// BuildOrder fills the cart with one randomly patterned order immediately,
// without the loop's pacing delays.
func (l *Loop) BuildOrder(ctx context.Context) domain.Result {
	cfg := l.holder.Get()
	pattern, ok := l.pickPattern(cfg)
	if !ok {
		return domain.Fail(domain.FailDemoUnavailable, "No demo patterns configured")
	}

	if res := l.dispatch(ctx, domain.Command{Type: domain.CmdClearCart}); !res.Success {
		return res
	}
	l.emitPattern(pattern)
	added := 0
	for _, sku := range l.resolvePattern(pattern) {
		if res := l.dispatch(ctx, domain.Command{Type: domain.CmdAddItem, SKU: sku}); res.Success {
			added++
		}
	}
	if added == 0 {
		return domain.Fail(domain.FailOutOfStock, "Demo order found no available products")
	}
	return domain.OK()
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			// A crashed cycle must leave the running flags coherent.
			l.log.Error("demo loop crashed", zap.Any("panic", r))
			l.prom.IncDemoCycle(obsmetrics.DemoCycleCrashed)
		}
		l.mu.Lock()
		l.running = false
		l.cancel = nil
		l.mu.Unlock()
		l.host.SyncDemoLoopRunning(false)
		close(done)
	}()

	for ctx.Err() == nil {
		l.cycle(ctx)
	}
}

// cycle runs one order from empty cart to settled or abandoned.
func (l *Loop) cycle(ctx context.Context) {
	cfg := l.holder.Get()

	l.dispatch(ctx, domain.Command{Type: domain.CmdClearCart})

	pattern, ok := l.pickPattern(cfg)
	if !ok {
		// Nothing to do without patterns; wait for a config reload.
		l.sleep(ctx, cfg.ErrorRecoveryDelay)
		return
	}
	l.emitPattern(pattern)

	added := 0
	for _, sku := range l.resolvePattern(pattern) {
		if !l.sleep(ctx, cfg.ItemDelay) {
			return
		}
		if res := l.dispatch(ctx, domain.Command{Type: domain.CmdAddItem, SKU: sku}); res.Success {
			added++
		}
	}
	if added == 0 {
		l.prom.IncDemoCycle(obsmetrics.DemoCycleAbandoned)
		return
	}

	if !l.sleep(ctx, cfg.PreCheckoutDelay) {
		return
	}
	if res := l.dispatch(ctx, domain.Command{Type: domain.CmdCheckout}); !res.Success {
		l.prom.IncDemoCycle(obsmetrics.DemoCycleAbandoned)
		return
	}

	attempts := cfg.MaxPaymentAttempts
	if attempts <= 0 {
		attempts = 1
	}
	paid := false
	for attempt := 1; attempt <= attempts; attempt++ {
		if l.dispatch(ctx, domain.Command{Type: domain.CmdProcessPayment}).Success {
			paid = true
			break
		}
		if attempt < attempts && !l.sleep(ctx, cfg.RetryDelay) {
			return
		}
	}

	if paid {
		l.prom.IncDemoCycle(obsmetrics.DemoCycleCompleted)
		if !l.sleep(ctx, cfg.PostPaymentDelay) {
			return
		}
		l.dispatch(ctx, domain.Command{Type: domain.CmdNewTransaction})
		return
	}

	l.prom.IncDemoCycle(obsmetrics.DemoCycleAbandoned)
	if !l.sleep(ctx, cfg.ErrorRecoveryDelay) {
		return
	}
	l.dispatch(ctx, domain.Command{Type: domain.CmdCancelCheckout})
}

func (l *Loop) dispatch(ctx context.Context, cmd domain.Command) domain.Result {
	res := l.host.Dispatch(ctx, cmd, "demo-loop")
	if !res.Success {
		l.log.Debug("demo command rejected",
			zap.String("type", string(cmd.Type)),
			zap.String("code", string(res.Code)),
		)
	}
	return res
}

func (l *Loop) pickPattern(cfg config.DemoConfig) (config.OrderPattern, bool) {
	choices := make([]weighted.Choice[config.OrderPattern], 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		choices = append(choices, weighted.Choice[config.OrderPattern]{Value: p, Weight: p.Weight})
	}
	return weighted.Pick(choices, l.roll)
}

func (l *Loop) emitPattern(pattern config.OrderPattern) {
	l.tracer.Emit(trace.EventDemoAction, "demo-loop",
		trace.WithTarget("store"),
		trace.WithPayload(map[string]any{"pattern": pattern.Name}),
	)
}

func (l *Loop) resolvePattern(pattern config.OrderPattern) []string {
	var skus []string
	for _, pick := range pattern.Picks {
		products := l.catalog.ByCategory(catalog.Category(pick.Category))
		if len(products) == 0 {
			continue
		}
		for i := 0; i < pick.Count; i++ {
			skus = append(skus, products[l.intn(len(products))].SKU)
		}
	}
	return skus
}

// sleep pauses for a random duration within r, racing the timer against
// cancellation. It reports whether the full delay elapsed.
func (l *Loop) sleep(ctx context.Context, r config.DelayRange) bool {
	d := r.Min
	if span := r.Max - r.Min; span > 0 {
		d += time.Duration(l.intn(int(span) + 1))
	}
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

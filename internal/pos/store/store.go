// Package store implements the transaction store, the sole owner of register
// state. Every mutation funnels through Dispatch and runs under one mutex as
// a single atomic transition; the simulated gateway call is the only point a
// command releases the lock mid-flight, and the PROCESSING status gates every
// other mutating command while it is out.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/tillsync/internal/catalog"
	"github.com/smallbiznis/tillsync/internal/clock"
	"github.com/smallbiznis/tillsync/internal/currency"
	"github.com/smallbiznis/tillsync/internal/inventory"
	obsmetrics "github.com/smallbiznis/tillsync/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/tillsync/internal/payment/domain"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	snapdomain "github.com/smallbiznis/tillsync/internal/snapshot/domain"
	"github.com/smallbiznis/tillsync/internal/trace"
	"github.com/smallbiznis/tillsync/pkg/observer"
	"github.com/smallbiznis/tillsync/pkg/telemetry/correlation"
)

// Config tunes the store.
type Config struct {
	InitialStock      int
	LowStockThreshold int
	MaxQuantity       int
	MaxTransactions   int
	DayCheckInterval  time.Duration
	UnlimitedSKUs     []string
}

func (c Config) withDefaults() Config {
	if c.InitialStock <= 0 {
		c.InitialStock = 24
	}
	if c.LowStockThreshold <= 0 {
		c.LowStockThreshold = 5
	}
	if c.MaxQuantity <= 0 {
		c.MaxQuantity = 10
	}
	if c.MaxTransactions <= 0 {
		c.MaxTransactions = 50
	}
	if c.DayCheckInterval <= 0 {
		c.DayCheckInterval = time.Minute
	}
	return c
}

// Params collects the store's dependencies.
type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       Config
	Clock     clock.Clock
	Node      *snowflake.Node
	Catalog   *catalog.Catalog
	Gateway   paymentdomain.Gateway
	Tracer    *trace.Service
	Snapshots snapdomain.Repository `optional:"true"`
}

// Store owns AppState, the inventory ledger, the transaction log and the
// derived metrics.
type Store struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	node    *snowflake.Node
	catalog *catalog.Catalog
	gateway paymentdomain.Gateway
	tracer  *trace.Service
	snaps   snapdomain.Repository
	prom    *obsmetrics.POSMetrics
	otel    oteltrace.Tracer

	mu          sync.Mutex
	state       domain.AppState
	ledger      *inventory.Ledger
	records     []domain.TransactionRecord
	stats       domain.Metrics
	completions []time.Time
	lastDay     string

	demoMu sync.Mutex
	demo   domain.DemoController

	stateObs  *observer.List[domain.AppState]
	metricObs *observer.List[domain.Metrics]
	txObs     *observer.List[[]domain.TransactionRecord]
	invObs    *observer.List[[]domain.InventoryItem]
	noteObs   *observer.List[domain.Notification]
}

var _ domain.Store = (*Store)(nil)
var _ domain.DemoHost = (*Store)(nil)

// New builds the store, seeds the inventory ledger from the catalog and
// restores the latest snapshot when a repository is configured.
func New(p Params) (*Store, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("store")

	s := &Store{
		log:     log,
		cfg:     p.Cfg.withDefaults(),
		clock:   p.Clock,
		node:    p.Node,
		catalog: p.Catalog,
		gateway: p.Gateway,
		tracer:  p.Tracer,
		snaps:   p.Snapshots,
		prom:    obsmetrics.POS(),
		otel:    otel.Tracer("tillsync/pos"),

		stateObs:  observer.NewList[domain.AppState](log),
		metricObs: observer.NewList[domain.Metrics](log),
		txObs:     observer.NewList[[]domain.TransactionRecord](log),
		invObs:    observer.NewList[[]domain.InventoryItem](log),
		noteObs:   observer.NewList[domain.Notification](log),
	}

	s.ledger = s.seedLedger()
	s.state = domain.AppState{Status: domain.StatusIdle}

	now := s.clock.Now()
	s.lastDay = dayOf(now)
	if err := s.restore(context.Background()); err != nil {
		// A broken snapshot never blocks startup; the store degrades to
		// the freshly seeded in-memory state.
		log.Warn("snapshot restore failed; starting fresh", zap.Error(err))
	}
	s.recomputeMetricsLocked(now)
	return s, nil
}

func (s *Store) seedLedger() *inventory.Ledger {
	unlimited := make(map[string]struct{}, len(s.cfg.UnlimitedSKUs))
	for _, sku := range s.cfg.UnlimitedSKUs {
		unlimited[sku] = struct{}{}
	}
	stock := make(map[string]int, s.catalog.Len())
	for _, p := range s.catalog.Products() {
		if _, ok := unlimited[p.SKU]; ok {
			stock[p.SKU] = inventory.Unlimited
		} else {
			stock[p.SKU] = s.cfg.InitialStock
		}
	}
	return inventory.New(stock)
}

// RegisterDemoController wires the demo-loop orchestrator in after
// construction, which keeps the store free of a dependency cycle.
func (s *Store) RegisterDemoController(dc domain.DemoController) {
	s.demoMu.Lock()
	defer s.demoMu.Unlock()
	s.demo = dc
}

func (s *Store) demoController() domain.DemoController {
	s.demoMu.Lock()
	defer s.demoMu.Unlock()
	return s.demo
}

// Dispatch validates and applies cmd as one atomic transition.
func (s *Store) Dispatch(ctx context.Context, cmd domain.Command, source string) domain.Result {
	ctx, cid := correlation.EnsureCorrelationID(ctx)
	ctx, span := s.otel.Start(ctx, "pos.dispatch", oteltrace.WithAttributes(
		attribute.String("command.type", string(cmd.Type)),
		attribute.String("command.source", source),
	))
	defer span.End()

	start := time.Now()
	s.tracer.Emit(trace.EventCommandReceived, source,
		trace.WithTarget("store"),
		trace.WithPayload(commandPayload(cmd)),
		trace.WithCorrelation(cid),
	)

	res := s.apply(ctx, cmd, source)

	elapsed := time.Since(start)
	s.prom.IncCommand(string(cmd.Type), res.Success)
	s.prom.ObserveCommandDuration(string(cmd.Type), elapsed)
	s.tracer.Emit(trace.EventCommandProcessed, "store",
		trace.WithTarget(source),
		trace.WithPayload(resultPayload(cmd, res)),
		trace.WithLatency(elapsed),
		trace.WithCorrelation(cid),
	)
	if !res.Success {
		span.SetAttributes(attribute.String("command.failure", string(res.Code)))
		s.log.Debug("command rejected",
			zap.String("type", string(cmd.Type)),
			zap.String("source", source),
			zap.String("code", string(res.Code)),
			zap.String("error", res.Error),
		)
	}
	return res
}

func (s *Store) apply(ctx context.Context, cmd domain.Command, source string) domain.Result {
	switch cmd.Type {
	case domain.CmdDemoOrder, domain.CmdStartDemoLoop, domain.CmdStopDemoLoop:
		// Demo commands run without the store lock; the orchestrator
		// dispatches back into the store and Stop waits on its goroutine.
		return s.applyDemo(ctx, cmd)
	case domain.CmdProcessPayment, domain.CmdRetryPayment:
		return s.processPayment(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch cmd.Type {
	case domain.CmdAddItem:
		return s.addItemLocked(cmd.SKU)
	case domain.CmdRemoveItem:
		return s.removeItemLocked(cmd.SKU, cmd.Index)
	case domain.CmdUpdateQuantity:
		return s.updateQuantityLocked(cmd)
	case domain.CmdClearCart:
		return s.clearCartLocked()
	case domain.CmdCheckout:
		return s.startCheckoutLocked()
	case domain.CmdCancelCheckout:
		return s.cancelCheckoutLocked()
	case domain.CmdNewTransaction:
		return s.resetTransactionLocked()
	default:
		return domain.Fail(domain.FailUnknownCommand, fmt.Sprintf("Unknown command: %s", cmd.Type))
	}
}

func (s *Store) applyDemo(ctx context.Context, cmd domain.Command) domain.Result {
	dc := s.demoController()
	if dc == nil {
		return domain.Fail(domain.FailDemoUnavailable, "Demo loop is not available")
	}
	switch cmd.Type {
	case domain.CmdStartDemoLoop:
		res := dc.Start(ctx)
		if res.Success {
			s.SyncDemoLoopRunning(true)
		}
		return res
	case domain.CmdStopDemoLoop:
		dc.Stop()
		s.SyncDemoLoopRunning(false)
		return domain.OK()
	default:
		return dc.BuildOrder(ctx)
	}
}

// SyncDemoLoopRunning reconciles the running flag when the loop starts, stops
// or dies on its own. A no-change call does not bump the version.
func (s *Store) SyncDemoLoopRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.DemoLoopRunning == running {
		return
	}
	s.state.DemoLoopRunning = running
	s.bumpAndBroadcastLocked()
}

// State returns a defensive copy of the current application state.
func (s *Store) State() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateCopyLocked()
}

// Metrics returns the derived metrics.
func (s *Store) Metrics() domain.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Transactions returns a copy of the retained transaction log, oldest first.
func (s *Store) Transactions() []domain.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordsCopyLocked()
}

// InventoryItems returns the stock view in catalog order.
func (s *Store) InventoryItems() []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventoryItemsLocked()
}

func (s *Store) OnState(fn func(domain.AppState)) (unsubscribe func()) {
	return s.stateObs.Subscribe(fn)
}

func (s *Store) OnMetrics(fn func(domain.Metrics)) (unsubscribe func()) {
	return s.metricObs.Subscribe(fn)
}

func (s *Store) OnTransactions(fn func([]domain.TransactionRecord)) (unsubscribe func()) {
	return s.txObs.Subscribe(fn)
}

func (s *Store) OnInventory(fn func([]domain.InventoryItem)) (unsubscribe func()) {
	return s.invObs.Subscribe(fn)
}

func (s *Store) OnNotification(fn func(domain.Notification)) (unsubscribe func()) {
	return s.noteObs.Subscribe(fn)
}

func (s *Store) stateCopyLocked() domain.AppState {
	snap := s.state
	snap.Cart = make([]domain.CartItem, len(s.state.Cart))
	copy(snap.Cart, s.state.Cart)
	return snap
}

func (s *Store) recordsCopyLocked() []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, len(s.records))
	for i, rec := range s.records {
		items := make([]domain.CartItem, len(rec.Items))
		copy(items, rec.Items)
		rec.Items = items
		out[i] = rec
	}
	return out
}

func (s *Store) inventoryItemsLocked() []domain.InventoryItem {
	items := make([]domain.InventoryItem, 0, s.catalog.Len())
	for _, p := range s.catalog.Products() {
		stock, ok := s.ledger.Stock(p.SKU)
		if !ok {
			continue
		}
		unlimited := stock == inventory.Unlimited
		items = append(items, domain.InventoryItem{
			SKU:       p.SKU,
			Name:      p.Name,
			Stock:     stock,
			Unlimited: unlimited,
			LowStock:  !unlimited && stock <= s.cfg.LowStockThreshold,
		})
	}
	return items
}

// bumpAndBroadcastLocked is the single place Version advances.
func (s *Store) bumpAndBroadcastLocked() {
	s.state.Version++
	s.broadcastStateLocked()
}

func (s *Store) broadcastStateLocked() {
	snap := s.stateCopyLocked()
	s.prom.IncBroadcast()
	s.tracer.Emit(trace.EventStateBroadcast, "store", trace.WithPayload(map[string]any{
		"version": snap.Version,
		"status":  string(snap.Status),
		"items":   snap.ItemCount(),
	}))
	s.stateObs.Notify(snap)
}

func (s *Store) broadcastInventoryLocked() {
	s.invObs.Notify(s.inventoryItemsLocked())
}

func (s *Store) broadcastTransactionsLocked() {
	s.txObs.Notify(s.recordsCopyLocked())
}

func (s *Store) broadcastMetricsLocked() {
	s.metricObs.Notify(s.stats)
}

func (s *Store) notifyLocked(level domain.NotificationLevel, msg string) {
	s.noteObs.Notify(domain.Notification{
		Level:   level,
		Message: msg,
		At:      s.clock.Now(),
	})
}

func (s *Store) warnLowStockLocked(sku string) {
	stock, ok := s.ledger.Stock(sku)
	if !ok || stock == inventory.Unlimited || stock > s.cfg.LowStockThreshold {
		return
	}
	name := sku
	if p, ok := s.catalog.Lookup(sku); ok {
		name = p.Name
	}
	s.notifyLocked(domain.NoticeWarning, fmt.Sprintf("Low stock: %s (%d left)", name, stock))
}

func (s *Store) totalLocked() currency.Cents {
	var total currency.Cents
	for _, item := range s.state.Cart {
		total = total.Add(item.Subtotal())
	}
	return total
}

func commandPayload(cmd domain.Command) map[string]any {
	payload := map[string]any{"type": string(cmd.Type)}
	if cmd.SKU != "" {
		payload["sku"] = cmd.SKU
	}
	if cmd.Index != nil {
		payload["index"] = *cmd.Index
	}
	if cmd.Quantity != 0 {
		payload["quantity"] = cmd.Quantity
	}
	return payload
}

func resultPayload(cmd domain.Command, res domain.Result) map[string]any {
	payload := map[string]any{
		"type":    string(cmd.Type),
		"success": res.Success,
	}
	if res.Code != "" {
		payload["code"] = string(res.Code)
	}
	return payload
}

func dayOf(t time.Time) string {
	return t.Format("2006-01-02")
}

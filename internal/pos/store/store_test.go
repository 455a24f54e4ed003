package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/tillsync/internal/catalog"
	"github.com/smallbiznis/tillsync/internal/clock"
	"github.com/smallbiznis/tillsync/internal/currency"
	paymentdomain "github.com/smallbiznis/tillsync/internal/payment/domain"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	snapdomain "github.com/smallbiznis/tillsync/internal/snapshot/domain"
	"github.com/smallbiznis/tillsync/internal/trace"
)

// scriptedGateway answers charges from a queue of outcomes; an exhausted
// queue authorizes.
type scriptedGateway struct {
	outcomes []paymentdomain.Outcome
	requests []paymentdomain.Request
}

func (g *scriptedGateway) Charge(_ context.Context, req paymentdomain.Request) paymentdomain.Outcome {
	g.requests = append(g.requests, req)
	if len(g.outcomes) == 0 {
		return paymentdomain.Outcome{Authorized: true, Reference: "AUTH-TEST"}
	}
	out := g.outcomes[0]
	g.outcomes = g.outcomes[1:]
	return out
}

func decline(msg string) paymentdomain.Outcome {
	return paymentdomain.Outcome{Authorized: false, Message: msg}
}

type storeFixture struct {
	store   *Store
	clock   *clock.FakeClock
	gateway *scriptedGateway
	tracer  *trace.Service
}

func newFixture(t *testing.T, mutate ...func(*Params)) *storeFixture {
	t.Helper()

	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cat, err := catalog.Default()
	require.NoError(t, err)
	gw := &scriptedGateway{}
	tracer := trace.NewService(zap.NewNop(), fake, trace.Config{Capacity: 2048, Slack: 64})

	p := Params{
		Log:     zap.NewNop(),
		Cfg:     Config{InitialStock: 5, LowStockThreshold: 2, MaxQuantity: 3, MaxTransactions: 4, UnlimitedSKUs: []string{"WATER-BOTTLE"}},
		Clock:   fake,
		Node:    node,
		Catalog: cat,
		Gateway: gw,
		Tracer:  tracer,
	}
	for _, fn := range mutate {
		fn(&p)
	}
	s, err := New(p)
	require.NoError(t, err)
	return &storeFixture{store: s, clock: fake, gateway: gw, tracer: tracer}
}

func (f *storeFixture) dispatch(t *testing.T, cmd domain.Command) domain.Result {
	t.Helper()
	return f.store.Dispatch(context.Background(), cmd, "test")
}

func (f *storeFixture) mustDispatch(t *testing.T, cmd domain.Command) {
	t.Helper()
	res := f.dispatch(t, cmd)
	require.True(t, res.Success, "command %s rejected: %s (%s)", cmd.Type, res.Error, res.Code)
}

func add(sku string) domain.Command {
	return domain.Command{Type: domain.CmdAddItem, SKU: sku}
}

func idx(i int) *int { return &i }

func stockOf(t *testing.T, s *Store, sku string) int {
	t.Helper()
	for _, item := range s.InventoryItems() {
		if item.SKU == sku {
			return item.Stock
		}
	}
	t.Fatalf("sku %s not in inventory view", sku)
	return 0
}

func TestAddItemMergesLinesAndReservesStock(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("COLA-2L"))

	state := f.store.State()
	require.Len(t, state.Cart, 2)
	assert.Equal(t, 2, state.Cart[0].Quantity)
	assert.Equal(t, "CLASSIC-PEPPERONI", state.Cart[0].SKU)
	assert.NotEmpty(t, state.Cart[0].ID)
	assert.Equal(t, 3, stockOf(t, f.store, "CLASSIC-PEPPERONI"))
	assert.Equal(t, 4, stockOf(t, f.store, "COLA-2L"))
}

func TestAddItemComboTotal(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("COLA-2L"))

	state := f.store.State()
	assert.Equal(t, currency.FromCents(1497), state.Total)
	assert.Equal(t, "$14.97", state.Total.Format())
}

func TestAddItemUnknownProduct(t *testing.T) {
	f := newFixture(t)

	res := f.dispatch(t, add("NO-SUCH-SKU"))
	require.False(t, res.Success)
	assert.Equal(t, domain.FailUnknownProduct, res.Code)
	assert.Equal(t, uint64(0), f.store.State().Version)
}

func TestAddItemMaxQuantityReached(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		f.mustDispatch(t, add("COLA-2L"))
	}
	res := f.dispatch(t, add("COLA-2L"))
	require.False(t, res.Success)
	assert.Equal(t, domain.FailMaxQuantityReached, res.Code)
	assert.Equal(t, 2, stockOf(t, f.store, "COLA-2L"))
}

func TestAddItemOutOfStockLeavesEverythingUnchanged(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Cfg.InitialStock = 1
		p.Cfg.MaxQuantity = 10
	})

	f.mustDispatch(t, add("COLA-2L"))
	before := f.store.State()

	res := f.dispatch(t, add("COLA-2L"))
	require.False(t, res.Success)
	assert.Equal(t, domain.FailOutOfStock, res.Code)

	after := f.store.State()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Cart, after.Cart)
	assert.Equal(t, 0, stockOf(t, f.store, "COLA-2L"))
}

func TestUnlimitedSKUNeverDecrements(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("WATER-BOTTLE"))
	f.mustDispatch(t, add("WATER-BOTTLE"))

	for _, item := range f.store.InventoryItems() {
		if item.SKU == "WATER-BOTTLE" {
			assert.True(t, item.Unlimited)
			assert.False(t, item.LowStock)
			return
		}
	}
	t.Fatal("WATER-BOTTLE missing from inventory view")
}

func TestRemoveItemByIndexAndBySKU(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("COLA-2L"))

	f.mustDispatch(t, domain.Command{Type: domain.CmdRemoveItem, Index: idx(1)})
	state := f.store.State()
	require.Len(t, state.Cart, 1)
	assert.Equal(t, 5, stockOf(t, f.store, "COLA-2L"))

	f.mustDispatch(t, domain.Command{Type: domain.CmdRemoveItem, SKU: "CLASSIC-PEPPERONI"})
	assert.Empty(t, f.store.State().Cart)
	assert.Equal(t, 5, stockOf(t, f.store, "CLASSIC-PEPPERONI"))
}

func TestRemoveItemNotFound(t *testing.T) {
	f := newFixture(t)

	res := f.dispatch(t, domain.Command{Type: domain.CmdRemoveItem, Index: idx(3)})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailNotFound, res.Code)

	res = f.dispatch(t, domain.Command{Type: domain.CmdRemoveItem, SKU: "COLA-2L"})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailNotFound, res.Code)
}

func TestUpdateQuantityAppliesSignedDelta(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 3})
	assert.Equal(t, 2, stockOf(t, f.store, "COLA-2L"))

	f.mustDispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 1})
	assert.Equal(t, 4, stockOf(t, f.store, "COLA-2L"))
	assert.Equal(t, 1, f.store.State().Cart[0].Quantity)
}

func TestUpdateQuantityValidation(t *testing.T) {
	f := newFixture(t)
	f.mustDispatch(t, add("COLA-2L"))

	res := f.dispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(5), Quantity: 2})
	assert.Equal(t, domain.FailInvalidIndex, res.Code)

	res = f.dispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "CLASSIC-PEPPERONI", Index: idx(0), Quantity: 2})
	assert.Equal(t, domain.FailSkuMismatch, res.Code)

	res = f.dispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 4})
	assert.Equal(t, domain.FailMaxQuantityExceeded, res.Code)

	res = f.dispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 3})
	require.True(t, res.Success)
	res = f.dispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 3})
	require.True(t, res.Success, "same-quantity update is a no-op delta")
}

func TestUpdateQuantityInsufficientStock(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Cfg.InitialStock = 2
		p.Cfg.MaxQuantity = 10
	})

	f.mustDispatch(t, add("COLA-2L"))
	res := f.dispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 3})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailInsufficientStock, res.Code)
	assert.Equal(t, 1, f.store.State().Cart[0].Quantity)
	assert.Equal(t, 1, stockOf(t, f.store, "COLA-2L"))
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 0})

	assert.Empty(t, f.store.State().Cart)
	assert.Equal(t, 5, stockOf(t, f.store, "COLA-2L"))
}

func TestConservationAcrossMutationSequence(t *testing.T) {
	f := newFixture(t)

	check := func() {
		t.Helper()
		stock := stockOf(t, f.store, "COLA-2L")
		inCart := 0
		for _, line := range f.store.State().Cart {
			if line.SKU == "COLA-2L" {
				inCart += line.Quantity
			}
		}
		assert.Equal(t, 5, stock+inCart, "stock plus cart must equal initial stock")
	}

	f.mustDispatch(t, add("COLA-2L"))
	check()
	f.mustDispatch(t, add("COLA-2L"))
	check()
	f.mustDispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 3})
	check()
	f.mustDispatch(t, domain.Command{Type: domain.CmdUpdateQuantity, SKU: "COLA-2L", Index: idx(0), Quantity: 1})
	check()
	f.mustDispatch(t, domain.Command{Type: domain.CmdRemoveItem, SKU: "COLA-2L"})
	check()
	assert.Equal(t, 5, stockOf(t, f.store, "COLA-2L"))
}

func TestVersionStrictlyIncreasesOnSuccessOnly(t *testing.T) {
	f := newFixture(t)

	v := f.store.State().Version
	f.mustDispatch(t, add("COLA-2L"))
	require.Greater(t, f.store.State().Version, v)
	v = f.store.State().Version

	res := f.dispatch(t, add("NO-SUCH-SKU"))
	require.False(t, res.Success)
	assert.Equal(t, v, f.store.State().Version)

	res = f.dispatch(t, domain.Command{Type: domain.CmdNewTransaction})
	require.False(t, res.Success)
	assert.Equal(t, v, f.store.State().Version)
}

func TestClearCartReleasesReservationsAndForcesIdle(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	require.Equal(t, domain.StatusPending, f.store.State().Status)

	f.mustDispatch(t, domain.Command{Type: domain.CmdClearCart})
	state := f.store.State()
	assert.Empty(t, state.Cart)
	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.Equal(t, currency.Cents(0), state.Total)
	assert.Equal(t, 5, stockOf(t, f.store, "COLA-2L"))
	assert.Equal(t, 5, stockOf(t, f.store, "CLASSIC-PEPPERONI"))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	res := f.dispatch(t, domain.Command{Type: domain.CmdCheckout})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailEmptyCart, res.Code)
	assert.Equal(t, "Cart is empty", res.Error)
	assert.Equal(t, domain.StatusIdle, f.store.State().Status)
}

func TestCheckoutLocksCartMutations(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})

	res := f.dispatch(t, add("COLA-2L"))
	assert.Equal(t, domain.FailTransactionInProgress, res.Code)
	res = f.dispatch(t, domain.Command{Type: domain.CmdCheckout})
	assert.Equal(t, domain.FailTransactionInProgress, res.Code)
}

func TestPaymentSuccessSettlesTransaction(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("CLASSIC-PEPPERONI"))
	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})

	state := f.store.State()
	assert.Equal(t, domain.StatusPaid, state.Status)
	assert.Empty(t, state.Cart)
	assert.Equal(t, 0, state.RetryCount)
	assert.NotEmpty(t, state.TransactionID)

	records := f.store.Transactions()
	require.Len(t, records, 1)
	assert.Equal(t, currency.FromCents(1497), records[0].Total)
	assert.Equal(t, domain.RecordCompleted, records[0].Status)
	assert.Equal(t, 3, records[0].ItemCount())

	// Sold units stay decremented.
	assert.Equal(t, 3, stockOf(t, f.store, "CLASSIC-PEPPERONI"))

	metrics := f.store.Metrics()
	assert.Equal(t, 1, metrics.TodayCount)
	assert.Equal(t, currency.FromCents(1497), metrics.TodayRevenue)
	assert.Equal(t, 1, metrics.TransactionsPerMinute)
}

func TestPaymentDeclineEntersErrorAndRetries(t *testing.T) {
	f := newFixture(t)
	f.gateway.outcomes = []paymentdomain.Outcome{
		decline("Card declined"),
		decline("Network timeout"),
	}

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})

	res := f.dispatch(t, domain.Command{Type: domain.CmdProcessPayment})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailPaymentDeclined, res.Code)
	state := f.store.State()
	assert.Equal(t, domain.StatusError, state.Status)
	assert.Equal(t, "Card declined", state.ErrorMessage)
	assert.Equal(t, 1, state.RetryCount)
	txnID := state.TransactionID
	require.NotEmpty(t, txnID)
	require.Len(t, state.Cart, 1, "cart and reservations survive a decline")

	// Retry reuses the transaction ID and bumps the attempt counter.
	res = f.dispatch(t, domain.Command{Type: domain.CmdRetryPayment})
	require.False(t, res.Success)
	state = f.store.State()
	assert.Equal(t, 2, state.RetryCount)
	assert.Equal(t, txnID, state.TransactionID)
	require.Len(t, f.gateway.requests, 2)
	assert.Equal(t, 1, f.gateway.requests[0].Attempt)
	assert.Equal(t, 2, f.gateway.requests[1].Attempt)

	// Third attempt succeeds under the same ID.
	f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})
	assert.Equal(t, domain.StatusPaid, f.store.State().Status)
	records := f.store.Transactions()
	require.Len(t, records, 1)
	assert.Equal(t, txnID, records[0].ID)
}

func TestThreeDeclinesNeverSilentlySucceed(t *testing.T) {
	f := newFixture(t)
	f.gateway.outcomes = []paymentdomain.Outcome{
		decline("declined"), decline("declined"), decline("declined"),
	}

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	for i := 0; i < 3; i++ {
		res := f.dispatch(t, domain.Command{Type: domain.CmdProcessPayment})
		require.False(t, res.Success)
		assert.Equal(t, domain.StatusError, f.store.State().Status)
	}
	assert.Equal(t, 3, f.store.State().RetryCount)
	assert.Empty(t, f.store.Transactions())
}

func TestProcessPaymentOutsideCheckoutIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.mustDispatch(t, add("COLA-2L"))
	before := f.store.State()

	res := f.dispatch(t, domain.Command{Type: domain.CmdProcessPayment})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailInvalidState, res.Code)

	after := f.store.State()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Status, after.Status)
	assert.Empty(t, f.gateway.requests)

	for _, evt := range f.tracer.History(0) {
		assert.NotEqual(t, trace.EventPaymentStart, evt.Type)
		assert.NotEqual(t, trace.EventPaymentComplete, evt.Type)
	}
}

func TestCancelCheckoutKeepsCartAndReservations(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	f.mustDispatch(t, domain.Command{Type: domain.CmdCancelCheckout})

	state := f.store.State()
	assert.Equal(t, domain.StatusIdle, state.Status)
	require.Len(t, state.Cart, 1)
	assert.Equal(t, 4, stockOf(t, f.store, "COLA-2L"), "cancel must not release reservations")
}

func TestCancelCheckoutFromIdleRejected(t *testing.T) {
	f := newFixture(t)

	res := f.dispatch(t, domain.Command{Type: domain.CmdCancelCheckout})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailInvalidState, res.Code)
}

func TestResetTransactionAsymmetry(t *testing.T) {
	f := newFixture(t)

	// From PAID the cart is already empty.
	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})
	f.mustDispatch(t, domain.Command{Type: domain.CmdNewTransaction})
	state := f.store.State()
	assert.Equal(t, domain.StatusIdle, state.Status)
	assert.Empty(t, state.Cart)
	assert.Empty(t, state.TransactionID)

	// From ERROR the cart is left untouched.
	f.gateway.outcomes = []paymentdomain.Outcome{decline("declined")}
	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	f.dispatch(t, domain.Command{Type: domain.CmdProcessPayment})
	require.Equal(t, domain.StatusError, f.store.State().Status)

	f.mustDispatch(t, domain.Command{Type: domain.CmdNewTransaction})
	state = f.store.State()
	assert.Equal(t, domain.StatusIdle, state.Status)
	require.Len(t, state.Cart, 1, "reset never touches the cart")
	assert.Equal(t, 0, state.RetryCount)
	assert.Empty(t, state.TransactionID)
}

func TestMetricsOverEmptyLog(t *testing.T) {
	f := newFixture(t)

	m := f.store.Metrics()
	assert.Zero(t, m.TransactionsPerMinute)
	assert.Zero(t, m.AverageCartSize)
	assert.Zero(t, m.TodayCount)
	assert.Zero(t, m.TodayRevenue)
	assert.False(t, m.LastUpdated.IsZero())
}

func TestMetricsWindowAndDayBoundary(t *testing.T) {
	f := newFixture(t)

	completeOrder := func() {
		f.mustDispatch(t, add("COLA-2L"))
		f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
		f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})
		f.mustDispatch(t, domain.Command{Type: domain.CmdNewTransaction})
	}

	completeOrder()
	completeOrder()
	m := f.store.Metrics()
	assert.Equal(t, 2, m.TransactionsPerMinute)
	assert.Equal(t, 2, m.TodayCount)

	// Rolling minute expires.
	f.clock.Advance(2 * time.Minute)
	completeOrder()
	m = f.store.Metrics()
	assert.Equal(t, 1, m.TransactionsPerMinute)
	assert.Equal(t, 3, m.TodayCount)
	assert.InDelta(t, 1.0, m.AverageCartSize, 0.001)

	// Day boundary resets day-scoped fields only.
	f.clock.Advance(24 * time.Hour)
	f.store.CheckDayBoundary()
	m = f.store.Metrics()
	assert.Zero(t, m.TodayCount)
	assert.Zero(t, m.TodayRevenue)
	assert.InDelta(t, 1.0, m.AverageCartSize, 0.001)
	assert.Len(t, f.store.Transactions(), 3)
}

func TestTransactionLogEviction(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 6; i++ {
		f.mustDispatch(t, add("WATER-BOTTLE"))
		f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
		f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})
		f.mustDispatch(t, domain.Command{Type: domain.CmdNewTransaction})
	}

	records := f.store.Transactions()
	assert.Len(t, records, 4, "log keeps only the newest MaxTransactions records")
}

func TestObserversReceiveSnapshots(t *testing.T) {
	f := newFixture(t)

	var states []domain.AppState
	var invViews int
	unsubState := f.store.OnState(func(s domain.AppState) { states = append(states, s) })
	f.store.OnInventory(func([]domain.InventoryItem) { invViews++ })

	f.mustDispatch(t, add("COLA-2L"))
	require.NotEmpty(t, states)
	assert.Greater(t, invViews, 0)

	last := states[len(states)-1]
	for i := 1; i < len(states); i++ {
		assert.Greater(t, states[i].Version, states[i-1].Version)
	}

	// Mutating the delivered snapshot must not leak into the store.
	if len(last.Cart) > 0 {
		last.Cart[0].Quantity = 99
		assert.Equal(t, 1, f.store.State().Cart[0].Quantity)
	}

	unsubState()
	before := len(states)
	f.mustDispatch(t, add("COLA-2L"))
	assert.Equal(t, before, len(states))
}

func TestLowStockNotification(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Cfg.InitialStock = 3
		p.Cfg.LowStockThreshold = 2
	})

	var notes []domain.Notification
	f.store.OnNotification(func(n domain.Notification) { notes = append(notes, n) })

	f.mustDispatch(t, add("COLA-2L"))
	require.NotEmpty(t, notes)
	assert.Equal(t, domain.NoticeWarning, notes[0].Level)
	assert.Contains(t, notes[0].Message, "Low stock")
}

func TestDispatchEmitsCommandTraceEvents(t *testing.T) {
	f := newFixture(t)

	f.mustDispatch(t, add("COLA-2L"))

	var received, processed bool
	for _, evt := range f.tracer.History(0) {
		switch evt.Type {
		case trace.EventCommandReceived:
			received = true
			assert.Equal(t, "test", evt.Source)
			assert.NotEmpty(t, evt.CorrelationID)
		case trace.EventCommandProcessed:
			processed = true
			assert.NotNil(t, evt.Latency)
		}
	}
	assert.True(t, received)
	assert.True(t, processed)
}

func TestUnknownCommandRejected(t *testing.T) {
	f := newFixture(t)

	res := f.dispatch(t, domain.Command{Type: "TELEPORT"})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailUnknownCommand, res.Code)
}

func TestDemoCommandsWithoutControllerFail(t *testing.T) {
	f := newFixture(t)

	res := f.dispatch(t, domain.Command{Type: domain.CmdStartDemoLoop})
	require.False(t, res.Success)
	assert.Equal(t, domain.FailDemoUnavailable, res.Code)
}

// fakeDemo is a hand mock of the demo controller port.
type fakeDemo struct {
	started int
	stopped int
}

func (d *fakeDemo) Start(context.Context) domain.Result { d.started++; return domain.OK() }
func (d *fakeDemo) Stop()                               { d.stopped++ }
func (d *fakeDemo) BuildOrder(context.Context) domain.Result {
	return domain.OK()
}

func TestDemoCommandsRouteThroughController(t *testing.T) {
	f := newFixture(t)
	demo := &fakeDemo{}
	f.store.RegisterDemoController(demo)

	f.mustDispatch(t, domain.Command{Type: domain.CmdStartDemoLoop})
	assert.Equal(t, 1, demo.started)
	assert.True(t, f.store.State().DemoLoopRunning)

	f.mustDispatch(t, domain.Command{Type: domain.CmdStopDemoLoop})
	assert.Equal(t, 1, demo.stopped)
	assert.False(t, f.store.State().DemoLoopRunning)

	f.mustDispatch(t, domain.Command{Type: domain.CmdDemoOrder})
}

// recordingRepo is a hand mock of the snapshot repository.
type recordingRepo struct {
	loaded *snapdomain.Snapshot
	saved  []snapdomain.Snapshot
	errOn  error
}

func (r *recordingRepo) Load(context.Context) (*snapdomain.Snapshot, error) {
	return r.loaded, nil
}

func (r *recordingRepo) Save(_ context.Context, snap snapdomain.Snapshot) error {
	if r.errOn != nil {
		return r.errOn
	}
	r.saved = append(r.saved, snap)
	return nil
}

func TestSnapshotSavedAfterSettlement(t *testing.T) {
	repo := &recordingRepo{}
	f := newFixture(t, func(p *Params) { p.Snapshots = repo })

	f.mustDispatch(t, add("COLA-2L"))
	assert.Empty(t, repo.saved, "cart mutations are not durable")

	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})

	require.Len(t, repo.saved, 1)
	snap := repo.saved[0]
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, 4, snap.Inventory["COLA-2L"])
	assert.Equal(t, 1, snap.Metrics.TodayCount)
}

func TestSnapshotSaveFailureDegradesWithWarning(t *testing.T) {
	repo := &recordingRepo{errOn: fmt.Errorf("disk full")}
	var notes []domain.Notification

	f := newFixture(t, func(p *Params) { p.Snapshots = repo })
	f.store.OnNotification(func(n domain.Notification) { notes = append(notes, n) })

	f.mustDispatch(t, add("COLA-2L"))
	f.mustDispatch(t, domain.Command{Type: domain.CmdCheckout})
	f.mustDispatch(t, domain.Command{Type: domain.CmdProcessPayment})

	assert.Equal(t, domain.StatusPaid, f.store.State().Status, "save failure never fails the payment")
	require.NotEmpty(t, notes)
	warned := false
	for _, n := range notes {
		if n.Level == domain.NoticeWarning {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestSnapshotRestoredOnConstruction(t *testing.T) {
	ts := time.Date(2026, 3, 14, 8, 59, 30, 0, time.UTC)
	repo := &recordingRepo{loaded: &snapdomain.Snapshot{
		Transactions: []domain.TransactionRecord{{
			ID:        "42",
			Timestamp: ts,
			Items:     []domain.CartItem{{ID: "a", SKU: "COLA-2L", Name: "Cola 2L", UnitPrice: currency.FromCents(299), Quantity: 2}},
			Total:     currency.FromCents(598),
			Status:    domain.RecordCompleted,
		}},
		Inventory: map[string]int{"COLA-2L": 1},
	}}

	f := newFixture(t, func(p *Params) { p.Snapshots = repo })

	records := f.store.Transactions()
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0].ID)
	assert.Equal(t, 1, stockOf(t, f.store, "COLA-2L"))

	m := f.store.Metrics()
	assert.Equal(t, 1, m.TodayCount)
	assert.Equal(t, currency.FromCents(598), m.TodayRevenue)
	assert.Equal(t, 1, m.TransactionsPerMinute, "completion 30s ago is inside the rolling minute")
}

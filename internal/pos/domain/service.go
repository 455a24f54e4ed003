package domain

import (
	"context"
)

// Store is the sole owner and mutator of AppState, the inventory view, the
// transaction log and the metrics. All mutation funnels through Dispatch.
type Store interface {
	// Dispatch validates and applies cmd, identifying the submitter by
	// source ("cashier", "customer-display", "demo-loop", ...).
	Dispatch(ctx context.Context, cmd Command, source string) Result

	// Read accessors return defensive copies; internal state is never
	// exposed by reference.
	State() AppState
	Metrics() Metrics
	Transactions() []TransactionRecord
	InventoryItems() []InventoryItem

	// Observer registration. Callbacks run synchronously on the mutating
	// goroutine and must not dispatch back into the store.
	OnState(fn func(AppState)) (unsubscribe func())
	OnMetrics(fn func(Metrics)) (unsubscribe func())
	OnTransactions(fn func([]TransactionRecord)) (unsubscribe func())
	OnInventory(fn func([]InventoryItem)) (unsubscribe func())
	OnNotification(fn func(Notification)) (unsubscribe func())
}

// DemoController is the narrow port the store uses to drive the demo-loop
// orchestrator. The loop is registered with the store rather than imported by
// it, which keeps the store free of a dependency cycle.
type DemoController interface {
	// Start begins the autonomous loop; it must be an idempotent no-op
	// when the loop is already running and must reject starts while the
	// store is mid-transaction.
	Start(ctx context.Context) Result
	// Stop cancels the loop and waits for the cycle goroutine to exit.
	Stop()
	// BuildOrder fills the cart with one randomly patterned order
	// immediately, without the loop's pacing delays.
	BuildOrder(ctx context.Context) Result
}

// DemoHost is the store-side surface the orchestrator needs: command
// submission plus the running-flag synchronization used when the loop exits
// on its own (cancellation or recovered panic).
type DemoHost interface {
	Dispatch(ctx context.Context, cmd Command, source string) Result
	State() AppState
	SyncDemoLoopRunning(running bool)
}

// Package inventory tracks per-SKU stock counters. A reservation is the
// decrement performed when an item enters a cart; it is released when the
// line is removed or the cart cleared. Unlimited stock uses a sentinel value
// exempt from all increment/decrement logic.
package inventory

import (
	"errors"
	"sync"
)

// Unlimited marks a SKU whose stock is never decremented or restored.
const Unlimited = -1

var (
	ErrUnknownSKU        = errors.New("unknown_sku")
	ErrOutOfStock        = errors.New("out_of_stock")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// Ledger holds the stock counters. All methods are safe for concurrent use,
// though in practice the transaction store serializes access.
type Ledger struct {
	mu    sync.Mutex
	stock map[string]int
}

// New copies the provided stock map into a fresh ledger.
func New(stock map[string]int) *Ledger {
	s := make(map[string]int, len(stock))
	for sku, qty := range stock {
		s[sku] = qty
	}
	return &Ledger{stock: s}
}

// NewUniform seeds every SKU with the same initial stock level.
func NewUniform(skus []string, initial int) *Ledger {
	s := make(map[string]int, len(skus))
	for _, sku := range skus {
		s[sku] = initial
	}
	return &Ledger{stock: s}
}

// Stock returns the tracked count for sku; Unlimited for sentinel SKUs.
func (l *Ledger) Stock(sku string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	qty, ok := l.stock[sku]
	return qty, ok
}

// IsUnlimited reports whether sku carries the unlimited sentinel.
func (l *Ledger) IsUnlimited(sku string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[sku] == Unlimited
}

// Reserve decrements stock for sku by qty. Unlimited SKUs always succeed and
// are left untouched. Returns ErrOutOfStock when nothing is left and
// ErrInsufficientStock when less than qty remains; the counter is unchanged
// on failure.
func (l *Ledger) Reserve(sku string, qty int) error {
	if qty <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.stock[sku]
	if !ok {
		return ErrUnknownSKU
	}
	if current == Unlimited {
		return nil
	}
	if current == 0 {
		return ErrOutOfStock
	}
	if current < qty {
		return ErrInsufficientStock
	}
	l.stock[sku] = current - qty
	return nil
}

// Release restores qty units of sku. Unlimited and unknown SKUs are no-ops.
func (l *Ledger) Release(sku string, qty int) {
	if qty <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.stock[sku]
	if !ok || current == Unlimited {
		return
	}
	l.stock[sku] = current + qty
}

// Set overwrites the counter for sku; used when restoring a snapshot.
func (l *Ledger) Set(sku string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[sku] = qty
}

// Snapshot returns a copy of all counters.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.stock))
	for sku, qty := range l.stock {
		out[sku] = qty
	}
	return out
}

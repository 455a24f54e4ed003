package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smallbiznis/tillsync/internal/inventory"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
)

func (s *Store) addItemLocked(sku string) domain.Result {
	if s.state.Status != domain.StatusIdle {
		return domain.Fail(domain.FailTransactionInProgress, "Transaction in progress")
	}
	product, ok := s.catalog.Lookup(sku)
	if !ok {
		return domain.Fail(domain.FailUnknownProduct, fmt.Sprintf("Unknown product: %s", sku))
	}

	lineIdx := s.findLineLocked(sku)
	if lineIdx >= 0 && s.state.Cart[lineIdx].Quantity >= s.cfg.MaxQuantity {
		return domain.Fail(domain.FailMaxQuantityReached, "Maximum quantity reached")
	}

	if err := s.ledger.Reserve(sku, 1); err != nil {
		// Reserving a single unit can only fail with an empty counter.
		return domain.Fail(domain.FailOutOfStock, fmt.Sprintf("Out of stock: %s", product.Name))
	}

	if lineIdx >= 0 {
		s.state.Cart[lineIdx].Quantity++
	} else {
		s.state.Cart = append(s.state.Cart, domain.CartItem{
			ID:        uuid.NewString(),
			SKU:       product.SKU,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		})
	}
	s.state.Total = s.totalLocked()

	s.warnLowStockLocked(sku)
	s.bumpAndBroadcastLocked()
	s.broadcastInventoryLocked()
	return domain.OK()
}

func (s *Store) removeItemLocked(sku string, index *int) domain.Result {
	if s.state.Status != domain.StatusIdle {
		return domain.Fail(domain.FailTransactionInProgress, "Transaction in progress")
	}

	idx := -1
	if index != nil {
		if *index < 0 || *index >= len(s.state.Cart) {
			return domain.Fail(domain.FailNotFound, "Item not found")
		}
		idx = *index
	} else {
		idx = s.findLineLocked(sku)
		if idx < 0 {
			return domain.Fail(domain.FailNotFound, "Item not found")
		}
	}

	line := s.state.Cart[idx]
	s.ledger.Release(line.SKU, line.Quantity)
	s.state.Cart = append(s.state.Cart[:idx], s.state.Cart[idx+1:]...)
	s.state.Total = s.totalLocked()

	s.bumpAndBroadcastLocked()
	s.broadcastInventoryLocked()
	return domain.OK()
}

func (s *Store) updateQuantityLocked(cmd domain.Command) domain.Result {
	if cmd.Quantity <= 0 {
		return s.removeItemLocked(cmd.SKU, cmd.Index)
	}
	if s.state.Status != domain.StatusIdle {
		return domain.Fail(domain.FailTransactionInProgress, "Transaction in progress")
	}
	if cmd.Index == nil || *cmd.Index < 0 || *cmd.Index >= len(s.state.Cart) {
		return domain.Fail(domain.FailInvalidIndex, "Invalid cart index")
	}
	line := &s.state.Cart[*cmd.Index]
	if line.SKU != cmd.SKU {
		return domain.Fail(domain.FailSkuMismatch,
			fmt.Sprintf("Cart index %d holds %s, not %s", *cmd.Index, line.SKU, cmd.SKU))
	}
	if cmd.Quantity > s.cfg.MaxQuantity {
		return domain.Fail(domain.FailMaxQuantityExceeded,
			fmt.Sprintf("Maximum quantity is %d", s.cfg.MaxQuantity))
	}

	delta := cmd.Quantity - line.Quantity
	switch {
	case delta > 0:
		if err := s.ledger.Reserve(line.SKU, delta); err != nil {
			if errors.Is(err, inventory.ErrOutOfStock) {
				return domain.Fail(domain.FailOutOfStock, fmt.Sprintf("Out of stock: %s", line.Name))
			}
			return domain.Fail(domain.FailInsufficientStock,
				fmt.Sprintf("Insufficient stock: %s", line.Name))
		}
	case delta < 0:
		s.ledger.Release(line.SKU, -delta)
	}

	line.Quantity = cmd.Quantity
	s.state.Total = s.totalLocked()

	s.warnLowStockLocked(line.SKU)
	s.bumpAndBroadcastLocked()
	s.broadcastInventoryLocked()
	return domain.OK()
}

func (s *Store) clearCartLocked() domain.Result {
	if s.state.Status == domain.StatusProcessing {
		return domain.Fail(domain.FailTransactionInProgress, "Payment in progress")
	}
	for _, line := range s.state.Cart {
		s.ledger.Release(line.SKU, line.Quantity)
	}
	s.state.Cart = nil
	s.state.Total = 0
	s.state.Status = domain.StatusIdle
	s.state.ErrorMessage = ""

	s.bumpAndBroadcastLocked()
	s.broadcastInventoryLocked()
	return domain.OK()
}

func (s *Store) findLineLocked(sku string) int {
	for i, line := range s.state.Cart {
		if line.SKU == sku {
			return i
		}
	}
	return -1
}

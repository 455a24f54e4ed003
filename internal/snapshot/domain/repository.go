package domain

import (
	"context"

	posdomain "github.com/smallbiznis/tillsync/internal/pos/domain"
)

// Snapshot is the durable slice of store state: the transaction log, the
// derived metrics, and the inventory counters. Ephemeral state (open cart,
// transaction status) is intentionally not persisted.
type Snapshot struct {
	Transactions []posdomain.TransactionRecord
	Metrics      posdomain.Metrics
	Inventory    map[string]int
}

// Repository is the persistence contract. Load returns (nil, nil) when no
// prior snapshot exists. Implementations must salvage as much of a partially
// invalid snapshot as possible rather than rejecting it wholesale.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/smallbiznis/tillsync/internal/pos/domain"
	snapdomain "github.com/smallbiznis/tillsync/internal/snapshot/domain"
)

// restore loads the latest snapshot, if any. It runs during construction,
// before the store is shared, so no lock is held.
func (s *Store) restore(ctx context.Context) error {
	if s.snaps == nil {
		return nil
	}
	snap, err := s.snaps.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	s.records = snap.Transactions
	if overflow := len(s.records) - s.cfg.MaxTransactions; overflow > 0 {
		s.records = append([]domain.TransactionRecord(nil), s.records[overflow:]...)
	}
	// Rebuild the completion window from record timestamps; the next
	// recompute prunes anything outside the trailing minute.
	for _, rec := range s.records {
		if rec.Status == domain.RecordCompleted {
			s.completions = append(s.completions, rec.Timestamp)
		}
	}
	for sku, stock := range snap.Inventory {
		s.ledger.Set(sku, stock)
	}
	s.log.Info("snapshot restored",
		zap.Int("transactions", len(s.records)),
		zap.Int("inventory_skus", len(snap.Inventory)),
	)
	return nil
}

// saveLocked persists the durable slice after a completed payment. A save
// failure degrades to in-memory operation with a surfaced warning; it never
// fails the payment.
func (s *Store) saveLocked(ctx context.Context) {
	if s.snaps == nil {
		return
	}
	err := s.snaps.Save(ctx, snapdomain.Snapshot{
		Transactions: s.recordsCopyLocked(),
		Metrics:      s.stats,
		Inventory:    s.ledger.Snapshot(),
	})
	s.prom.IncSnapshotSave(err)
	if err != nil {
		s.log.Warn("snapshot save failed; continuing in-memory", zap.Error(err))
		s.notifyLocked(domain.NoticeWarning, "Saving transactions failed; changes are kept in memory only")
	}
}

// Package repository implements the snapshot contract on a local sqlite
// database. Loading is deliberately forgiving: malformed rows are dropped and
// out-of-range values clamped, so a damaged snapshot degrades the data rather
// than taking the register down.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smallbiznis/tillsync/internal/currency"
	"github.com/smallbiznis/tillsync/internal/inventory"
	posdomain "github.com/smallbiznis/tillsync/internal/pos/domain"
	"github.com/smallbiznis/tillsync/internal/snapshot/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gormRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// Provide migrates the snapshot schema and returns the repository.
func Provide(db *gorm.DB, log *zap.Logger) (domain.Repository, error) {
	if err := db.AutoMigrate(&domain.TransactionRow{}, &domain.InventoryRow{}, &domain.MetricsRow{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot schema: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &gormRepository{db: db, log: log.Named("snapshot")}, nil
}

func (r *gormRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	var txRows []domain.TransactionRow
	if err := r.db.WithContext(ctx).Order("timestamp asc").Find(&txRows).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	var invRows []domain.InventoryRow
	if err := r.db.WithContext(ctx).Find(&invRows).Error; err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	var metricsRow domain.MetricsRow
	metricsFound := true
	if err := r.db.WithContext(ctx).First(&metricsRow, 1).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("load metrics: %w", err)
		}
		metricsFound = false
	}

	if len(txRows) == 0 && len(invRows) == 0 && !metricsFound {
		return nil, nil
	}

	snap := &domain.Snapshot{Inventory: make(map[string]int, len(invRows))}

	for _, row := range txRows {
		rec, ok := r.decodeTransaction(row)
		if !ok {
			continue
		}
		snap.Transactions = append(snap.Transactions, rec)
	}

	for _, row := range invRows {
		stock := row.Stock
		if stock < 0 && stock != inventory.Unlimited {
			r.log.Warn("clamping negative stock", zap.String("sku", row.SKU), zap.Int("stock", stock))
			stock = 0
		}
		snap.Inventory[row.SKU] = stock
	}

	if metricsFound {
		snap.Metrics = posdomain.Metrics{
			TodayCount:      metricsRow.TodayCount,
			TodayRevenue:    currency.FromCents(metricsRow.TodayRevenueCents),
			AverageCartSize: metricsRow.AverageCartSize,
			LastUpdated:     metricsRow.LastUpdated,
		}
	}

	return snap, nil
}

func (r *gormRepository) decodeTransaction(row domain.TransactionRow) (posdomain.TransactionRecord, bool) {
	if !posdomain.RecordStatus(row.Status).Valid() {
		r.log.Warn("dropping transaction with unknown status",
			zap.String("id", row.ID), zap.String("status", row.Status))
		return posdomain.TransactionRecord{}, false
	}
	if row.TotalCents <= 0 {
		r.log.Warn("dropping transaction with non-positive total",
			zap.String("id", row.ID), zap.Int64("total_cents", row.TotalCents))
		return posdomain.TransactionRecord{}, false
	}
	var items []posdomain.CartItem
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &items); err != nil {
			r.log.Warn("dropping transaction with malformed items",
				zap.String("id", row.ID), zap.Error(err))
			return posdomain.TransactionRecord{}, false
		}
	}
	return posdomain.TransactionRecord{
		ID:        row.ID,
		Timestamp: row.Timestamp,
		Items:     items,
		Total:     currency.FromCents(row.TotalCents),
		Status:    posdomain.RecordStatus(row.Status),
	}, true
}

func (r *gormRepository) Save(ctx context.Context, snap domain.Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&domain.TransactionRow{}).Error; err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		if err := global.Delete(&domain.InventoryRow{}).Error; err != nil {
			return fmt.Errorf("clear inventory: %w", err)
		}

		if len(snap.Transactions) > 0 {
			rows := make([]domain.TransactionRow, 0, len(snap.Transactions))
			for _, rec := range snap.Transactions {
				items, err := json.Marshal(rec.Items)
				if err != nil {
					return fmt.Errorf("encode items for %s: %w", rec.ID, err)
				}
				rows = append(rows, domain.TransactionRow{
					ID:         rec.ID,
					Timestamp:  rec.Timestamp,
					Status:     string(rec.Status),
					TotalCents: int64(rec.Total),
					Items:      items,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("save transactions: %w", err)
			}
		}

		if len(snap.Inventory) > 0 {
			rows := make([]domain.InventoryRow, 0, len(snap.Inventory))
			for sku, stock := range snap.Inventory {
				rows = append(rows, domain.InventoryRow{SKU: sku, Stock: stock})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("save inventory: %w", err)
			}
		}

		metricsRow := domain.MetricsRow{
			ID:                1,
			TodayCount:        snap.Metrics.TodayCount,
			TodayRevenueCents: int64(snap.Metrics.TodayRevenue),
			AverageCartSize:   snap.Metrics.AverageCartSize,
			LastUpdated:       snap.Metrics.LastUpdated,
		}
		if err := tx.Save(&metricsRow).Error; err != nil {
			return fmt.Errorf("save metrics: %w", err)
		}
		return nil
	})
}

var _ domain.Repository = (*gormRepository)(nil)

package domain

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionRow is the persisted form of a transaction record. Items are
// stored as a JSON payload since they are only ever read back whole.
type TransactionRow struct {
	ID         string         `gorm:"primaryKey"`
	Timestamp  time.Time      `gorm:"not null"`
	Status     string         `gorm:"type:text;not null"`
	TotalCents int64          `gorm:"not null"`
	Items      datatypes.JSON `gorm:"type:json"`
}

func (TransactionRow) TableName() string { return "transactions" }

// InventoryRow persists one SKU's stock counter, including the unlimited
// sentinel value.
type InventoryRow struct {
	SKU   string `gorm:"primaryKey;column:sku;type:text"`
	Stock int    `gorm:"not null"`
}

func (InventoryRow) TableName() string { return "inventory_levels" }

// MetricsRow is the single-row persisted metrics snapshot.
type MetricsRow struct {
	ID                uint      `gorm:"primaryKey"`
	TodayCount        int       `gorm:"not null"`
	TodayRevenueCents int64     `gorm:"not null"`
	AverageCartSize   float64   `gorm:"not null"`
	LastUpdated       time.Time `gorm:"not null"`
}

func (MetricsRow) TableName() string { return "metrics_snapshots" }

package domain

import (
	"time"

	"github.com/smallbiznis/tillsync/internal/currency"
)

// RecordStatus is the lifecycle state of a historical transaction entry.
// Only completed records are created by the live flow; pending and voided are
// reserved for crash-recovery tooling.
type RecordStatus string

const (
	RecordCompleted RecordStatus = "completed"
	RecordPending   RecordStatus = "pending"
	RecordVoided    RecordStatus = "voided"
)

// Valid reports whether s is a known record status.
func (s RecordStatus) Valid() bool {
	switch s {
	case RecordCompleted, RecordPending, RecordVoided:
		return true
	}
	return false
}

// TransactionRecord is an immutable historical entry created exactly once, at
// successful payment completion.
type TransactionRecord struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Items     []CartItem     `json:"items"`
	Total     currency.Cents `json:"total"`
	Status    RecordStatus   `json:"status"`
}

// ItemCount is the total quantity across the record's lines.
func (r TransactionRecord) ItemCount() int {
	n := 0
	for _, item := range r.Items {
		n += item.Quantity
	}
	return n
}

// Metrics is derived wholesale from the transaction log plus a rolling window
// of completion timestamps; it is never incrementally patched.
type Metrics struct {
	TransactionsPerMinute int            `json:"transactionsPerMinute"`
	AverageCartSize       float64        `json:"averageCartSize"`
	TodayCount            int            `json:"todayCount"`
	TodayRevenue          currency.Cents `json:"todayRevenue"`
	LastUpdated           time.Time      `json:"lastUpdated"`
}

package domain

import (
	"time"

	"github.com/smallbiznis/tillsync/internal/currency"
)

// TransactionStatus is the single gate on which commands the store accepts.
//
//	IDLE → PENDING → PROCESSING → {PAID | ERROR}
//	ERROR → PROCESSING (retry)
//	{PAID | ERROR} → IDLE (reset)
type TransactionStatus string

const (
	StatusIdle       TransactionStatus = "IDLE"
	StatusPending    TransactionStatus = "PENDING"
	StatusProcessing TransactionStatus = "PROCESSING"
	StatusPaid       TransactionStatus = "PAID"
	StatusError      TransactionStatus = "ERROR"
)

// Terminal reports whether the status ends a checkout attempt.
func (s TransactionStatus) Terminal() bool {
	return s == StatusPaid || s == StatusError
}

// CartItem is one cart line. Name and UnitPrice are snapshotted at add time so
// later catalog edits cannot retroactively alter an open cart.
type CartItem struct {
	ID        string         `json:"id"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	UnitPrice currency.Cents `json:"unitPrice"`
	Quantity  int            `json:"quantity"`
}

// Subtotal is the line total.
func (i CartItem) Subtotal() currency.Cents {
	return i.UnitPrice.Mul(i.Quantity)
}

// AppState is the authoritative snapshot delivered whole to every observer.
// Version increases strictly on every successful mutation; observers discard
// deliveries whose version is not greater than the last one seen.
type AppState struct {
	Version         uint64            `json:"version"`
	Cart            []CartItem        `json:"cart"`
	Total           currency.Cents    `json:"total"`
	Status          TransactionStatus `json:"status"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	RetryCount      int               `json:"retryCount"`
	TransactionID   string            `json:"transactionId,omitempty"`
	DemoLoopRunning bool              `json:"demoLoopRunning"`
}

// ItemCount is the total quantity across all cart lines.
func (s AppState) ItemCount() int {
	n := 0
	for _, item := range s.Cart {
		n += item.Quantity
	}
	return n
}

// InventoryItem is the per-SKU stock view broadcast to observers.
type InventoryItem struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Unlimited bool   `json:"unlimited"`
	LowStock  bool   `json:"lowStock"`
}

// NotificationLevel grades user-visible notices.
type NotificationLevel string

const (
	NoticeInfo    NotificationLevel = "info"
	NoticeWarning NotificationLevel = "warning"
)

// Notification is a dismissible user-visible notice (persistence failures,
// low stock). It never represents a command rejection.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

package domain

import (
	"context"

	"github.com/smallbiznis/tillsync/internal/currency"
)

// Request is a single charge attempt against the gateway.
type Request struct {
	TransactionID string
	Amount        currency.Cents
	Attempt       int
	CorrelationID string
}

// Outcome is the gateway's answer. A decline is ordinary data, not an error:
// the store turns it into the ERROR state with a retry path.
type Outcome struct {
	Authorized bool
	Reference  string
	Message    string
}

// Gateway processes charge requests. Implementations must always resolve; an
// in-flight charge is never cancelled mid-flight.
type Gateway interface {
	Charge(ctx context.Context, req Request) Outcome
}

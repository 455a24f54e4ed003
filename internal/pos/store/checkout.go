package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	paymentdomain "github.com/smallbiznis/tillsync/internal/payment/domain"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	"github.com/smallbiznis/tillsync/internal/trace"
	"github.com/smallbiznis/tillsync/pkg/telemetry/correlation"
)

func (s *Store) startCheckoutLocked() domain.Result {
	if s.state.Status != domain.StatusIdle {
		return domain.Fail(domain.FailTransactionInProgress, "Transaction already in progress")
	}
	if len(s.state.Cart) == 0 {
		return domain.Fail(domain.FailEmptyCart, "Cart is empty")
	}
	s.state.Status = domain.StatusPending
	s.state.ErrorMessage = ""
	s.bumpAndBroadcastLocked()
	return domain.OK()
}

// processPayment drives PENDING|ERROR → PROCESSING → {PAID|ERROR}. The store
// lock is released across the gateway call; PROCESSING rejects every other
// mutating command in the meantime, so the outcome applies to an untouched
// transaction.
func (s *Store) processPayment(ctx context.Context) domain.Result {
	s.mu.Lock()
	if s.state.Status != domain.StatusPending && s.state.Status != domain.StatusError {
		s.mu.Unlock()
		return domain.Fail(domain.FailInvalidState, "No payment to process")
	}
	if s.state.TransactionID == "" {
		s.state.TransactionID = s.node.Generate().String()
	}
	txnID := s.state.TransactionID
	amount := s.totalLocked()
	attempt := s.state.RetryCount + 1

	s.state.Status = domain.StatusProcessing
	s.state.ErrorMessage = ""
	s.bumpAndBroadcastLocked()

	cid := correlation.ExtractCorrelationID(ctx)
	s.tracer.Emit(trace.EventPaymentStart, "store",
		trace.WithTarget("gateway"),
		trace.WithPayload(map[string]any{
			"transactionId": txnID,
			"amount":        int64(amount),
			"attempt":       attempt,
		}),
		trace.WithCorrelation(cid),
	)
	s.mu.Unlock()

	ctx, span := s.otel.Start(ctx, "pos.charge", oteltrace.WithAttributes(
		attribute.String("transaction.id", txnID),
		attribute.Int("payment.attempt", attempt),
	))
	start := time.Now()
	outcome := s.gateway.Charge(ctx, paymentdomain.Request{
		TransactionID: txnID,
		Amount:        amount,
		Attempt:       attempt,
		CorrelationID: cid,
	})
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Bool("payment.authorized", outcome.Authorized))
	span.End()

	s.prom.IncPayment(outcome.Authorized)
	s.prom.ObservePaymentDuration(elapsed)
	s.tracer.Emit(trace.EventPaymentComplete, "gateway",
		trace.WithTarget("store"),
		trace.WithPayload(map[string]any{
			"transactionId": txnID,
			"authorized":    outcome.Authorized,
			"reference":     outcome.Reference,
		}),
		trace.WithLatency(elapsed),
		trace.WithCorrelation(cid),
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	if outcome.Authorized {
		s.settleLocked(ctx, txnID)
		return domain.OK()
	}

	s.state.Status = domain.StatusError
	s.state.ErrorMessage = outcome.Message
	s.state.RetryCount++
	s.bumpAndBroadcastLocked()
	s.log.Info("payment declined",
		zap.String("transaction_id", txnID),
		zap.Int("attempt", attempt),
		zap.String("reason", outcome.Message),
	)
	return domain.Fail(domain.FailPaymentDeclined, outcome.Message)
}

// settleLocked finalizes an authorized payment: it appends the completed
// record, empties the cart without releasing reservations (the units are
// sold), recomputes metrics and persists the durable slice.
func (s *Store) settleLocked(ctx context.Context, txnID string) {
	now := s.clock.Now()

	items := make([]domain.CartItem, len(s.state.Cart))
	copy(items, s.state.Cart)
	s.records = append(s.records, domain.TransactionRecord{
		ID:        txnID,
		Timestamp: now,
		Items:     items,
		Total:     s.state.Total,
		Status:    domain.RecordCompleted,
	})
	if overflow := len(s.records) - s.cfg.MaxTransactions; overflow > 0 {
		s.records = append([]domain.TransactionRecord(nil), s.records[overflow:]...)
	}
	s.completions = append(s.completions, now)
	s.recomputeMetricsLocked(now)

	s.state.Cart = nil
	s.state.Total = 0
	s.state.Status = domain.StatusPaid
	s.state.RetryCount = 0
	s.state.ErrorMessage = ""

	s.saveLocked(ctx)
	s.bumpAndBroadcastLocked()
	s.broadcastTransactionsLocked()
	s.broadcastMetricsLocked()
	s.broadcastInventoryLocked()
}

func (s *Store) cancelCheckoutLocked() domain.Result {
	switch s.state.Status {
	case domain.StatusPending, domain.StatusError:
		// Reservations and cart survive a cancel; only ClearCart
		// releases them.
		s.state.Status = domain.StatusIdle
		s.state.ErrorMessage = ""
		s.bumpAndBroadcastLocked()
		return domain.OK()
	case domain.StatusProcessing:
		return domain.Fail(domain.FailTransactionInProgress, "Payment in progress")
	default:
		return domain.Fail(domain.FailInvalidState, "No checkout to cancel")
	}
}

func (s *Store) resetTransactionLocked() domain.Result {
	if !s.state.Status.Terminal() {
		return domain.Fail(domain.FailInvalidState, "No transaction to reset")
	}
	s.state.Status = domain.StatusIdle
	s.state.ErrorMessage = ""
	s.state.RetryCount = 0
	s.state.TransactionID = ""
	s.bumpAndBroadcastLocked()
	return domain.OK()
}

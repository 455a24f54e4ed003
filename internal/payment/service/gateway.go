// Package service implements the simulated payment gateway: a fixed
// processing delay followed by a configurable-probability authorization.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/smallbiznis/tillsync/internal/payment/domain"
	"go.uber.org/zap"
)

// Config tunes the simulation.
type Config struct {
	Delay       time.Duration
	SuccessRate float64
}

func (c Config) withDefaults() Config {
	if c.SuccessRate < 0 {
		c.SuccessRate = 0
	}
	if c.SuccessRate > 1 {
		c.SuccessRate = 1
	}
	return c
}

var declineMessages = []string{
	"Payment declined by issuer",
	"Card declined. Please try again.",
	"Gateway timeout. Please retry.",
}

// Simulated is the stand-in gateway. The delay timer is not raced against the
// context: once a charge is in flight it always resolves, matching the
// no-mid-flight-cancellation contract.
type Simulated struct {
	log  *zap.Logger
	cfg  Config
	roll func() float64
}

func New(log *zap.Logger, cfg Config) *Simulated {
	return newSimulated(log, cfg, rand.Float64)
}

// NewDeterministic injects the probability roll; used by tests.
func NewDeterministic(log *zap.Logger, cfg Config, roll func() float64) *Simulated {
	return newSimulated(log, cfg, roll)
}

func newSimulated(log *zap.Logger, cfg Config, roll func() float64) *Simulated {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulated{
		log:  log.Named("gateway"),
		cfg:  cfg.withDefaults(),
		roll: roll,
	}
}

func (g *Simulated) Charge(ctx context.Context, req domain.Request) domain.Outcome {
	if g.cfg.Delay > 0 {
		time.Sleep(g.cfg.Delay)
	}

	if g.roll() < g.cfg.SuccessRate {
		out := domain.Outcome{
			Authorized: true,
			Reference:  fmt.Sprintf("AUTH-%08X", rand.Uint32()),
			Message:    "approved",
		}
		g.log.Debug("charge authorized",
			zap.String("transaction_id", req.TransactionID),
			zap.Int64("amount_cents", int64(req.Amount)),
			zap.Int("attempt", req.Attempt),
			zap.String("reference", out.Reference),
		)
		return out
	}

	msg := declineMessages[rand.IntN(len(declineMessages))]
	g.log.Debug("charge declined",
		zap.String("transaction_id", req.TransactionID),
		zap.Int64("amount_cents", int64(req.Amount)),
		zap.Int("attempt", req.Attempt),
		zap.String("reason", msg),
	)
	return domain.Outcome{Authorized: false, Message: msg}
}

var _ domain.Gateway = (*Simulated)(nil)

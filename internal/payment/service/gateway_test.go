package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/tillsync/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChargeAlwaysAuthorizes(t *testing.T) {
	g := NewDeterministic(zap.NewNop(), Config{SuccessRate: 1}, func() float64 { return 0.999 })
	out := g.Charge(context.Background(), domain.Request{TransactionID: "tx-1", Amount: 1497})
	assert.True(t, out.Authorized)
	assert.NotEmpty(t, out.Reference)
}

func TestChargeAlwaysDeclines(t *testing.T) {
	g := NewDeterministic(zap.NewNop(), Config{SuccessRate: 0}, func() float64 { return 0 })
	out := g.Charge(context.Background(), domain.Request{TransactionID: "tx-1", Amount: 1497})
	assert.False(t, out.Authorized)
	assert.NotEmpty(t, out.Message)
	assert.Empty(t, out.Reference)
}

func TestSuccessRateClamped(t *testing.T) {
	g := NewDeterministic(zap.NewNop(), Config{SuccessRate: 4.2}, func() float64 { return 0.99 })
	out := g.Charge(context.Background(), domain.Request{})
	assert.True(t, out.Authorized)

	g = NewDeterministic(zap.NewNop(), Config{SuccessRate: -1}, func() float64 { return 0 })
	out = g.Charge(context.Background(), domain.Request{})
	assert.False(t, out.Authorized)
}

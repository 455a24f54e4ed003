package payment

import (
	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/internal/payment/domain"
	"github.com/smallbiznis/tillsync/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the simulated payment gateway.
var Module = fx.Module("payment.gateway",
	fx.Provide(provide),
)

func provide(log *zap.Logger, cfg config.Config) domain.Gateway {
	return service.New(log, service.Config{
		Delay:       cfg.PaymentDelay,
		SuccessRate: cfg.PaymentSuccessRate,
	})
}

package observability

import (
	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/internal/observability/metrics"
	"github.com/smallbiznis/tillsync/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires metrics and tracing.
var Module = fx.Module("observability",
	fx.Provide(
		provideTracingConfig,
		tracing.NewProvider,
	),
	fx.Invoke(ensureTracingProvider),
	fx.Invoke(ensurePOSMetrics),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func provideTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.AppName,
		Version:     cfg.AppVersion,
		Environment: cfg.Environment,
		Endpoint:    cfg.OtelEndpoint,
		Protocol:    cfg.OtelProtocol,
	}
}

func ensurePOSMetrics(cfg config.Config) {
	metrics.POSWithConfig(metrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	})
}

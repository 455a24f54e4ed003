package pos

import (
	"context"

	"go.uber.org/fx"

	"github.com/smallbiznis/tillsync/internal/config"
	obsmetrics "github.com/smallbiznis/tillsync/internal/observability/metrics"
	"github.com/smallbiznis/tillsync/internal/pos/domain"
	"github.com/smallbiznis/tillsync/internal/pos/store"
	"github.com/smallbiznis/tillsync/internal/trace"
)

// Module provides the transaction store and its background day watcher.
var Module = fx.Module("pos.store",
	fx.Provide(provideConfig),
	fx.Provide(store.New),
	fx.Provide(func(s *store.Store) domain.Store { return s }),
	fx.Provide(func(s *store.Store) domain.DemoHost { return s }),
	fx.Invoke(runDayWatcher),
	fx.Invoke(watchTraceBuffer),
)

func provideConfig(cfg config.Config) store.Config {
	return store.Config{
		InitialStock:      cfg.InitialStock,
		LowStockThreshold: cfg.LowStockThreshold,
		MaxQuantity:       cfg.MaxQuantity,
		MaxTransactions:   cfg.MaxTransactions,
		DayCheckInterval:  cfg.DayCheckInterval,
		UnlimitedSKUs:     cfg.UnlimitedSKUs,
	}
}

func runDayWatcher(lc fx.Lifecycle, s *store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.RunDayWatcher(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

// watchTraceBuffer keeps the trace buffer gauge current.
func watchTraceBuffer(tracer *trace.Service) {
	m := obsmetrics.POS()
	tracer.OnEvent(func(trace.Event) {
		m.SetTraceBufferSize(tracer.Len())
	})
}

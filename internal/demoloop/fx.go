package demoloop

import (
	"context"

	"go.uber.org/fx"

	"github.com/smallbiznis/tillsync/internal/pos/store"
)

// Module provides the demo-loop orchestrator and registers it with the store.
var Module = fx.Module("demoloop",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, s *store.Store, l *Loop) {
	s.RegisterDemoController(l)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			l.Stop()
			return nil
		},
	})
}

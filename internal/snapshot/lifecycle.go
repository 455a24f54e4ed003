package snapshot

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

func closeHook(gdb *gorm.DB) fx.Hook {
	return fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

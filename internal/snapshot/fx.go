package snapshot

import (
	"github.com/smallbiznis/tillsync/internal/config"
	"github.com/smallbiznis/tillsync/internal/snapshot/domain"
	"github.com/smallbiznis/tillsync/internal/snapshot/repository"
	"github.com/smallbiznis/tillsync/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module provides the snapshot repository. With persistence disabled (empty
// snapshot path) the store receives no repository and runs in-memory only.
var Module = fx.Module("snapshot.repository",
	fx.Provide(provide),
)

func provide(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (domain.Repository, error) {
	if cfg.SnapshotPath == "" {
		log.Named("snapshot").Info("persistence disabled; running in-memory only")
		return nil, nil
	}
	gdb, err := openDB(lc, cfg.SnapshotPath, log)
	if err != nil {
		return nil, err
	}
	return repository.Provide(gdb, log)
}

func openDB(lc fx.Lifecycle, path string, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := db.Open(db.Config{Path: path}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(closeHook(gdb))
	return gdb, nil
}

// Package db opens the local snapshot database. Persistence here is a single
// sqlite file: the store is the only writer and durability is best-effort by
// design, so a server-grade database would be pure overhead.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config locates the snapshot database. An empty path means persistence is
// disabled and no database is opened.
type Config struct {
	Path string
}

// Open opens (creating if needed) the sqlite snapshot database.
func Open(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: NewGormLogger(log, DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.Use(otelgorm.NewPlugin()); err != nil {
		return nil, err
	}
	return gdb, nil
}

// OpenInMemory opens a throwaway in-memory database; used by tests.
func OpenInMemory(log *zap.Logger) (*gorm.DB, error) {
	return Open(Config{Path: ":memory:"}, log)
}

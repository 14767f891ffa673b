package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/db"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type database interface {
	DB() *gorm.DB
	AutoMigrateAll() error
	Close() error
}

// OpenDatabase connects to the configured driver. Callers own the returned closer.
func OpenDatabase(log *logger.Logger, cfg Config) (*gorm.DB, func() error, error) {
	svc, err := openDatabase(log, cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc.DB(), svc.Close, nil
}

// MigrateDatabase connects, migrates tables, indexes and the role catalog, then closes.
func MigrateDatabase(log *logger.Logger, cfg Config) error {
	svc, err := openDatabase(log, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.AutoMigrateAll()
}

func openDatabase(log *logger.Logger, cfg Config) (database, error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		svc, err := db.NewSQLiteService(log, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return svc, nil
	case DriverPostgres:
		svc, err := db.NewPostgresService(log, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

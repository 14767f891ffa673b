package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

// SQLiteService backs local runs and tests. SQLite has a single writer, so the pool is
// capped at one connection and every write transaction is serialized.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQLiteService opens path, or a private in-memory database when path is ":memory:"
// or starts with "memory:".
func NewSQLiteService(logg *logger.Logger, path string) (*SQLiteService, error) {
	serviceLog := logg.With("service", "SQLiteService")

	dsn := SQLiteDSN(path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  newGormLogger(logg),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Info("Opened sqlite", "path", path)
	return &SQLiteService{db: db, log: serviceLog}, nil
}

func SQLiteDSN(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "" || path == ":memory:":
		return "file::memory:?_foreign_keys=on"
	case strings.HasPrefix(path, "memory:"):
		name := strings.TrimPrefix(path, "memory:")
		return "file:" + name + "?mode=memory&cache=shared&_foreign_keys=on"
	default:
		return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}
}

func (s *SQLiteService) DB() *gorm.DB { return s.db }

func (s *SQLiteService) Close() error { return closeDB(s.db) }

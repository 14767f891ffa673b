package testutil

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbpkg "github.com/Stari-kolomoni/kolomoni-backend/internal/data/db"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns the shared PostgreSQL database when TEST_POSTGRES_DSN is set and a fresh
// migrated SQLite database otherwise. Callers that need isolation use Tx.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		return SQLite(tb)
	}

	pgOnce.Do(func() {
		pgDB, pgErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if pgErr != nil {
			return
		}
		pgErr = dbpkg.Migrate(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

// SQLite opens a private, migrated in-memory database that is closed with the test.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := fmt.Sprintf("memory:kolomoni_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))
	svc, err := dbpkg.NewSQLiteService(Logger(tb), name)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })

	db := svc.DB().Session(&gorm.Session{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err := dbpkg.Migrate(db); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

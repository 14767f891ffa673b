package aggregates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

// TxRunner opens the single transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

const defaultTxAttempts = 3

type gormTxRunner struct {
	db       *gorm.DB
	attempts int
}

// NewGormTxRunner runs fn in a gorm transaction. A body aborted by a PostgreSQL
// serialization failure or deadlock is rolled back and run again, up to three times;
// the body must therefore only touch the database.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, attempts: defaultTxAttempts}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database configured", nil)
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || attempt >= r.attempts || ctx.Err() != nil || !transientTxError(err) {
			return err
		}
	}
}

func transientTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return true
	}
	return false
}

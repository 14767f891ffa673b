package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	repotest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/testutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

func TestGormTxRunnerRetriesDeadlocks(t *testing.T) {
	runner := NewGormTxRunner(repotest.SQLite(t))

	calls := 0
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		calls++
		if dbc.Tx == nil {
			t.Fatalf("body must run inside a transaction")
		}
		if calls == 1 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if calls != 2 {
		t.Fatalf("attempts: want=2 got=%d", calls)
	}
}

func TestGormTxRunnerGivesUpAfterBoundedAttempts(t *testing.T) {
	runner := NewGormTxRunner(repotest.SQLite(t))

	calls := 0
	err := runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40001" {
		t.Fatalf("expected the serialization failure back, got=%v", err)
	}
	if calls != defaultTxAttempts {
		t.Fatalf("attempts: want=%d got=%d", defaultTxAttempts, calls)
	}
}

func TestGormTxRunnerDoesNotRetryDomainErrors(t *testing.T) {
	runner := NewGormTxRunner(repotest.SQLite(t))

	calls := 0
	err := runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return ValidationError("lemma must not be empty")
	})
	if err == nil || calls != 1 {
		t.Fatalf("want one attempt and an error, got calls=%d err=%v", calls, err)
	}
}

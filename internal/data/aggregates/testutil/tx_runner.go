package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

// InjectedTxRunner runs aggregate bodies with failure injection. With DB set the body
// runs inside a real transaction, and FailCommit rolls that transaction back after the
// body has written everything, which is how atomicity tests observe a late failure.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin  error
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}

	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		return failCommit
	}

	var err error
	if r.DB != nil {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return body(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return err
	}
	r.CommitCalls++
	return nil
}

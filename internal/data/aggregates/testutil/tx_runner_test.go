package testutil

import (
	"context"
	"errors"
	"testing"

	repotest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/testutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

func TestInjectedTxRunnerCounters(t *testing.T) {
	bodyErr := errors.New("lemma taken")
	beginErr := errors.New("begin refused")
	commitErr := errors.New("commit lost")

	cases := []struct {
		name                     string
		runner                   *InjectedTxRunner
		body                     error
		wantErr                  error
		wantRan                  bool
		wantCommits, wantRollbks int
	}{
		{name: "commit", runner: &InjectedTxRunner{}, wantRan: true, wantCommits: 1},
		{name: "body error", runner: &InjectedTxRunner{}, body: bodyErr, wantErr: bodyErr, wantRan: true, wantRollbks: 1},
		{name: "late commit failure", runner: &InjectedTxRunner{FailCommit: commitErr}, wantErr: commitErr, wantRan: true, wantRollbks: 1},
		{name: "begin failure", runner: &InjectedTxRunner{FailBegin: beginErr}, wantErr: beginErr},
	}
	for _, tc := range cases {
		ran := false
		err := tc.runner.InTx(context.Background(), func(dbctx.Context) error {
			ran = true
			return tc.body
		})
		if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
			t.Fatalf("%s: err want=%v got=%v", tc.name, tc.wantErr, err)
		}
		if ran != tc.wantRan {
			t.Fatalf("%s: body ran want=%v got=%v", tc.name, tc.wantRan, ran)
		}
		if tc.runner.BeginCalls != 1 || tc.runner.CommitCalls != tc.wantCommits || tc.runner.RollbackCalls != tc.wantRollbks {
			t.Fatalf("%s: counters begin=%d commit=%d rollback=%d", tc.name,
				tc.runner.BeginCalls, tc.runner.CommitCalls, tc.runner.RollbackCalls)
		}
	}
}

func TestInjectedTxRunnerFailCommitDiscardsWrites(t *testing.T) {
	db := repotest.SQLite(t)
	if err := db.Exec("CREATE TABLE scratch (id INTEGER PRIMARY KEY)").Error; err != nil {
		t.Fatalf("create scratch: %v", err)
	}
	commitErr := errors.New("commit lost")
	r := &InjectedTxRunner{DB: db, FailCommit: commitErr}

	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		if dbc.Tx == nil {
			t.Fatalf("body must see the transaction")
		}
		return dbc.Tx.Exec("INSERT INTO scratch (id) VALUES (1)").Error
	})
	if !errors.Is(err, commitErr) {
		t.Fatalf("want injected commit error, got=%v", err)
	}
	var n int64
	if err := db.Raw("SELECT COUNT(*) FROM scratch").Scan(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback: want=0 got=%d", n)
	}
}

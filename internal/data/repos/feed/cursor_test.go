package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/testutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

func TestCursorRepoLease(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCursorRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Millisecond)
	cur, err := repo.Ensure(dbc, "search", now)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if cur == nil || cur.LastSeq != 0 || cur.LeaseOwner != "" {
		t.Fatalf("Ensure: unexpected: %+v", cur)
	}
	if _, err := repo.Ensure(dbc, "search", now); err != nil {
		t.Fatalf("Ensure(again): %v", err)
	}

	ok, err := repo.AcquireLease(dbc, "search", "a", time.Minute, now)
	if err != nil || !ok {
		t.Fatalf("AcquireLease(a): want=true got=%v err=%v", ok, err)
	}
	ok, err = repo.AcquireLease(dbc, "search", "b", time.Minute, now.Add(time.Second))
	if err != nil || ok {
		t.Fatalf("AcquireLease(b while held): want=false got=%v err=%v", ok, err)
	}

	ok, err = repo.Advance(dbc, "search", "b", 5, now)
	if err != nil || ok {
		t.Fatalf("Advance(non-owner): want=false got=%v err=%v", ok, err)
	}
	ok, err = repo.Advance(dbc, "search", "a", 5, now)
	if err != nil || !ok {
		t.Fatalf("Advance(owner): want=true got=%v err=%v", ok, err)
	}
	ok, err = repo.Advance(dbc, "search", "a", 3, now)
	if err != nil || ok {
		t.Fatalf("Advance(backwards): want=false got=%v err=%v", ok, err)
	}

	ok, err = repo.AcquireLease(dbc, "search", "b", time.Minute, now.Add(2*time.Minute))
	if err != nil || !ok {
		t.Fatalf("AcquireLease(b after expiry): want=true got=%v err=%v", ok, err)
	}
	ok, err = repo.Advance(dbc, "search", "a", 9, now)
	if err != nil || ok {
		t.Fatalf("Advance(stale owner): want=false got=%v err=%v", ok, err)
	}

	ok, err = repo.Reset(dbc, "search", "b", 2, now)
	if err != nil || !ok {
		t.Fatalf("Reset: want=true got=%v err=%v", ok, err)
	}
	cur, err = repo.Get(dbc, "search")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cur.LastSeq != 2 || cur.LeaseOwner != "b" {
		t.Fatalf("Get after reset: want seq=2 owner=b got=%+v", cur)
	}

	ok, err = repo.ReleaseLease(dbc, "search", "b", now)
	if err != nil || !ok {
		t.Fatalf("ReleaseLease: want=true got=%v err=%v", ok, err)
	}
	ok, err = repo.AcquireLease(dbc, "search", "c", time.Minute, now)
	if err != nil || !ok {
		t.Fatalf("AcquireLease(c after release): want=true got=%v err=%v", ok, err)
	}
}

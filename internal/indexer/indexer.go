// Package indexer keeps the search index in step with the lexicon store by consuming the
// change feed from a durable, leased cursor.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
)

// ErrLeaseHeld means another owner holds the consumer's lease; this instance must not advance.
// Lease errors are classified as aggregate conflicts.
var ErrLeaseHeld = errors.New("indexer lease held by another owner")

// leaseConflict reports a refused compare-and-set on the cursor's lease owner.
func (ix *Indexer) leaseConflict(ok bool, step string) error {
	err := aggregates.RequireCASSuccess(ok, fmt.Sprintf("consumer %q is leased by another owner", ix.cfg.Consumer))
	if err == nil {
		return nil
	}
	return aggregates.MapError("indexer."+step, errors.Join(ErrLeaseHeld, err))
}

const DefaultConsumer = "search-indexer"

type Config struct {
	Consumer     string
	Owner        string
	BatchSize    int
	PollInterval time.Duration
	LeaseTTL     time.Duration
	// CyclesPerSecond caps how often catch-up runs, including retries after a failure.
	CyclesPerSecond float64
	SnapshotPath    string
}

func (c Config) withDefaults() Config {
	c.Consumer = strings.TrimSpace(c.Consumer)
	if c.Consumer == "" {
		c.Consumer = DefaultConsumer
	}
	if strings.TrimSpace(c.Owner) == "" {
		host, _ := os.Hostname()
		c.Owner = fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 30 * time.Second
	}
	if c.CyclesPerSecond <= 0 {
		c.CyclesPerSecond = 5
	}
	return c
}

// WakeSource delivers feed sequences committed by other processes.
type WakeSource interface {
	StartForwarder(ctx context.Context, onSeq func(seq int64)) error
}

// Snapshotter is implemented by indexes that can persist themselves.
type Snapshotter interface {
	SaveSnapshotFile(path string, seq int64) error
	LoadSnapshotFile(path string) (int64, bool, error)
}

type Indexer struct {
	log     *logger.Logger
	cfg     Config
	feed    repos.FeedEntryRepo
	cursors repos.FeedCursorRepo
	source  *DocumentSource
	index   search.Index
	bus     WakeSource
	now     func() time.Time

	// mu serializes catch-up and rebuilds within this process.
	mu       sync.Mutex
	wake     chan struct{}
	position atomic.Int64
}

type Deps struct {
	Log   *logger.Logger
	Repos repos.Set
	Index search.Index
	Bus   WakeSource
	Now   func() time.Time
}

func New(deps Deps, cfg Config) *Indexer {
	cfg = cfg.withDefaults()
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Indexer{
		log:     log.With("service", "Indexer", "consumer", cfg.Consumer),
		cfg:     cfg,
		feed:    deps.Repos.Feed,
		cursors: deps.Repos.Cursors,
		source:  NewDocumentSource(deps.Repos),
		index:   deps.Index,
		bus:     deps.Bus,
		now:     now,
		wake:    make(chan struct{}, 1),
	}
}

func (ix *Indexer) Consumer() string { return ix.cfg.Consumer }

// Position is the last feed sequence reflected in the index.
func (ix *Indexer) Position() int64 { return ix.position.Load() }

// Notify wakes the run loop. It never blocks.
func (ix *Indexer) Notify(_ context.Context, _ int64) {
	select {
	case ix.wake <- struct{}{}:
	default:
	}
}

func (ix *Indexer) acquire(ctx context.Context) error {
	dbc := dbctx.Context{Ctx: ctx}
	now := ix.now()
	if _, err := ix.cursors.Ensure(dbc, ix.cfg.Consumer, now); err != nil {
		return fmt.Errorf("ensure cursor: %w", err)
	}
	ok, err := ix.cursors.AcquireLease(dbc, ix.cfg.Consumer, ix.cfg.Owner, ix.cfg.LeaseTTL, now)
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	return ix.leaseConflict(ok, "acquire")
}

// CatchUp applies every feed entry past the durable cursor and advances the cursor after
// each one. It stops between entries when ctx is cancelled.
func (ix *Indexer) CatchUp(ctx context.Context) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.acquire(ctx); err != nil {
		return 0, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	cur, err := ix.cursors.Get(dbc, ix.cfg.Consumer)
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}
	if cur == nil {
		return 0, fmt.Errorf("cursor %q missing", ix.cfg.Consumer)
	}
	after := cur.LastSeq

	applied := 0
	defer func() { observability.Current().AddIndexerApplied(applied) }()

	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		page, err := ix.feed.ReadFrom(dbc, after, ix.cfg.BatchSize)
		if err != nil {
			observability.Current().IncIndexerFailure("read")
			return applied, fmt.Errorf("read feed after %d: %w", after, err)
		}
		for _, e := range page {
			if err := ctx.Err(); err != nil {
				return applied, err
			}
			if err := ix.apply(ctx, e); err != nil {
				observability.Current().IncIndexerFailure("apply")
				return applied, fmt.Errorf("apply feed entry %d: %w", e.Seq, err)
			}
			if err := ix.advance(dbc, e.Seq); err != nil {
				return applied, err
			}
			after = e.Seq
			applied++
		}
		if len(page) < ix.cfg.BatchSize {
			break
		}
		if err := ix.acquire(ctx); err != nil {
			return applied, err
		}
	}

	ix.publishLag(dbc, after)
	if applied > 0 {
		ix.log.Debug("caught up", "applied", applied, "seq", after)
	}
	return applied, nil
}

// advance moves the cursor past seq. A refused advance is fine when the cursor is already
// there; otherwise the lease was lost.
func (ix *Indexer) advance(dbc dbctx.Context, seq int64) error {
	ok, err := ix.cursors.Advance(dbc, ix.cfg.Consumer, ix.cfg.Owner, seq, ix.now())
	if err != nil {
		observability.Current().IncIndexerFailure("advance")
		return fmt.Errorf("advance cursor to %d: %w", seq, err)
	}
	if !ok {
		cur, err := ix.cursors.Get(dbc, ix.cfg.Consumer)
		if err != nil {
			return fmt.Errorf("re-read cursor: %w", err)
		}
		if cur == nil || cur.LeaseOwner != ix.cfg.Owner {
			return ix.leaseConflict(false, "advance")
		}
		if cur.LastSeq < seq {
			return fmt.Errorf("cursor refused advance to %d (at %d)", seq, cur.LastSeq)
		}
	}
	ix.position.Store(seq)
	return nil
}

// apply re-derives every document the entry may have touched. Feed payloads are never
// trusted; the store is re-read for each entity.
func (ix *Indexer) apply(ctx context.Context, e *feed.Entry) error {
	refs, err := e.DirtySet()
	if err != nil {
		return fmt.Errorf("decode related refs: %w", err)
	}
	subject := e.Subject()
	for _, ref := range refs {
		if ref.Kind != feed.KindWord && ref.Kind != feed.KindMeaning {
			continue
		}
		if ref == subject && e.Op == feed.OpDelete {
			if err := ix.index.Delete(ctx, ref.Key); err != nil {
				return err
			}
			continue
		}
		if err := ix.refresh(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) refresh(ctx context.Context, ref feed.EntityRef) error {
	id, err := uuid.Parse(ref.Key)
	if err != nil {
		ix.log.Warn("skipping malformed feed ref", "kind", ref.Kind, "key", ref.Key)
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	var doc *search.Document
	switch ref.Kind {
	case feed.KindWord:
		doc, err = ix.source.Word(dbc, id)
	case feed.KindMeaning:
		doc, err = ix.source.Meaning(dbc, id)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s %s: %w", ref.Kind, ref.Key, err)
	}
	if doc == nil {
		return ix.index.Delete(ctx, ref.Key)
	}
	return ix.index.Upsert(ctx, *doc)
}

func (ix *Indexer) publishLag(dbc dbctx.Context, cursor int64) {
	head, err := ix.feed.MaxSeq(dbc)
	if err != nil {
		ix.log.Warn("read feed head failed", "error", err)
		return
	}
	observability.Current().SetIndexerLag(ix.cfg.Consumer, head, cursor)
}

// Reindex clears the index and rescans every word and meaning without touching the cursor.
// It returns the feed head read before the scan; entries after it may be replayed safely.
func (ix *Indexer) Reindex(ctx context.Context) (int64, error) {
	dbc := dbctx.Context{Ctx: ctx}
	head, err := ix.feed.MaxSeq(dbc)
	if err != nil {
		return 0, fmt.Errorf("read feed head: %w", err)
	}
	ix.index.Reset()

	after := uuid.Nil
	for {
		words, err := ix.repoWords(dbc, after)
		if err != nil {
			return 0, err
		}
		for _, w := range words {
			if err := ix.index.Upsert(ctx, *wordDocument(w)); err != nil {
				return 0, err
			}
			after = w.ID
		}
		if len(words) < ix.cfg.BatchSize {
			break
		}
	}

	after = uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ids, err := ix.meaningIDs(dbc, after)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			if err := ix.refresh(ctx, feed.Ref(feed.KindMeaning, id)); err != nil {
				return 0, err
			}
			after = id
		}
		if len(ids) < ix.cfg.BatchSize {
			break
		}
	}
	ix.log.Info("search index rebuilt", "documents", ix.index.Len(), "head", head)
	return head, nil
}

func (ix *Indexer) repoWords(dbc dbctx.Context, after uuid.UUID) ([]*lexicon.WordView, error) {
	if err := dbc.Ctx.Err(); err != nil {
		return nil, err
	}
	words, err := ix.source.repos.Words.ListAfter(dbc, after, ix.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("scan words: %w", err)
	}
	return words, nil
}

func (ix *Indexer) meaningIDs(dbc dbctx.Context, after uuid.UUID) ([]uuid.UUID, error) {
	ids, err := ix.source.repos.Meanings.ListIDsAfter(dbc, after, ix.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("scan meanings: %w", err)
	}
	return ids, nil
}

// Rebuild reindexes from the store and resets the cursor to the feed head read before the scan.
func (ix *Indexer) Rebuild(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.acquire(ctx); err != nil {
		return err
	}
	head, err := ix.Reindex(ctx)
	if err != nil {
		observability.Current().IncIndexerFailure("rebuild")
		return err
	}
	return ix.resetCursor(ctx, head)
}

func (ix *Indexer) resetCursor(ctx context.Context, seq int64) error {
	ok, err := ix.cursors.Reset(dbctx.Context{Ctx: ctx}, ix.cfg.Consumer, ix.cfg.Owner, seq, ix.now())
	if err != nil {
		return fmt.Errorf("reset cursor: %w", err)
	}
	if err := ix.leaseConflict(ok, "reset"); err != nil {
		return err
	}
	ix.position.Store(seq)
	return nil
}

// Bootstrap loads the index on startup: from the snapshot when one exists and is not ahead
// of the feed, otherwise by a full rebuild. The cursor is rewound to what the index reflects.
func (ix *Indexer) Bootstrap(ctx context.Context) error {
	snap, ok := ix.index.(Snapshotter)
	if !ok || ix.cfg.SnapshotPath == "" {
		return ix.Rebuild(ctx)
	}

	ix.mu.Lock()
	if err := ix.acquire(ctx); err != nil {
		ix.mu.Unlock()
		return err
	}
	seq, found, err := snap.LoadSnapshotFile(ix.cfg.SnapshotPath)
	if err != nil {
		ix.log.Warn("search snapshot unreadable, rebuilding", "path", ix.cfg.SnapshotPath, "error", err)
		found = false
	}
	if found {
		head, err := ix.feed.MaxSeq(dbctx.Context{Ctx: ctx})
		if err != nil {
			ix.mu.Unlock()
			return fmt.Errorf("read feed head: %w", err)
		}
		if seq <= head {
			err := ix.resetCursor(ctx, seq)
			ix.mu.Unlock()
			return err
		}
		ix.log.Warn("search snapshot is ahead of the feed, rebuilding", "snapshot_seq", seq, "head", head)
	}
	ix.mu.Unlock()
	return ix.Rebuild(ctx)
}

// SaveSnapshot writes the index with the sequence it reflects. It is a no-op for indexes
// that cannot persist themselves or when no path is configured.
func (ix *Indexer) SaveSnapshot() error {
	snap, ok := ix.index.(Snapshotter)
	if !ok || ix.cfg.SnapshotPath == "" {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return snap.SaveSnapshotFile(ix.cfg.SnapshotPath, ix.position.Load())
}

// Run bootstraps the index and then catches up whenever woken or when the poll interval
// elapses, until ctx is done. Failures are logged and retried on a later cycle.
func (ix *Indexer) Run(ctx context.Context) error {
	ix.log.Info("starting indexer", "owner", ix.cfg.Owner, "poll_interval", ix.cfg.PollInterval)
	ticker := time.NewTicker(ix.cfg.PollInterval)
	defer ticker.Stop()
	limiter := rate.NewLimiter(rate.Limit(ix.cfg.CyclesPerSecond), 1)

	if ix.bus != nil {
		if err := ix.bus.StartForwarder(ctx, func(seq int64) { ix.Notify(ctx, seq) }); err != nil {
			ix.log.Warn("feed bus unavailable, polling only", "error", err)
		}
	}

	booted := false
	defer func() {
		if !booted {
			return
		}
		if err := ix.SaveSnapshot(); err != nil {
			ix.log.Warn("save search snapshot failed", "error", err)
		}
		if _, err := ix.cursors.ReleaseLease(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, ix.cfg.Consumer, ix.cfg.Owner, ix.now()); err != nil {
			ix.log.Warn("release lease failed", "error", err)
		}
		ix.log.Info("indexer stopped")
	}()

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		if !booted {
			err := ix.Bootstrap(ctx)
			switch {
			case err == nil:
				booted = true
				ix.log.Info("search index ready", "documents", ix.index.Len(), "seq", ix.Position())
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, ErrLeaseHeld):
				ix.log.Debug("lease held elsewhere, waiting")
			default:
				observability.Current().IncIndexerFailure("bootstrap")
				ix.log.Warn("index bootstrap failed", "error", err)
			}
		}
		if booted {
			_, err := ix.CatchUp(ctx)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, ErrLeaseHeld):
				// Another owner may have advanced the cursor past what this index holds.
				ix.log.Warn("lost indexer lease, bootstrapping again", "code", domainagg.CodeOf(err))
				booted = false
			default:
				ix.log.Warn("catch-up failed, will retry", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ix.wake:
		case <-ticker.C:
		}
	}
}

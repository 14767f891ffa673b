package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	aggtest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates/testutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	repotest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/testutil"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type harness struct {
	ctx     context.Context
	db      *gorm.DB
	repos   repos.Set
	hooks   *aggtest.HooksRecorder
	lexicon domainagg.LexiconAggregate
	users   domainagg.UserAggregate
	admin   auth.Caller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, repotest.SQLite(t), "admin")
}

// newSharedHarness runs on repotest.DB, which is PostgreSQL when TEST_POSTGRES_DSN is set.
// That database outlives the test, so fixture names must be unique per run.
func newSharedHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, repotest.DB(t), "admin-"+uuid.NewString()[:8])
}

func newHarnessOn(t *testing.T, db *gorm.DB, adminName string) *harness {
	t.Helper()
	log := repotest.Logger(t)
	set := repos.NewSet(db, log)
	hooks := &aggtest.HooksRecorder{}
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks, Repos: set}

	ctx := context.Background()
	adminUser := repotest.SeedUser(t, ctx, db, adminName)
	if _, err := set.UserRoles.Assign(dbctx.Context{Ctx: ctx}, adminUser.ID, auth.AllRoles(), adminUser.JoinedAt); err != nil {
		t.Fatalf("assign admin roles: %v", err)
	}

	return &harness{
		ctx:     ctx,
		db:      db,
		repos:   set,
		hooks:   hooks,
		lexicon: aggregates.NewLexiconAggregate(aggregates.LexiconAggregateDeps{Base: base}),
		users:   aggregates.NewUserAggregate(aggregates.UserAggregateDeps{Base: base}),
		admin:   auth.NewCaller(adminUser.ID, auth.PermissionsForRoles(auth.AllRoles())),
	}
}

// withRunner returns a lexicon aggregate sharing the harness repos but using runner.
func (h *harness) withRunner(runner aggregates.TxRunner) domainagg.LexiconAggregate {
	return aggregates.NewLexiconAggregate(aggregates.LexiconAggregateDeps{Base: aggregates.BaseDeps{
		DB:     h.db,
		Log:    logger.Nop(),
		Runner: runner,
		Hooks:  h.hooks,
		Repos:  h.repos,
	}})
}

func (h *harness) dbc() dbctx.Context { return dbctx.Context{Ctx: h.ctx} }

func (h *harness) counts(t *testing.T) (edits, entries int64) {
	t.Helper()
	if err := h.db.Model(&edit.Edit{}).Count(&edits).Error; err != nil {
		t.Fatalf("count edits: %v", err)
	}
	if err := h.db.Model(&feed.Entry{}).Count(&entries).Error; err != nil {
		t.Fatalf("count feed entries: %v", err)
	}
	return edits, entries
}

func (h *harness) word(t *testing.T, lang lexicon.Language, lemma string) lexicon.WordView {
	t.Helper()
	res, err := h.lexicon.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: lang, Lemma: lemma})
	if err != nil {
		t.Fatalf("create word %q: %v", lemma, err)
	}
	return res.Word
}

func (h *harness) meaning(t *testing.T, w lexicon.WordView, description string, categories ...lexicon.Category) lexicon.MeaningView {
	t.Helper()
	in := domainagg.CreateMeaningInput{WordID: w.ID, Detail: lexicon.DetailFields{Description: &description}}
	for _, c := range categories {
		in.CategoryIDs = append(in.CategoryIDs, c.ID)
	}
	res, err := h.lexicon.CreateMeaning(h.ctx, h.admin, in)
	if err != nil {
		t.Fatalf("create meaning: %v", err)
	}
	return res.Meaning
}

func (h *harness) category(t *testing.T, parent *lexicon.Category, sl, en string) lexicon.Category {
	t.Helper()
	in := domainagg.CreateCategoryInput{SloveneName: sl, EnglishName: en}
	if parent != nil {
		id := parent.ID
		in.ParentID = &id
	}
	res, err := h.lexicon.CreateCategory(h.ctx, h.admin, in)
	if err != nil {
		t.Fatalf("create category %q: %v", en, err)
	}
	return res.Category
}

func (h *harness) changeOf(t *testing.T, receipt domainagg.Receipt) edit.Change {
	t.Helper()
	row, err := h.repos.Edits.GetByID(h.dbc(), receipt.EditID)
	if err != nil {
		t.Fatalf("get edit: %v", err)
	}
	if row == nil {
		t.Fatalf("no edit recorded for receipt %+v", receipt)
	}
	c, err := edit.Decode(row.Data)
	if err != nil {
		t.Fatalf("decode edit: %v", err)
	}
	return c
}

func (h *harness) entryOf(t *testing.T, receipt domainagg.Receipt) *feed.Entry {
	t.Helper()
	rows, err := h.repos.Feed.ReadFrom(h.dbc(), receipt.Seq-1, 1)
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	if len(rows) != 1 || rows[0].Seq != receipt.Seq {
		t.Fatalf("feed entry %d missing: %+v", receipt.Seq, rows)
	}
	if rows[0].EditID != receipt.EditID {
		t.Fatalf("feed entry edit: want=%s got=%s", receipt.EditID, rows[0].EditID)
	}
	return rows[0]
}

package aggregates_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	aggtest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates/testutil"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
)

func TestCreateWordRecordsEditAndFeedEntry(t *testing.T) {
	h := newHarness(t)

	res, err := h.lexicon.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: lexicon.Slovene, Lemma: "  jezik "})
	if err != nil {
		t.Fatalf("CreateWord: %v", err)
	}
	if res.Word.Lemma != "jezik" || res.Word.Language != lexicon.Slovene {
		t.Fatalf("word: %+v", res.Word)
	}
	if res.Receipt.Seq != 1 {
		t.Fatalf("first seq: want=1 got=%d", res.Receipt.Seq)
	}

	c := h.changeOf(t, res.Receipt)
	if c.Action != edit.ActionCreatedWord || c.Subject != feed.Ref(feed.KindWord, res.Word.ID) {
		t.Fatalf("edit change: %+v", c)
	}
	if c.After["lemma"] != "jezik" || c.After["language"] != "sl" {
		t.Fatalf("edit after: %+v", c.After)
	}
	e := h.entryOf(t, res.Receipt)
	if e.Op != feed.OpUpsert || e.Subject() != feed.Ref(feed.KindWord, res.Word.ID) {
		t.Fatalf("feed entry: %+v", e)
	}

	row, err := h.repos.Edits.GetByID(h.dbc(), res.Receipt.EditID)
	if err != nil || row == nil {
		t.Fatalf("get edit: %v", err)
	}
	if row.AuthorID == nil || !h.admin.Is(*row.AuthorID) {
		t.Fatalf("edit author: %v", row.AuthorID)
	}
	if h.hooks.LastStatus(string(domainagg.OpCreateWord)) != "success" {
		t.Fatalf("hook status: %+v", h.hooks.Events())
	}
	if seqs := h.hooks.CommittedSeqs(); len(seqs) == 0 || seqs[len(seqs)-1] != res.Receipt.Seq {
		t.Fatalf("committed seqs: want last=%d got=%v", res.Receipt.Seq, seqs)
	}
}

func TestRejectedMutationsLeaveNoTrace(t *testing.T) {
	h := newHarness(t)
	h.word(t, lexicon.Slovene, "jezik")
	editsBefore, entriesBefore := h.counts(t)

	cases := []struct {
		name string
		code domainagg.ErrorCode
		run  func() error
	}{
		{"duplicate lemma", domainagg.CodeConstraintViolation, func() error {
			_, err := h.lexicon.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: lexicon.Slovene, Lemma: "jezik"})
			return err
		}},
		{"bad language", domainagg.CodeValidation, func() error {
			_, err := h.lexicon.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: "de", Lemma: "Sprache"})
			return err
		}},
		{"empty lemma", domainagg.CodeValidation, func() error {
			_, err := h.lexicon.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: lexicon.English, Lemma: "  "})
			return err
		}},
		{"anonymous caller", domainagg.CodeDenied, func() error {
			_, err := h.lexicon.CreateWord(h.ctx, auth.Anonymous(), domainagg.CreateWordInput{Language: lexicon.English, Lemma: "language"})
			return err
		}},
		{"missing word", domainagg.CodeNotFound, func() error {
			_, err := h.lexicon.DeleteWord(h.ctx, h.admin, domainagg.DeleteWordInput{WordID: uuid.New()})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: want=%s got=%v", tc.code, err)
			}
		})
	}

	editsAfter, entriesAfter := h.counts(t)
	if editsAfter != editsBefore || entriesAfter != entriesBefore {
		t.Fatalf("rejected mutations wrote records: edits %d->%d entries %d->%d", editsBefore, editsAfter, entriesBefore, entriesAfter)
	}
}

func TestLateFailureRollsBackEditAndFeed(t *testing.T) {
	h := newHarness(t)
	runner := &aggtest.InjectedTxRunner{DB: h.db, FailCommit: errors.New("connection reset")}
	agg := h.withRunner(runner)

	_, err := agg.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: lexicon.English, Lemma: "language"})
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("code: want=internal got=%v", err)
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollbacks: want=1 got=%d", runner.RollbackCalls)
	}
	w, err := h.repos.Words.GetByLemma(h.dbc(), lexicon.English, "language")
	if err != nil {
		t.Fatalf("GetByLemma: %v", err)
	}
	if w != nil {
		t.Fatalf("word survived rollback: %+v", w)
	}
	edits, entries := h.counts(t)
	if edits != 0 || entries != 0 {
		t.Fatalf("records survived rollback: edits=%d entries=%d", edits, entries)
	}
}

func TestUpdateWordKeepsLanguageAndMarksDependents(t *testing.T) {
	h := newHarness(t)
	sl := h.word(t, lexicon.Slovene, "jezk")
	en := h.word(t, lexicon.English, "language")
	slm := h.meaning(t, sl, "jezik")
	enm := h.meaning(t, en, "language")
	if _, err := h.lexicon.CreateTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: lexicon.TranslationKey{
		SloveneMeaningID: slm.ID, EnglishMeaningID: enm.ID,
	}}); err != nil {
		t.Fatalf("CreateTranslation: %v", err)
	}

	res, err := h.lexicon.UpdateWord(h.ctx, h.admin, domainagg.UpdateWordInput{WordID: sl.ID, Lemma: "jezik"})
	if err != nil {
		t.Fatalf("UpdateWord: %v", err)
	}
	if res.Word.Language != lexicon.Slovene || res.Word.Lemma != "jezik" {
		t.Fatalf("updated word: %+v", res.Word)
	}
	c := h.changeOf(t, res.Receipt)
	if c.Before["lemma"] != "jezk" || c.After["lemma"] != "jezik" {
		t.Fatalf("change: %+v", c)
	}
	related, err := h.entryOf(t, res.Receipt).RelatedRefs()
	if err != nil {
		t.Fatalf("RelatedRefs: %v", err)
	}
	want := map[feed.EntityRef]bool{
		feed.Ref(feed.KindMeaning, slm.ID): false,
		feed.Ref(feed.KindMeaning, enm.ID): false,
	}
	for _, r := range related {
		want[r] = true
	}
	for ref, seen := range want {
		if !seen {
			t.Fatalf("related set misses %+v: %+v", ref, related)
		}
	}

	other := h.word(t, lexicon.Slovene, "beseda")
	_, err = h.lexicon.UpdateWord(h.ctx, h.admin, domainagg.UpdateWordInput{WordID: other.ID, Lemma: "jezik"})
	if !domainagg.IsCode(err, domainagg.CodeConstraintViolation) {
		t.Fatalf("lemma clash: want constraint_violation got=%v", err)
	}
}

func TestMeaningLifecycle(t *testing.T) {
	h := newHarness(t)
	w := h.word(t, lexicon.English, "bank")
	nature := h.category(t, nil, "Narava", "Nature")

	desc := "side of a river"
	abbr := "bnk"
	created, err := h.lexicon.CreateMeaning(h.ctx, h.admin, domainagg.CreateMeaningInput{
		WordID:      w.ID,
		Detail:      lexicon.DetailFields{Description: &desc, Abbreviation: &abbr},
		CategoryIDs: []uuid.UUID{nature.ID, nature.ID},
	})
	if err != nil {
		t.Fatalf("CreateMeaning: %v", err)
	}
	m := created.Meaning
	if m.Language != lexicon.English || m.Detail == nil || m.Detail.Language != lexicon.English {
		t.Fatalf("meaning language: %+v", m)
	}
	if len(m.CategoryIDs) != 1 || m.CategoryIDs[0] != nature.ID {
		t.Fatalf("categories: %+v", m.CategoryIDs)
	}

	_, err = h.lexicon.CreateMeaning(h.ctx, h.admin, domainagg.CreateMeaningInput{WordID: w.ID, CategoryIDs: []uuid.UUID{uuid.New()}})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown category: want not_found got=%v", err)
	}

	updated, err := h.lexicon.UpdateMeaning(h.ctx, h.admin, domainagg.UpdateMeaningInput{
		MeaningID:    m.ID,
		Abbreviation: lexicon.ClearText(),
		Description:  lexicon.SetText("financial institution"),
	})
	if err != nil {
		t.Fatalf("UpdateMeaning: %v", err)
	}
	d := updated.Meaning.Detail
	if d == nil || d.Abbreviation != nil || d.Description == nil || *d.Description != "financial institution" {
		t.Fatalf("patched detail: %+v", d)
	}
	c := h.changeOf(t, updated.Receipt)
	if c.Before["abbreviation"] != "bnk" || c.After["abbreviation"] != nil {
		t.Fatalf("update change: %+v", c)
	}

	cleared, err := h.lexicon.UpdateMeaning(h.ctx, h.admin, domainagg.UpdateMeaningInput{
		MeaningID:   m.ID,
		Description: lexicon.ClearText(),
	})
	if err != nil {
		t.Fatalf("UpdateMeaning clear: %v", err)
	}
	if cleared.Meaning.Detail != nil {
		t.Fatalf("detail should be removed once every field is empty: %+v", cleared.Meaning.Detail)
	}

	receipt, err := h.lexicon.DeleteMeaning(h.ctx, h.admin, domainagg.DeleteMeaningInput{MeaningID: m.ID})
	if err != nil {
		t.Fatalf("DeleteMeaning: %v", err)
	}
	if e := h.entryOf(t, receipt); e.Op != feed.OpDelete {
		t.Fatalf("delete op: %+v", e)
	}
	gone, err := h.repos.Meanings.GetByID(h.dbc(), m.ID)
	if err != nil || gone != nil {
		t.Fatalf("meaning still present: %+v err=%v", gone, err)
	}
	ids, err := h.repos.Meanings.ListIDsByCategoryID(h.dbc(), nature.ID)
	if err != nil || len(ids) != 0 {
		t.Fatalf("category links survived: %v err=%v", ids, err)
	}
}

func TestLinkAndUnlinkMeaningCategory(t *testing.T) {
	h := newHarness(t)
	w := h.word(t, lexicon.Slovene, "lisica")
	m := h.meaning(t, w, "fox")
	animals := h.category(t, nil, "Živali", "Animals")

	res, err := h.lexicon.LinkMeaningCategory(h.ctx, h.admin, domainagg.MeaningCategoryInput{MeaningID: m.ID, CategoryID: animals.ID})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(res.Meaning.CategoryIDs) != 1 {
		t.Fatalf("linked categories: %+v", res.Meaning.CategoryIDs)
	}
	if c := h.changeOf(t, res.Receipt); c.Action != edit.ActionLinkedCategory || c.Subject != feed.Ref(feed.KindMeaning, m.ID) {
		t.Fatalf("link change: %+v", c)
	}

	_, err = h.lexicon.LinkMeaningCategory(h.ctx, h.admin, domainagg.MeaningCategoryInput{MeaningID: m.ID, CategoryID: animals.ID})
	if !domainagg.IsCode(err, domainagg.CodeConstraintViolation) {
		t.Fatalf("double link: want constraint_violation got=%v", err)
	}

	res, err = h.lexicon.UnlinkMeaningCategory(h.ctx, h.admin, domainagg.MeaningCategoryInput{MeaningID: m.ID, CategoryID: animals.ID})
	if err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if len(res.Meaning.CategoryIDs) != 0 {
		t.Fatalf("categories after unlink: %+v", res.Meaning.CategoryIDs)
	}
	_, err = h.lexicon.UnlinkMeaningCategory(h.ctx, h.admin, domainagg.MeaningCategoryInput{MeaningID: m.ID, CategoryID: animals.ID})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("double unlink: want not_found got=%v", err)
	}
}

func TestTranslationLanguageSidesAreEnforced(t *testing.T) {
	h := newHarness(t)
	sl := h.meaning(t, h.word(t, lexicon.Slovene, "jezik"), "language")
	en := h.meaning(t, h.word(t, lexicon.English, "language"), "language")
	alsoSl := h.meaning(t, h.word(t, lexicon.Slovene, "govor"), "speech")

	cases := []struct {
		name string
		key  lexicon.TranslationKey
		code domainagg.ErrorCode
	}{
		{"english on slovene side", lexicon.TranslationKey{SloveneMeaningID: en.ID, EnglishMeaningID: sl.ID}, domainagg.CodeConstraintViolation},
		{"slovene on both sides", lexicon.TranslationKey{SloveneMeaningID: sl.ID, EnglishMeaningID: alsoSl.ID}, domainagg.CodeConstraintViolation},
		{"missing meaning", lexicon.TranslationKey{SloveneMeaningID: sl.ID, EnglishMeaningID: uuid.New()}, domainagg.CodeNotFound},
		{"nil side", lexicon.TranslationKey{SloveneMeaningID: sl.ID}, domainagg.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.lexicon.CreateTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: tc.key})
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: want=%s got=%v", tc.code, err)
			}
		})
	}

	key := lexicon.TranslationKey{SloveneMeaningID: sl.ID, EnglishMeaningID: en.ID}
	res, err := h.lexicon.CreateTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: key})
	if err != nil {
		t.Fatalf("CreateTranslation: %v", err)
	}
	if res.Translation.TranslatedBy == nil || !h.admin.Is(*res.Translation.TranslatedBy) {
		t.Fatalf("translated_by: %v", res.Translation.TranslatedBy)
	}
	if e := h.entryOf(t, res.Receipt); e.EntityKey != key.String() || e.EntityKind != feed.KindTranslation {
		t.Fatalf("translation entry: %+v", e)
	}

	_, err = h.lexicon.CreateTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: key})
	if !domainagg.IsCode(err, domainagg.CodeConstraintViolation) {
		t.Fatalf("duplicate translation: want constraint_violation got=%v", err)
	}

	upd, err := h.lexicon.UpdateTranslation(h.ctx, h.admin, domainagg.UpdateTranslationInput{Key: key})
	if err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}
	if upd.Translation.TranslatedBy != nil {
		t.Fatalf("translated_by should be cleared: %v", upd.Translation.TranslatedBy)
	}
	missing := uuid.New()
	_, err = h.lexicon.UpdateTranslation(h.ctx, h.admin, domainagg.UpdateTranslationInput{Key: key, TranslatedBy: &missing})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown translator: want not_found got=%v", err)
	}

	if _, err := h.lexicon.DeleteTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: key}); err != nil {
		t.Fatalf("DeleteTranslation: %v", err)
	}
	_, err = h.lexicon.DeleteTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: key})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second delete: want not_found got=%v", err)
	}
}

// Scenario C: a translation whose English side belongs to a Slovene word is rejected
// without writing a translation, an edit or a feed entry.
func TestScenarioCMislabeledTranslationIsRejected(t *testing.T) {
	h := newHarness(t)
	sl := h.meaning(t, h.word(t, lexicon.Slovene, "miza"), "table")
	mislabeled := h.meaning(t, h.word(t, lexicon.Slovene, "table"), "furniture")
	editsBefore, entriesBefore := h.counts(t)

	key := lexicon.TranslationKey{SloveneMeaningID: sl.ID, EnglishMeaningID: mislabeled.ID}
	_, err := h.lexicon.CreateTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: key})
	if !domainagg.IsCode(err, domainagg.CodeConstraintViolation) {
		t.Fatalf("want constraint_violation got=%v", err)
	}
	if !domainagg.IsConstraintViolation(err) {
		t.Fatalf("IsConstraintViolation should hold for %v", err)
	}
	row, err := h.repos.Translations.Get(h.dbc(), key)
	if err != nil || row != nil {
		t.Fatalf("translation row written: %+v err=%v", row, err)
	}
	editsAfter, entriesAfter := h.counts(t)
	if editsAfter != editsBefore || entriesAfter != entriesBefore {
		t.Fatalf("records written: edits %d->%d entries %d->%d", editsBefore, editsAfter, entriesBefore, entriesAfter)
	}
}

// Scenario D, store side: deleting a word removes its meanings, their category links and
// translations in one transaction recorded by a single edit.
func TestScenarioDDeleteWordCascades(t *testing.T) {
	h := newHarness(t)
	animals := h.category(t, nil, "Živali", "Animals")
	nature := h.category(t, nil, "Narava", "Nature")

	w := h.word(t, lexicon.English, "seal")
	m1 := h.meaning(t, w, "marine mammal", animals)
	m2 := h.meaning(t, w, "official stamp", nature)
	t1 := h.meaning(t, h.word(t, lexicon.Slovene, "tjulenj"), "morski sesalec")
	t2 := h.meaning(t, h.word(t, lexicon.Slovene, "pečat"), "žig")
	for _, k := range []lexicon.TranslationKey{
		{SloveneMeaningID: t1.ID, EnglishMeaningID: m1.ID},
		{SloveneMeaningID: t2.ID, EnglishMeaningID: m2.ID},
	} {
		if _, err := h.lexicon.CreateTranslation(h.ctx, h.admin, domainagg.TranslationInput{Key: k}); err != nil {
			t.Fatalf("CreateTranslation: %v", err)
		}
	}
	editsBefore, entriesBefore := h.counts(t)

	res, err := h.lexicon.DeleteWord(h.ctx, h.admin, domainagg.DeleteWordInput{WordID: w.ID})
	if err != nil {
		t.Fatalf("DeleteWord: %v", err)
	}
	if len(res.DeletedMeaningIDs) != 2 {
		t.Fatalf("deleted meanings: %+v", res.DeletedMeaningIDs)
	}

	editsAfter, entriesAfter := h.counts(t)
	if editsAfter != editsBefore+1 || entriesAfter != entriesBefore+1 {
		t.Fatalf("one edit and one entry expected: edits %d->%d entries %d->%d", editsBefore, editsAfter, entriesBefore, entriesAfter)
	}
	for _, id := range []uuid.UUID{m1.ID, m2.ID} {
		if m, err := h.repos.Meanings.GetByID(h.dbc(), id); err != nil || m != nil {
			t.Fatalf("meaning %s survived: %+v err=%v", id, m, err)
		}
	}
	left, err := h.repos.Translations.ListByMeaningIDs(h.dbc(), []uuid.UUID{t1.ID, t2.ID})
	if err != nil || len(left) != 0 {
		t.Fatalf("translations survived: %+v err=%v", left, err)
	}
	for _, c := range []lexicon.Category{animals, nature} {
		ids, err := h.repos.Meanings.ListIDsByCategoryID(h.dbc(), c.ID)
		if err != nil || len(ids) != 0 {
			t.Fatalf("category %s links survived: %v err=%v", c.EnglishName, ids, err)
		}
	}
	for _, id := range []uuid.UUID{t1.ID, t2.ID} {
		if m, err := h.repos.Meanings.GetByID(h.dbc(), id); err != nil || m == nil {
			t.Fatalf("counterpart meaning %s should remain: err=%v", id, err)
		}
	}

	e := h.entryOf(t, res.Receipt)
	if e.Op != feed.OpDelete {
		t.Fatalf("op: want=delete got=%s", e.Op)
	}
	dirty, err := e.DirtySet()
	if err != nil {
		t.Fatalf("DirtySet: %v", err)
	}
	want := []feed.EntityRef{
		feed.Ref(feed.KindWord, w.ID),
		feed.Ref(feed.KindMeaning, m1.ID),
		feed.Ref(feed.KindMeaning, m2.ID),
		feed.Ref(feed.KindMeaning, t1.ID),
		feed.Ref(feed.KindMeaning, t2.ID),
	}
	seen := map[feed.EntityRef]bool{}
	for _, r := range dirty {
		seen[r] = true
	}
	for _, r := range want {
		if !seen[r] {
			t.Fatalf("dirty set misses %+v: %+v", r, dirty)
		}
	}
	if c := h.changeOf(t, res.Receipt); c.Before["lemma"] != "seal" {
		t.Fatalf("delete change: %+v", c)
	}
}

func TestFeedSequenceFollowsCommitOrder(t *testing.T) {
	h := newHarness(t)
	var last int64
	for _, lemma := range []string{"a", "b", "c", "d"} {
		res, err := h.lexicon.CreateWord(h.ctx, h.admin, domainagg.CreateWordInput{Language: lexicon.English, Lemma: lemma})
		if err != nil {
			t.Fatalf("CreateWord: %v", err)
		}
		if res.Receipt.Seq != last+1 {
			t.Fatalf("seq: want=%d got=%d", last+1, res.Receipt.Seq)
		}
		last = res.Receipt.Seq
	}
	head, err := h.repos.Feed.MaxSeq(h.dbc())
	if err != nil || head != last {
		t.Fatalf("head: want=%d got=%d err=%v", last, head, err)
	}
}

package aggregates

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

type LexiconAggregateDeps struct {
	Base BaseDeps
}

type lexiconAggregate struct {
	deps BaseDeps
}

var _ domainagg.LexiconAggregate = (*lexiconAggregate)(nil)

func NewLexiconAggregate(deps LexiconAggregateDeps) domainagg.LexiconAggregate {
	base := deps.Base.withDefaults()
	base.Log = base.Log.With("aggregate", "LexiconAggregate")
	return &lexiconAggregate{deps: base}
}

func (a *lexiconAggregate) Contract() domainagg.Contract {
	return domainagg.LexiconAggregateContract
}

func (a *lexiconAggregate) CreateWord(ctx context.Context, caller auth.Caller, in domainagg.CreateWordInput) (domainagg.WordResult, error) {
	var out domainagg.WordResult
	receipt, err := write(ctx, a.deps, domainagg.OpCreateWord, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		if !in.Language.Valid() {
			return domainagg.Receipt{}, ValidationError("language must be sl or en")
		}
		lemma, err := RequireText("lemma", in.Lemma)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		existing, err := a.deps.Repos.Words.GetByLemma(dbc, in.Language, lemma)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if existing != nil {
			return domainagg.Receipt{}, ConstraintError("a " + in.Language.String() + " word with lemma " + lemma + " already exists")
		}

		now := a.deps.Now()
		w := &lexicon.Word{ID: uuid.New(), Language: in.Language, CreatedAt: now, LastModifiedAt: now}
		if err := a.deps.Repos.Words.Create(dbc, w, lexicon.NewLemma(w, lemma, now)); err != nil {
			return domainagg.Receipt{}, err
		}
		out.Word = lexicon.WordView{Word: *w, Lemma: lemma}

		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionCreatedWord,
			Subject: feed.Ref(feed.KindWord, w.ID),
			After:   map[string]any{"language": w.Language, "lemma": lemma},
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) UpdateWord(ctx context.Context, caller auth.Caller, in domainagg.UpdateWordInput) (domainagg.WordResult, error) {
	var out domainagg.WordResult
	receipt, err := write(ctx, a.deps, domainagg.OpUpdateWord, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		lemma, err := RequireText("lemma", in.Lemma)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		w, err := a.deps.Repos.Words.LockByID(dbc, in.WordID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(w, "word", in.WordID); err != nil {
			return domainagg.Receipt{}, err
		}
		before, err := a.deps.Repos.Words.GetByID(dbc, w.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(before, "word lemma", w.ID); err != nil {
			return domainagg.Receipt{}, err
		}
		clash, err := a.deps.Repos.Words.GetByLemma(dbc, w.Language, lemma)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if clash != nil && clash.ID != w.ID {
			return domainagg.Receipt{}, ConstraintError("a " + w.Language.String() + " word with lemma " + lemma + " already exists")
		}

		now := a.deps.Now()
		if err := a.deps.Repos.Words.UpdateLemma(dbc, w.ID, lemma, now); err != nil {
			return domainagg.Receipt{}, err
		}
		w.LastModifiedAt = now
		out.Word = lexicon.WordView{Word: *w, Lemma: lemma}

		related, err := a.wordDependents(dbc, w.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionUpdatedWord,
			Subject: feed.Ref(feed.KindWord, w.ID),
			Before:  map[string]any{"lemma": before.Lemma},
			After:   map[string]any{"lemma": lemma},
			Related: related,
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) DeleteWord(ctx context.Context, caller auth.Caller, in domainagg.DeleteWordInput) (domainagg.DeleteWordResult, error) {
	var out domainagg.DeleteWordResult
	receipt, err := write(ctx, a.deps, domainagg.OpDeleteWord, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		w, err := a.deps.Repos.Words.LockByID(dbc, in.WordID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(w, "word", in.WordID); err != nil {
			return domainagg.Receipt{}, err
		}
		before, err := a.deps.Repos.Words.GetByID(dbc, w.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}

		meanings, err := a.deps.Repos.Meanings.ListByWordID(dbc, w.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		meaningIDs := make([]uuid.UUID, 0, len(meanings))
		for _, m := range meanings {
			meaningIDs = append(meaningIDs, m.ID)
		}
		counterparts, err := a.counterparts(dbc, meaningIDs)
		if err != nil {
			return domainagg.Receipt{}, err
		}

		if _, err := a.deps.Repos.Translations.DeleteByMeaningIDs(dbc, meaningIDs); err != nil {
			return domainagg.Receipt{}, err
		}
		if _, err := a.deps.Repos.Meanings.DeleteByIDs(dbc, meaningIDs); err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.Words.Delete(dbc, w.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "word"); err != nil {
			return domainagg.Receipt{}, err
		}
		out.DeletedMeaningIDs = meaningIDs

		beforeData := map[string]any{"language": w.Language, "meaning_ids": meaningIDs}
		if before != nil {
			beforeData["lemma"] = before.Lemma
		}
		return record(dbc, a.deps, authorOf(caller), a.deps.Now(), change{
			Action:  edit.ActionDeletedWord,
			Subject: feed.Ref(feed.KindWord, w.ID),
			Op:      feed.OpDelete,
			Before:  beforeData,
			Related: append(meaningRefs(meaningIDs), meaningRefs(counterparts)...),
		})
	})
	out.Receipt = receipt
	return out, err
}

// wordDependents returns the documents that embed the word's lemma: its own meanings
// and the meanings they are translated to.
func (a *lexiconAggregate) wordDependents(dbc dbctx.Context, wordID uuid.UUID) ([]feed.EntityRef, error) {
	meanings, err := a.deps.Repos.Meanings.ListByWordID(dbc, wordID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(meanings))
	for _, m := range meanings {
		ids = append(ids, m.ID)
	}
	counterparts, err := a.counterparts(dbc, ids)
	if err != nil {
		return nil, err
	}
	return append(meaningRefs(ids), meaningRefs(counterparts)...), nil
}

// counterparts returns the meanings on the other side of every translation of ids.
func (a *lexiconAggregate) counterparts(dbc dbctx.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := a.deps.Repos.Translations.ListByMeaningIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	own := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		own[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, t := range rows {
		for _, id := range []uuid.UUID{t.SloveneMeaningID, t.EnglishMeaningID} {
			if _, ok := own[id]; !ok {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

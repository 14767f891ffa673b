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

func (a *lexiconAggregate) CreateTranslation(ctx context.Context, caller auth.Caller, in domainagg.TranslationInput) (domainagg.TranslationResult, error) {
	var out domainagg.TranslationResult
	receipt, err := write(ctx, a.deps, domainagg.OpCreateTranslation, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		if err := a.lockTranslationSides(dbc, in.Key); err != nil {
			return domainagg.Receipt{}, err
		}
		existing, err := a.deps.Repos.Translations.Get(dbc, in.Key)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if existing != nil {
			return domainagg.Receipt{}, ConstraintError("translation " + in.Key.String() + " already exists")
		}

		now := a.deps.Now()
		t := &lexicon.Translation{
			SloveneMeaningID: in.Key.SloveneMeaningID,
			EnglishMeaningID: in.Key.EnglishMeaningID,
			TranslatedAt:     now,
			TranslatedBy:     authorOf(caller),
		}
		if err := a.deps.Repos.Translations.Create(dbc, t); err != nil {
			return domainagg.Receipt{}, err
		}
		out.Translation = *t

		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionCreatedTranslation,
			Subject: translationRef(in.Key),
			After:   translationData(t),
			Related: translationSides(in.Key),
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) UpdateTranslation(ctx context.Context, caller auth.Caller, in domainagg.UpdateTranslationInput) (domainagg.TranslationResult, error) {
	var out domainagg.TranslationResult
	receipt, err := write(ctx, a.deps, domainagg.OpUpdateTranslation, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		t, err := a.deps.Repos.Translations.Get(dbc, in.Key)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(t, "translation", in.Key); err != nil {
			return domainagg.Receipt{}, err
		}
		if in.TranslatedBy != nil {
			u, err := a.deps.Repos.Users.GetByID(dbc.Ctx, dbc.Tx, *in.TranslatedBy)
			if err != nil {
				return domainagg.Receipt{}, err
			}
			if err := RequireFound(u, "user", *in.TranslatedBy); err != nil {
				return domainagg.Receipt{}, err
			}
		}
		before := translationData(t)

		n, err := a.deps.Repos.Translations.UpdateTranslatedBy(dbc, in.Key, in.TranslatedBy)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "translation"); err != nil {
			return domainagg.Receipt{}, err
		}
		t.TranslatedBy = in.TranslatedBy
		out.Translation = *t

		return record(dbc, a.deps, authorOf(caller), a.deps.Now(), change{
			Action:  edit.ActionUpdatedTranslation,
			Subject: translationRef(in.Key),
			Before:  before,
			After:   translationData(t),
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) DeleteTranslation(ctx context.Context, caller auth.Caller, in domainagg.TranslationInput) (domainagg.Receipt, error) {
	return write(ctx, a.deps, domainagg.OpDeleteTranslation, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		t, err := a.deps.Repos.Translations.Get(dbc, in.Key)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(t, "translation", in.Key); err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.Translations.Delete(dbc, in.Key)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "translation"); err != nil {
			return domainagg.Receipt{}, err
		}
		return record(dbc, a.deps, authorOf(caller), a.deps.Now(), change{
			Action:  edit.ActionDeletedTranslation,
			Subject: translationRef(in.Key),
			Op:      feed.OpDelete,
			Before:  translationData(t),
			Related: translationSides(in.Key),
		})
	})
}

// lockTranslationSides locks both meanings, Slovene side first, and checks that each
// belongs to a word of the matching language.
func (a *lexiconAggregate) lockTranslationSides(dbc dbctx.Context, key lexicon.TranslationKey) error {
	if key.SloveneMeaningID == uuid.Nil || key.EnglishMeaningID == uuid.Nil {
		return ValidationError("both meaning ids are required")
	}
	for _, id := range []uuid.UUID{key.SloveneMeaningID, key.EnglishMeaningID} {
		m, err := a.deps.Repos.Meanings.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if err := RequireFound(m, "meaning", id); err != nil {
			return err
		}
	}
	views, err := a.deps.Repos.Meanings.GetViews(dbc, []uuid.UUID{key.SloveneMeaningID, key.EnglishMeaningID})
	if err != nil {
		return err
	}
	langs := make(map[uuid.UUID]lexicon.Language, len(views))
	for _, v := range views {
		langs[v.ID] = v.Language
	}
	if err := RequireLanguage("slovene", langs[key.SloveneMeaningID], lexicon.Slovene); err != nil {
		return err
	}
	return RequireLanguage("english", langs[key.EnglishMeaningID], lexicon.English)
}

func translationRef(key lexicon.TranslationKey) feed.EntityRef {
	return feed.EntityRef{Kind: feed.KindTranslation, Key: key.String()}
}

func translationSides(key lexicon.TranslationKey) []feed.EntityRef {
	return meaningRefs([]uuid.UUID{key.SloveneMeaningID, key.EnglishMeaningID})
}

func translationData(t *lexicon.Translation) map[string]any {
	var by any
	if t.TranslatedBy != nil {
		by = t.TranslatedBy.String()
	}
	return map[string]any{
		"slovene_meaning_id": t.SloveneMeaningID.String(),
		"english_meaning_id": t.EnglishMeaningID.String(),
		"translated_by":      by,
	}
}

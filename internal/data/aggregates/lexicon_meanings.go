package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

func (a *lexiconAggregate) CreateMeaning(ctx context.Context, caller auth.Caller, in domainagg.CreateMeaningInput) (domainagg.MeaningResult, error) {
	var out domainagg.MeaningResult
	receipt, err := write(ctx, a.deps, domainagg.OpCreateMeaning, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		w, err := a.deps.Repos.Words.LockByID(dbc, in.WordID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(w, "word", in.WordID); err != nil {
			return domainagg.Receipt{}, err
		}
		categoryIDs := dedupIDs(in.CategoryIDs)
		if err := a.requireCategories(dbc, categoryIDs); err != nil {
			return domainagg.Receipt{}, err
		}

		now := a.deps.Now()
		m := &lexicon.Meaning{ID: uuid.New(), WordID: w.ID, CreatedAt: now, LastModifiedAt: now}
		detail := lexicon.NewMeaningDetail(w, m.ID, in.Detail, now)
		if err := a.deps.Repos.Meanings.Create(dbc, m, detail); err != nil {
			return domainagg.Receipt{}, err
		}
		if _, err := a.deps.Repos.Meanings.LinkCategories(dbc, m.ID, categoryIDs, now); err != nil {
			return domainagg.Receipt{}, err
		}
		view, err := a.deps.Repos.Meanings.GetView(dbc, m.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		out.Meaning = *view

		after := detailData(detail)
		after["word_id"] = w.ID
		after["language"] = w.Language
		after["category_ids"] = categoryIDs
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionCreatedMeaning,
			Subject: feed.Ref(feed.KindMeaning, m.ID),
			After:   after,
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) UpdateMeaning(ctx context.Context, caller auth.Caller, in domainagg.UpdateMeaningInput) (domainagg.MeaningResult, error) {
	var out domainagg.MeaningResult
	receipt, err := write(ctx, a.deps, domainagg.OpUpdateMeaning, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		m, err := a.deps.Repos.Meanings.LockByID(dbc, in.MeaningID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(m, "meaning", in.MeaningID); err != nil {
			return domainagg.Receipt{}, err
		}
		before, err := a.deps.Repos.Meanings.GetView(dbc, m.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(before, "meaning", m.ID); err != nil {
			return domainagg.Receipt{}, err
		}

		var cur lexicon.DetailFields
		if before.Detail != nil {
			cur = lexicon.DetailFields{
				Disambiguation: before.Detail.Disambiguation,
				Abbreviation:   before.Detail.Abbreviation,
				Description:    before.Detail.Description,
			}
		}
		next := lexicon.DetailFields{
			Disambiguation: in.Disambiguation.Apply(cur.Disambiguation),
			Abbreviation:   in.Abbreviation.Apply(cur.Abbreviation),
			Description:    in.Description.Apply(cur.Description),
		}

		now := a.deps.Now()
		owner := &lexicon.Word{ID: m.WordID, Language: before.Language}
		detail := lexicon.NewMeaningDetail(owner, m.ID, next, now)
		if detail.Empty() {
			err = a.deps.Repos.Meanings.DeleteDetail(dbc, m.ID)
		} else {
			err = a.deps.Repos.Meanings.UpsertDetail(dbc, detail)
		}
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := a.deps.Repos.Meanings.Touch(dbc, m.ID, now); err != nil {
			return domainagg.Receipt{}, err
		}
		view, err := a.deps.Repos.Meanings.GetView(dbc, m.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		out.Meaning = *view

		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionUpdatedMeaning,
			Subject: feed.Ref(feed.KindMeaning, m.ID),
			Before:  detailData(before.Detail),
			After:   detailData(detail),
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) DeleteMeaning(ctx context.Context, caller auth.Caller, in domainagg.DeleteMeaningInput) (domainagg.Receipt, error) {
	return write(ctx, a.deps, domainagg.OpDeleteMeaning, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		m, err := a.deps.Repos.Meanings.LockByID(dbc, in.MeaningID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireFound(m, "meaning", in.MeaningID); err != nil {
			return domainagg.Receipt{}, err
		}
		before, err := a.deps.Repos.Meanings.GetView(dbc, m.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		counterparts, err := a.counterparts(dbc, []uuid.UUID{m.ID})
		if err != nil {
			return domainagg.Receipt{}, err
		}

		ids := []uuid.UUID{m.ID}
		if _, err := a.deps.Repos.Translations.DeleteByMeaningIDs(dbc, ids); err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.Meanings.DeleteByIDs(dbc, ids)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "meaning"); err != nil {
			return domainagg.Receipt{}, err
		}

		beforeData := map[string]any{"word_id": m.WordID}
		if before != nil {
			beforeData = detailData(before.Detail)
			beforeData["word_id"] = m.WordID
			beforeData["category_ids"] = before.CategoryIDs
		}
		return record(dbc, a.deps, authorOf(caller), a.deps.Now(), change{
			Action:  edit.ActionDeletedMeaning,
			Subject: feed.Ref(feed.KindMeaning, m.ID),
			Op:      feed.OpDelete,
			Before:  beforeData,
			Related: meaningRefs(counterparts),
		})
	})
}

func (a *lexiconAggregate) LinkMeaningCategory(ctx context.Context, caller auth.Caller, in domainagg.MeaningCategoryInput) (domainagg.MeaningResult, error) {
	var out domainagg.MeaningResult
	receipt, err := write(ctx, a.deps, domainagg.OpLinkMeaningCategory, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		m, err := a.lockMeaningAndCategory(dbc, in)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		now := a.deps.Now()
		n, err := a.deps.Repos.Meanings.LinkCategories(dbc, m.ID, []uuid.UUID{in.CategoryID}, now)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if n == 0 {
			return domainagg.Receipt{}, ConstraintError("meaning is already in this category")
		}
		return a.finishCategoryLink(dbc, caller, m, in.CategoryID, edit.ActionLinkedCategory, now, &out)
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) UnlinkMeaningCategory(ctx context.Context, caller auth.Caller, in domainagg.MeaningCategoryInput) (domainagg.MeaningResult, error) {
	var out domainagg.MeaningResult
	receipt, err := write(ctx, a.deps, domainagg.OpUnlinkMeaningCategory, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		m, err := a.lockMeaningAndCategory(dbc, in)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.Meanings.UnlinkCategory(dbc, m.ID, in.CategoryID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "meaning category link"); err != nil {
			return domainagg.Receipt{}, err
		}
		return a.finishCategoryLink(dbc, caller, m, in.CategoryID, edit.ActionUnlinkedCategory, a.deps.Now(), &out)
	})
	out.Receipt = receipt
	return out, err
}

func (a *lexiconAggregate) lockMeaningAndCategory(dbc dbctx.Context, in domainagg.MeaningCategoryInput) (*lexicon.Meaning, error) {
	m, err := a.deps.Repos.Meanings.LockByID(dbc, in.MeaningID)
	if err != nil {
		return nil, err
	}
	if err := RequireFound(m, "meaning", in.MeaningID); err != nil {
		return nil, err
	}
	c, err := a.deps.Repos.Categories.GetByID(dbc, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := RequireFound(c, "category", in.CategoryID); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *lexiconAggregate) finishCategoryLink(dbc dbctx.Context, caller auth.Caller, m *lexicon.Meaning, categoryID uuid.UUID, action edit.Action, now time.Time, out *domainagg.MeaningResult) (domainagg.Receipt, error) {
	if err := a.deps.Repos.Meanings.Touch(dbc, m.ID, now); err != nil {
		return domainagg.Receipt{}, err
	}
	view, err := a.deps.Repos.Meanings.GetView(dbc, m.ID)
	if err != nil {
		return domainagg.Receipt{}, err
	}
	out.Meaning = *view
	return record(dbc, a.deps, authorOf(caller), now, change{
		Action:  action,
		Subject: feed.Ref(feed.KindMeaning, m.ID),
		After:   map[string]any{"category_id": categoryID},
	})
}

func (a *lexiconAggregate) requireCategories(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := a.deps.Repos.Categories.GetByIDs(dbc, ids)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, c := range rows {
		found[c.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return NotFoundError("category %s not found", id)
		}
	}
	return nil
}

func detailData(d *lexicon.MeaningDetail) map[string]any {
	if d == nil {
		return map[string]any{"disambiguation": nil, "abbreviation": nil, "description": nil}
	}
	return map[string]any{
		"disambiguation": textOrNil(d.Disambiguation),
		"abbreviation":   textOrNil(d.Abbreviation),
		"description":    textOrNil(d.Description),
	}
}

func dedupIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

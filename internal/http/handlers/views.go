package handlers

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

type translationView struct {
	MeaningID    uuid.UUID        `json:"meaning_id"`
	WordID       uuid.UUID        `json:"word_id"`
	Language     lexicon.Language `json:"language"`
	Lemma        string           `json:"lemma"`
	TranslatedAt time.Time        `json:"translated_at"`
	TranslatedBy *uuid.UUID       `json:"translated_by,omitempty"`
}

type meaningView struct {
	*lexicon.MeaningView
	Translations []translationView `json:"translations"`
}

type wordEntry struct {
	Word     *lexicon.WordView `json:"word"`
	Meanings []meaningView     `json:"meanings"`
}

type editView struct {
	ID          uuid.UUID   `json:"id"`
	PerformedAt time.Time   `json:"performed_at"`
	AuthorID    *uuid.UUID  `json:"author_id,omitempty"`
	Author      string      `json:"author"`
	Change      edit.Change `json:"change"`
}

// loadMeaningViews attaches each meaning's translations, naming the counterpart by its
// word lemma.
func loadMeaningViews(dbc dbctx.Context, set repos.Set, ids []uuid.UUID) ([]meaningView, error) {
	if len(ids) == 0 {
		return []meaningView{}, nil
	}
	views, err := set.Meanings.GetViews(dbc, ids)
	if err != nil {
		return nil, err
	}
	translations, err := set.Translations.ListByMeaningIDs(dbc, ids)
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]uuid.UUID, 0, len(translations))
	for _, t := range translations {
		counterpartIDs = append(counterpartIDs, t.SloveneMeaningID, t.EnglishMeaningID)
	}
	counterparts := map[uuid.UUID]*lexicon.MeaningView{}
	if len(counterpartIDs) > 0 {
		cviews, err := set.Meanings.GetViews(dbc, counterpartIDs)
		if err != nil {
			return nil, err
		}
		for _, v := range cviews {
			counterparts[v.ID] = v
		}
	}
	wordIDs := make([]uuid.UUID, 0, len(counterparts))
	for _, v := range counterparts {
		wordIDs = append(wordIDs, v.WordID)
	}
	lemmas := map[uuid.UUID]string{}
	if len(wordIDs) > 0 {
		words, err := set.Words.GetByIDs(dbc, wordIDs)
		if err != nil {
			return nil, err
		}
		for _, w := range words {
			lemmas[w.ID] = w.Lemma
		}
	}

	out := make([]meaningView, 0, len(views))
	for _, v := range views {
		mv := meaningView{MeaningView: v, Translations: []translationView{}}
		for _, t := range translations {
			other := t.EnglishMeaningID
			if t.EnglishMeaningID == v.ID {
				other = t.SloveneMeaningID
			} else if t.SloveneMeaningID != v.ID {
				continue
			}
			cv, ok := counterparts[other]
			if !ok {
				continue
			}
			mv.Translations = append(mv.Translations, translationView{
				MeaningID:    cv.ID,
				WordID:       cv.WordID,
				Language:     cv.Language,
				Lemma:        lemmas[cv.WordID],
				TranslatedAt: t.TranslatedAt,
				TranslatedBy: t.TranslatedBy,
			})
		}
		sort.Slice(mv.Translations, func(i, j int) bool {
			return mv.Translations[i].Lemma < mv.Translations[j].Lemma
		})
		out = append(out, mv)
	}
	return out, nil
}

// editViews decodes edit payloads and labels authors. Edits whose author was deleted, or
// that the system made, carry the fallback label.
func editViews(dbc dbctx.Context, set repos.Set, rows []*edit.Edit) ([]editView, error) {
	authorIDs := make([]uuid.UUID, 0, len(rows))
	for _, e := range rows {
		if e.AuthorID != nil {
			authorIDs = append(authorIDs, *e.AuthorID)
		}
	}
	names := map[uuid.UUID]string{}
	if len(authorIDs) > 0 {
		users, err := set.Users.GetByIDs(dbc.Ctx, dbc.Tx, authorIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.DisplayName
		}
	}

	out := make([]editView, 0, len(rows))
	for _, e := range rows {
		change, err := edit.Decode(e.Data)
		if err != nil {
			return nil, err
		}
		author := edit.DeletedAuthorLabel
		if e.AuthorID != nil {
			if name, ok := names[*e.AuthorID]; ok {
				author = name
			}
		}
		out = append(out, editView{
			ID:          e.ID,
			PerformedAt: e.PerformedAt,
			AuthorID:    e.AuthorID,
			Author:      author,
			Change:      change,
		})
	}
	return out, nil
}

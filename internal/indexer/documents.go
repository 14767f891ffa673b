package indexer

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
)

// DocumentSource derives search documents from the current store state. A nil document
// means the entity no longer exists.
type DocumentSource struct {
	repos repos.Set
}

func NewDocumentSource(set repos.Set) *DocumentSource {
	return &DocumentSource{repos: set}
}

func (s *DocumentSource) Word(dbc dbctx.Context, id uuid.UUID) (*search.Document, error) {
	w, err := s.repos.Words.GetByID(dbc, id)
	if err != nil || w == nil {
		return nil, err
	}
	return wordDocument(w), nil
}

func wordDocument(w *lexicon.WordView) *search.Document {
	return &search.Document{
		Key:      w.ID.String(),
		Kind:     search.KindWord,
		Language: w.Language,
		Lemma:    w.Lemma,
	}
}

// Meaning builds the document of a meaning: the owning word's lemma, the detail text, the
// names of its categories in both languages and the lemmas of its translations.
func (s *DocumentSource) Meaning(dbc dbctx.Context, id uuid.UUID) (*search.Document, error) {
	m, err := s.repos.Meanings.GetView(dbc, id)
	if err != nil || m == nil {
		return nil, err
	}
	w, err := s.repos.Words.GetByID(dbc, m.WordID)
	if err != nil || w == nil {
		return nil, err
	}

	doc := &search.Document{
		Key:      m.ID.String(),
		Kind:     search.KindMeaning,
		Language: m.Language,
		Lemma:    w.Lemma,
	}
	if d := m.Detail; d != nil {
		for _, v := range []*string{d.Disambiguation, d.Abbreviation, d.Description} {
			if v != nil {
				doc.Fields = append(doc.Fields, *v)
			}
		}
	}

	categories, err := s.categoryNames(dbc, m.CategoryIDs)
	if err != nil {
		return nil, err
	}
	counterparts, err := s.counterpartLemmas(dbc, m)
	if err != nil {
		return nil, err
	}
	doc.Fields = append(doc.Fields, categories...)
	doc.Fields = append(doc.Fields, counterparts...)
	return doc, nil
}

func (s *DocumentSource) categoryNames(dbc dbctx.Context, ids []uuid.UUID) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.repos.Categories.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, c := range rows {
		names = append(names, c.SloveneName, c.EnglishName)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DocumentSource) counterpartLemmas(dbc dbctx.Context, m *lexicon.MeaningView) ([]string, error) {
	rows, err := s.repos.Translations.ListByMeaningIDs(dbc, []uuid.UUID{m.ID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	var ids []uuid.UUID
	for _, t := range rows {
		if m.Language == lexicon.Slovene {
			ids = append(ids, t.EnglishMeaningID)
		} else {
			ids = append(ids, t.SloveneMeaningID)
		}
	}
	views, err := s.repos.Meanings.GetViews(dbc, ids)
	if err != nil {
		return nil, err
	}
	wordIDs := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		wordIDs = append(wordIDs, v.WordID)
	}
	words, err := s.repos.Words.GetByIDs(dbc, wordIDs)
	if err != nil {
		return nil, err
	}
	lemmas := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, ok := seen[w.Lemma]; ok {
			continue
		}
		seen[w.Lemma] = struct{}{}
		lemmas = append(lemmas, w.Lemma)
	}
	sort.Strings(lemmas)
	return lemmas, nil
}

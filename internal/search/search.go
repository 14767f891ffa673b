// Package search holds the lexical index the dictionary search reads from.
//
// The index is a derived cache of the lexicon store: only the indexer writes to it, and it can
// be thrown away and rebuilt from the store or the change feed at any time.
package search

import (
	"context"
	"strings"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
)

type Kind string

const (
	KindWord    Kind = "word"
	KindMeaning Kind = "meaning"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Document is the searchable projection of one word or meaning. Key is the entity id.
// Lemma tokens weigh more than the other fields.
type Document struct {
	Key      string           `json:"key"`
	Kind     Kind             `json:"kind"`
	Language lexicon.Language `json:"language"`
	Lemma    string           `json:"lemma"`
	Fields   []string         `json:"fields,omitempty"`
}

// Query is a free-text search. An empty Language searches both languages.
type Query struct {
	Text     string
	Language lexicon.Language
	Limit    int
}

// Hit is one ranked result.
type Hit struct {
	Key      string           `json:"key"`
	Kind     Kind             `json:"kind"`
	Language lexicon.Language `json:"language"`
	Lemma    string           `json:"lemma"`
	Score    float64          `json:"score"`
}

type Index interface {
	Upsert(ctx context.Context, doc Document) error
	// Delete is a no-op for unknown keys.
	Delete(ctx context.Context, key string) error
	Search(ctx context.Context, q Query) ([]Hit, error)
	Len() int
	Reset()
}

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

func (d Document) valid() bool {
	return strings.TrimSpace(d.Key) != "" && d.Language.Valid() && (d.Kind == KindWord || d.Kind == KindMeaning)
}

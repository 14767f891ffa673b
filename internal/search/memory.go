package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

const (
	k1 = 1.2
	b  = 0.75

	lemmaBoost = 2.0
)

type entry struct {
	doc    Document
	length int
	tf     map[string]float64
}

// MemoryIndex is an in-memory BM25 index. Postings are roaring bitmaps of document ordinals,
// with per-document term frequencies kept on the document itself.
type MemoryIndex struct {
	log *logger.Logger

	mu          sync.RWMutex
	docs        map[uint32]*entry
	byKey       map[string]uint32
	terms       map[string]*roaring.Bitmap
	langs       map[lexicon.Language]*roaring.Bitmap
	next        uint32
	free        []uint32
	totalLength int64
}

// ErrIndexFull is returned once every document slot is taken. Slots freed by deletes are
// reused, so only the number of live documents counts against the limit.
var ErrIndexFull = errors.New("search index has no free document slots")

const maxSlots = math.MaxUint32

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex(baseLog *logger.Logger) *MemoryIndex {
	idx := &MemoryIndex{log: baseLog.With("component", "SearchIndex")}
	idx.resetLocked()
	return idx
}

func (idx *MemoryIndex) Upsert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !doc.valid() {
		return fmt.Errorf("invalid search document key=%q kind=%q language=%q", doc.Key, doc.Kind, doc.Language)
	}

	idx.mu.Lock()
	idx.deleteLocked(doc.Key)
	err := idx.addLocked(doc)
	n := len(idx.docs)
	idx.mu.Unlock()
	if err != nil {
		return err
	}

	observability.Current().SetIndexDocuments(n)
	return nil
}

func (idx *MemoryIndex) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.deleteLocked(key)
	n := len(idx.docs)
	idx.mu.Unlock()

	observability.Current().SetIndexDocuments(n)
	return nil
}

func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

func (idx *MemoryIndex) Reset() {
	idx.mu.Lock()
	idx.resetLocked()
	idx.mu.Unlock()
	observability.Current().SetIndexDocuments(0)
}

// Get returns the stored document for key.
func (idx *MemoryIndex) Get(key string) (Document, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ord, ok := idx.byKey[key]
	if !ok {
		return Document{}, false
	}
	return cloneDocument(idx.docs[ord].doc), true
}

// Documents returns every stored document ordered by key.
func (idx *MemoryIndex) Documents() []Document {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Document, 0, len(idx.docs))
	for _, e := range idx.docs {
		out = append(out, cloneDocument(e.doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (idx *MemoryIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Language != "" && !q.Language.Valid() {
		return nil, fmt.Errorf("unsupported language %q", q.Language)
	}
	start := time.Now()
	defer func() { observability.Current().ObserveSearch(string(q.Language), time.Since(start)) }()

	tokens := uniqueTokens(Tokenize(q.Text))
	hits := []Hit{}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(tokens) == 0 || len(idx.docs) == 0 {
		return hits, nil
	}
	var filter *roaring.Bitmap
	if q.Language != "" {
		filter = idx.langs[q.Language]
		if filter == nil || filter.IsEmpty() {
			return hits, nil
		}
	}

	avgDL := float64(idx.totalLength) / float64(len(idx.docs))
	if avgDL <= 0 {
		avgDL = 1
	}

	scores := make(map[uint32]float64)
	for _, tok := range tokens {
		for _, m := range idx.expandLocked(tok) {
			postings := idx.terms[m.term]
			idf := idx.idf(postings.GetCardinality())
			if filter != nil {
				postings = roaring.And(postings, filter)
			}
			it := postings.Iterator()
			for it.HasNext() {
				ord := it.Next()
				e := idx.docs[ord]
				tf := e.tf[m.term]
				norm := 1 - b + b*float64(e.length)/avgDL
				scores[ord] += m.weight * idf * (tf * (k1 + 1)) / (tf + k1*norm)
			}
		}
	}

	for ord, score := range scores {
		e := idx.docs[ord]
		hits = append(hits, Hit{
			Key:      e.doc.Key,
			Kind:     e.doc.Kind,
			Language: e.doc.Language,
			Lemma:    e.doc.Lemma,
			Score:    score,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Key < hits[j].Key
	})
	if limit := q.limit(); len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type termMatch struct {
	term   string
	weight float64
}

// expandLocked maps a query token onto dictionary terms: itself when present, otherwise every
// term within the token's edit budget, weighted down by distance.
func (idx *MemoryIndex) expandLocked(tok string) []termMatch {
	if _, ok := idx.terms[tok]; ok {
		return []termMatch{{term: tok, weight: 1}}
	}
	limit := maxEdits(tok)
	var out []termMatch
	for term := range idx.terms {
		if d := editDistance(tok, term, limit); d <= limit {
			out = append(out, termMatch{term: term, weight: 1 / float64(1+d)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].term < out[j].term })
	return out
}

func (idx *MemoryIndex) idf(df uint64) float64 {
	n := float64(len(idx.docs))
	d := float64(df)
	return math.Log(1 + (n-d+0.5)/(d+0.5))
}

func (idx *MemoryIndex) addLocked(doc Document) error {
	ord, ok := idx.allocLocked()
	if !ok {
		return ErrIndexFull
	}
	doc = cloneDocument(doc)
	e := &entry{doc: doc, tf: make(map[string]float64)}
	for _, tok := range Tokenize(doc.Lemma) {
		e.tf[tok] += lemmaBoost
		e.length++
	}
	for _, field := range doc.Fields {
		for _, tok := range Tokenize(field) {
			e.tf[tok]++
			e.length++
		}
	}

	idx.docs[ord] = e
	idx.byKey[doc.Key] = ord
	idx.totalLength += int64(e.length)

	for term := range e.tf {
		bm, ok := idx.terms[term]
		if !ok {
			bm = roaring.New()
			idx.terms[term] = bm
		}
		bm.Add(ord)
	}
	lang, ok := idx.langs[doc.Language]
	if !ok {
		lang = roaring.New()
		idx.langs[doc.Language] = lang
	}
	lang.Add(ord)
	return nil
}

// allocLocked hands out the most recently freed slot, or a fresh one.
func (idx *MemoryIndex) allocLocked() (uint32, bool) {
	if n := len(idx.free); n > 0 {
		ord := idx.free[n-1]
		idx.free = idx.free[:n-1]
		return ord, true
	}
	if idx.next == maxSlots {
		return 0, false
	}
	ord := idx.next
	idx.next++
	return ord, true
}

func (idx *MemoryIndex) deleteLocked(key string) {
	ord, ok := idx.byKey[key]
	if !ok {
		return
	}
	e := idx.docs[ord]
	for term := range e.tf {
		if bm, ok := idx.terms[term]; ok {
			bm.Remove(ord)
			if bm.IsEmpty() {
				delete(idx.terms, term)
			}
		}
	}
	if lang, ok := idx.langs[e.doc.Language]; ok {
		lang.Remove(ord)
	}
	idx.totalLength -= int64(e.length)
	delete(idx.docs, ord)
	delete(idx.byKey, key)
	idx.free = append(idx.free, ord)
}

func (idx *MemoryIndex) resetLocked() {
	idx.docs = make(map[uint32]*entry)
	idx.byKey = make(map[string]uint32)
	idx.terms = make(map[string]*roaring.Bitmap)
	idx.langs = make(map[lexicon.Language]*roaring.Bitmap)
	idx.next = 0
	idx.free = nil
	idx.totalLength = 0
}

func cloneDocument(d Document) Document {
	if d.Fields != nil {
		d.Fields = append([]string(nil), d.Fields...)
	}
	return d
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

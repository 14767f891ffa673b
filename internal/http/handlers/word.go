package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
)

type WordHandler struct {
	lexicon domainagg.LexiconAggregate
	repos   repos.Set
}

func NewWordHandler(lexicon domainagg.LexiconAggregate, set repos.Set) *WordHandler {
	return &WordHandler{lexicon: lexicon, repos: set}
}

// GET /dictionary/words?after=&limit=&language=
func (h *WordHandler) List(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultPageSize, maxPageSize)
	if !ok {
		return
	}
	after := uuid.Nil
	if raw := c.Query("after"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
			return
		}
		after = id
	}
	var lang lexicon.Language
	if raw := c.Query("language"); raw != "" {
		l, err := lexicon.ParseLanguage(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
			return
		}
		lang = l
	}

	words, err := h.repos.Words.ListAfter(dbcOf(c), after, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	out := make([]*lexicon.WordView, 0, len(words))
	for _, w := range words {
		if lang == "" || w.Language == lang {
			out = append(out, w)
		}
	}
	var next *uuid.UUID
	if len(words) == limit {
		last := words[len(words)-1].ID
		next = &last
	}
	response.RespondOK(c, gin.H{"words": out, "next_after": next})
}

// GET /dictionary/words/:wordID
func (h *WordHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "wordID")
	if !ok {
		return
	}
	h.respondEntry(c, id)
}

// GET /dictionary/words/by-lemma/:language/:lemma
func (h *WordHandler) GetByLemma(c *gin.Context) {
	lang, err := lexicon.ParseLanguage(c.Param("language"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	w, err := h.repos.Words.GetByLemma(dbcOf(c), lang, c.Param("lemma"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if w == nil {
		notFound(c, "word", c.Param("lemma"))
		return
	}
	h.respondEntry(c, w.ID)
}

func (h *WordHandler) respondEntry(c *gin.Context, id uuid.UUID) {
	dbc := dbcOf(c)
	w, err := h.repos.Words.GetByID(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if w == nil {
		notFound(c, "word", id)
		return
	}
	meanings, err := h.repos.Meanings.ListByWordID(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(meanings))
	for _, m := range meanings {
		ids = append(ids, m.ID)
	}
	views, err := loadMeaningViews(dbc, h.repos, ids)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, wordEntry{Word: w, Meanings: views})
}

// POST /dictionary/words
// body: { "language": "sl", "lemma": "..." }
func (h *WordHandler) Create(c *gin.Context) {
	var req struct {
		Language string `json:"language"`
		Lemma    string `json:"lemma"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.CreateWord(c.Request.Context(), middleware.CallerFrom(c), domainagg.CreateWordInput{
		Language: lexicon.Language(req.Language),
		Lemma:    req.Lemma,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusCreated, res.Receipt, gin.H{"word": res.Word})
}

// PATCH /dictionary/words/:wordID
// body: { "lemma": "..." }
func (h *WordHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "wordID")
	if !ok {
		return
	}
	var req struct {
		Lemma string `json:"lemma"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.UpdateWord(c.Request.Context(), middleware.CallerFrom(c), domainagg.UpdateWordInput{
		WordID: id,
		Lemma:  req.Lemma,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"word": res.Word})
}

// DELETE /dictionary/words/:wordID
func (h *WordHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "wordID")
	if !ok {
		return
	}
	res, err := h.lexicon.DeleteWord(c.Request.Context(), middleware.CallerFrom(c), domainagg.DeleteWordInput{WordID: id})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"deleted_meaning_ids": res.DeletedMeaningIDs})
}

// GET /dictionary/words/:wordID/history
func (h *WordHandler) History(c *gin.Context) {
	respondHistory(c, h.repos, feed.KindWord, "wordID")
}

func respondHistory(c *gin.Context, set repos.Set, kind feed.EntityKind, param string) {
	id, ok := uuidParam(c, param)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 100, maxPageSize)
	if !ok {
		return
	}
	dbc := dbcOf(c)
	rows, err := set.Edits.ListBySubject(dbc, feed.Ref(kind, id), limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	views, err := editViews(dbc, set, rows)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"edits": views})
}

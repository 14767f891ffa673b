package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
)

var errMissingQuery = errors.New("query parameter q is required")

// PositionReporter exposes how far the index has applied the change feed.
type PositionReporter interface {
	Position() int64
}

type SearchHandler struct {
	index    search.Index
	position PositionReporter
}

func NewSearchHandler(index search.Index, position PositionReporter) *SearchHandler {
	return &SearchHandler{index: index, position: position}
}

// GET /search?q=&lang=&limit=
// Results may trail the store by the indexer lag; indexed_through reports the last
// applied feed sequence.
func (h *SearchHandler) Search(c *gin.Context) {
	text := strings.TrimSpace(c.Query("q"))
	if text == "" {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), errMissingQuery)
		return
	}
	var lang lexicon.Language
	if raw := c.Query("lang"); raw != "" {
		l, err := lexicon.ParseLanguage(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
			return
		}
		lang = l
	}
	limit, ok := intQuery(c, "limit", search.DefaultLimit, search.MaxLimit)
	if !ok {
		return
	}

	hits, err := h.index.Search(c.Request.Context(), search.Query{Text: text, Language: lang, Limit: limit})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	var through int64
	if h.position != nil {
		through = h.position.Position()
	}
	response.RespondOK(c, gin.H{"hits": hits, "indexed_through": through})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
)

type MeaningHandler struct {
	lexicon domainagg.LexiconAggregate
	repos   repos.Set
}

func NewMeaningHandler(lexicon domainagg.LexiconAggregate, set repos.Set) *MeaningHandler {
	return &MeaningHandler{lexicon: lexicon, repos: set}
}

// GET /dictionary/meanings/:meaningID
func (h *MeaningHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "meaningID")
	if !ok {
		return
	}
	views, err := loadMeaningViews(dbcOf(c), h.repos, []uuid.UUID{id})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if len(views) == 0 {
		notFound(c, "meaning", id)
		return
	}
	response.RespondOK(c, gin.H{"meaning": views[0]})
}

// POST /dictionary/words/:wordID/meanings
// body: { "disambiguation": "...", "abbreviation": "...", "description": "...", "category_ids": [] }
func (h *MeaningHandler) Create(c *gin.Context) {
	wordID, ok := uuidParam(c, "wordID")
	if !ok {
		return
	}
	var req struct {
		Disambiguation *string     `json:"disambiguation"`
		Abbreviation   *string     `json:"abbreviation"`
		Description    *string     `json:"description"`
		CategoryIDs    []uuid.UUID `json:"category_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.CreateMeaning(c.Request.Context(), middleware.CallerFrom(c), domainagg.CreateMeaningInput{
		WordID: wordID,
		Detail: lexicon.DetailFields{
			Disambiguation: req.Disambiguation,
			Abbreviation:   req.Abbreviation,
			Description:    req.Description,
		},
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusCreated, res.Receipt, gin.H{"meaning": res.Meaning})
}

// PATCH /dictionary/meanings/:meaningID
// Absent fields are kept, null clears, a string sets.
func (h *MeaningHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "meaningID")
	if !ok {
		return
	}
	var req struct {
		Disambiguation optionalString `json:"disambiguation"`
		Abbreviation   optionalString `json:"abbreviation"`
		Description    optionalString `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.UpdateMeaning(c.Request.Context(), middleware.CallerFrom(c), domainagg.UpdateMeaningInput{
		MeaningID:      id,
		Disambiguation: req.Disambiguation.text(),
		Abbreviation:   req.Abbreviation.text(),
		Description:    req.Description.text(),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"meaning": res.Meaning})
}

// DELETE /dictionary/meanings/:meaningID
func (h *MeaningHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "meaningID")
	if !ok {
		return
	}
	receipt, err := h.lexicon.DeleteMeaning(c.Request.Context(), middleware.CallerFrom(c), domainagg.DeleteMeaningInput{MeaningID: id})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, receipt, nil)
}

// PUT /dictionary/meanings/:meaningID/categories/:categoryID
func (h *MeaningHandler) LinkCategory(c *gin.Context) {
	h.categoryLink(c, h.lexicon.LinkMeaningCategory)
}

// DELETE /dictionary/meanings/:meaningID/categories/:categoryID
func (h *MeaningHandler) UnlinkCategory(c *gin.Context) {
	h.categoryLink(c, h.lexicon.UnlinkMeaningCategory)
}

type meaningCategoryOp func(ctx context.Context, caller auth.Caller, in domainagg.MeaningCategoryInput) (domainagg.MeaningResult, error)

func (h *MeaningHandler) categoryLink(c *gin.Context, op meaningCategoryOp) {
	meaningID, ok := uuidParam(c, "meaningID")
	if !ok {
		return
	}
	categoryID, ok := uuidParam(c, "categoryID")
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), middleware.CallerFrom(c), domainagg.MeaningCategoryInput{
		MeaningID:  meaningID,
		CategoryID: categoryID,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"meaning": res.Meaning})
}

// GET /dictionary/meanings/:meaningID/history
func (h *MeaningHandler) History(c *gin.Context) {
	respondHistory(c, h.repos, feed.KindMeaning, "meaningID")
}

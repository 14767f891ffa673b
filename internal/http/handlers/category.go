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

type CategoryHandler struct {
	lexicon domainagg.LexiconAggregate
	repos   repos.Set
}

func NewCategoryHandler(lexicon domainagg.LexiconAggregate, set repos.Set) *CategoryHandler {
	return &CategoryHandler{lexicon: lexicon, repos: set}
}

// GET /dictionary/categories
func (h *CategoryHandler) List(c *gin.Context) {
	rows, err := h.repos.Categories.List(dbcOf(c))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": rows})
}

// GET /dictionary/categories/:categoryID
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "categoryID")
	if !ok {
		return
	}
	dbc := dbcOf(c)
	row, err := h.repos.Categories.GetByID(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if row == nil {
		notFound(c, "category", id)
		return
	}
	children, err := h.repos.Categories.ChildIDs(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	meanings, err := h.repos.Meanings.ListIDsByCategoryID(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if children == nil {
		children = []uuid.UUID{}
	}
	if meanings == nil {
		meanings = []uuid.UUID{}
	}
	response.RespondOK(c, gin.H{"category": row, "child_ids": children, "meaning_ids": meanings})
}

// POST /dictionary/categories
// body: { "parent_id": null, "slovene_name": "...", "english_name": "..." }
func (h *CategoryHandler) Create(c *gin.Context) {
	var req struct {
		ParentID    *uuid.UUID `json:"parent_id"`
		SloveneName string     `json:"slovene_name"`
		EnglishName string     `json:"english_name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.CreateCategory(c.Request.Context(), middleware.CallerFrom(c), domainagg.CreateCategoryInput{
		ParentID:    req.ParentID,
		SloveneName: req.SloveneName,
		EnglishName: req.EnglishName,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusCreated, res.Receipt, gin.H{"category": res.Category})
}

// PATCH /dictionary/categories/:categoryID
// An absent parent_id keeps the parent, null detaches it.
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "categoryID")
	if !ok {
		return
	}
	var req struct {
		SloveneName *string      `json:"slovene_name"`
		EnglishName *string      `json:"english_name"`
		ParentID    optionalUUID `json:"parent_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	parent := lexicon.ParentUpdate{}
	if req.ParentID.Set {
		parent = lexicon.DetachParent()
		if req.ParentID.Value != nil {
			parent = lexicon.SetParent(*req.ParentID.Value)
		}
	}
	res, err := h.lexicon.UpdateCategory(c.Request.Context(), middleware.CallerFrom(c), domainagg.UpdateCategoryInput{
		CategoryID:  id,
		SloveneName: req.SloveneName,
		EnglishName: req.EnglishName,
		Parent:      parent,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"category": res.Category})
}

// DELETE /dictionary/categories/:categoryID
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "categoryID")
	if !ok {
		return
	}
	res, err := h.lexicon.DeleteCategory(c.Request.Context(), middleware.CallerFrom(c), domainagg.DeleteCategoryInput{CategoryID: id})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"detached_child_ids": res.DetachedChildIDs})
}

// GET /dictionary/categories/:categoryID/history
func (h *CategoryHandler) History(c *gin.Context) {
	respondHistory(c, h.repos, feed.KindCategory, "categoryID")
}

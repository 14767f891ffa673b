package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
)

type TranslationHandler struct {
	lexicon domainagg.LexiconAggregate
	repos   repos.Set
}

func NewTranslationHandler(lexicon domainagg.LexiconAggregate, set repos.Set) *TranslationHandler {
	return &TranslationHandler{lexicon: lexicon, repos: set}
}

func translationKey(c *gin.Context) (lexicon.TranslationKey, bool) {
	sl, ok := uuidParam(c, "sloveneMeaningID")
	if !ok {
		return lexicon.TranslationKey{}, false
	}
	en, ok := uuidParam(c, "englishMeaningID")
	if !ok {
		return lexicon.TranslationKey{}, false
	}
	return lexicon.TranslationKey{SloveneMeaningID: sl, EnglishMeaningID: en}, true
}

// GET /dictionary/translations/:sloveneMeaningID/:englishMeaningID
func (h *TranslationHandler) Get(c *gin.Context) {
	key, ok := translationKey(c)
	if !ok {
		return
	}
	row, err := h.repos.Translations.Get(dbcOf(c), key)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if row == nil {
		notFound(c, "translation", key)
		return
	}
	response.RespondOK(c, gin.H{"translation": row})
}

// POST /dictionary/translations
// body: { "slovene_meaning_id": "...", "english_meaning_id": "..." }
func (h *TranslationHandler) Create(c *gin.Context) {
	var req struct {
		SloveneMeaningID uuid.UUID `json:"slovene_meaning_id"`
		EnglishMeaningID uuid.UUID `json:"english_meaning_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.CreateTranslation(c.Request.Context(), middleware.CallerFrom(c), domainagg.TranslationInput{
		Key: lexicon.TranslationKey{SloveneMeaningID: req.SloveneMeaningID, EnglishMeaningID: req.EnglishMeaningID},
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusCreated, res.Receipt, gin.H{"translation": res.Translation})
}

// PATCH /dictionary/translations/:sloveneMeaningID/:englishMeaningID
// body: { "translated_by": "<user id>" | null }
func (h *TranslationHandler) Update(c *gin.Context) {
	key, ok := translationKey(c)
	if !ok {
		return
	}
	var req struct {
		TranslatedBy *uuid.UUID `json:"translated_by"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lexicon.UpdateTranslation(c.Request.Context(), middleware.CallerFrom(c), domainagg.UpdateTranslationInput{
		Key:          key,
		TranslatedBy: req.TranslatedBy,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"translation": res.Translation})
}

// DELETE /dictionary/translations/:sloveneMeaningID/:englishMeaningID
func (h *TranslationHandler) Delete(c *gin.Context) {
	key, ok := translationKey(c)
	if !ok {
		return
	}
	receipt, err := h.lexicon.DeleteTranslation(c.Request.Context(), middleware.CallerFrom(c), domainagg.TranslationInput{Key: key})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, receipt, nil)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
)

type HealthHandler struct {
	db    *gorm.DB
	index search.Index
}

func NewHealthHandler(db *gorm.DB, index search.Index) *HealthHandler {
	return &HealthHandler{db: db, index: index}
}

// GET /healthz
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	docs := 0
	if h.index != nil {
		docs = h.index.Len()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": docs})
}

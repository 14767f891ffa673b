package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func dbcOf(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), fmt.Errorf("invalid %s: %w", name, err))
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func intQuery(c *gin.Context, name string, def, max int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), fmt.Errorf("%s must be a positive integer", name))
		return 0, false
	}
	if v > max {
		v = max
	}
	return v, true
}

func notFound(c *gin.Context, kind string, id any) {
	response.RespondError(c, http.StatusNotFound, string(domainagg.CodeNotFound), fmt.Errorf("%s %v not found", kind, id))
}

// optionalString tells an absent JSON field from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o optionalString) text() lexicon.OptionalText {
	return lexicon.OptionalText{Set: o.Set, Value: o.Value}
}

type optionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *optionalUUID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

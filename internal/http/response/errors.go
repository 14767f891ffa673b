package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	pkgerrors "github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/errors"
)

var statusByCode = map[domainagg.ErrorCode]int{
	domainagg.CodeDenied:              http.StatusForbidden,
	domainagg.CodeValidation:          http.StatusBadRequest,
	domainagg.CodeNotFound:            http.StatusNotFound,
	domainagg.CodeConstraintViolation: http.StatusConflict,
	domainagg.CodeCycleDetected:       http.StatusConflict,
	domainagg.CodeConflict:            http.StatusConflict,
	domainagg.CodeRetryable:           http.StatusServiceUnavailable,
	domainagg.CodeInternal:            http.StatusInternalServerError,
}

// Classify returns the HTTP status and wire code for err. Aggregate errors keep their
// code; authentication sentinels map to 401.
func Classify(err error) (int, string) {
	if code := domainagg.CodeOf(err); code != "" {
		if status, ok := statusByCode[code]; ok {
			return status, string(code)
		}
	}
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, string(domainagg.CodeInternal)
	}
}

// RespondDomainError renders err with the status its code maps to. Internal failures
// do not leak their cause.
func RespondDomainError(c *gin.Context, err error) {
	status, code := Classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal error"))
		return
	}
	RespondError(c, status, code, err)
}

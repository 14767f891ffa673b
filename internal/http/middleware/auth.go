package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
	pkgerrors "github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/errors"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/services"
)

const callerKey = "kolomoni.caller"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// Authenticate resolves the caller for every request. Requests without a token continue
// as anonymous; a token that does not verify is rejected.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Set(callerKey, auth.Anonymous())
			c.Next()
			return
		}
		ctx, caller, err := am.authService.CallerFromToken(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, pkgerrors.ErrUnauthorized) {
				am.log.Error("resolve caller failed", "error", err)
				response.AbortWithError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
				return
			}
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireAuth rejects anonymous callers. It must run after Authenticate.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerFrom(c).UserID == nil {
			response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller Authenticate stored, or an anonymous caller.
func CallerFrom(c *gin.Context) auth.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(auth.Caller); ok {
			return caller
		}
	}
	return auth.Anonymous()
}

// bearerToken reads the Authorization header only. Query strings end up in access logs
// and span attributes, so a token there is ignored.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

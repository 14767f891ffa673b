package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows the given origins, or the local dev frontends when none are configured.
// A single "*" allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		cleaned = defaultAllowedOrigins
	}
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders:    []string{headerRequestID, headerTraceID, response.HeaderFeedSeq, response.HeaderEditID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cleaned) == 1 && cleaned[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = cleaned
	}
	return cors.New(cfg)
}

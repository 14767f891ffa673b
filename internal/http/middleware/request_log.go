package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/ctxutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

// RequestLogger writes one line per request. Server errors log at error level with the
// handler errors attached through c.Error.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td, ok := ctxutil.TraceDataFrom(c.Request.Context()); ok {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if caller := CallerFrom(c); caller.UserID != nil {
			fields = append(fields, "user_id", caller.UserID.String())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Debug("HTTP request", fields...)
		}
	}
}

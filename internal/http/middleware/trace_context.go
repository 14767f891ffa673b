package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxRequestIDLen = 128
)

// AttachTraceContext puts a request id and trace id on the request context and echoes
// both as response headers. The trace id of the active otelgin span wins; otherwise a
// well-formed client id is kept and anything else is replaced with a fresh uuid.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := ctxutil.TraceData{RequestID: clientID(c.GetHeader(headerRequestID))}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			td.TraceID = sc.TraceID().String()
		} else {
			td.TraceID = clientID(c.GetHeader(headerTraceID))
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Header(headerTraceID, td.TraceID)
		c.Header(headerRequestID, td.RequestID)
		c.Next()
	}
}

// clientID accepts short printable ASCII ids so they are safe to log and echo.
func clientID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < 0x21 || raw[i] > 0x7e {
			return uuid.NewString()
		}
	}
	return raw
}

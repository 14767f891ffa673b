package ctxutil

import "context"

type traceKey struct{}

// TraceData identifies the HTTP request a context belongs to. TraceID follows the OTel
// span when tracing is on.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

// TraceDataFrom returns the ids attached by the HTTP middleware. Background work such as
// the indexer has none.
func TraceDataFrom(ctx context.Context) (TraceData, bool) {
	if ctx == nil {
		return TraceData{}, false
	}
	td, ok := ctx.Value(traceKey{}).(TraceData)
	return td, ok
}

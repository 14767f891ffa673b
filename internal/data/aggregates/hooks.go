package aggregates

import (
	"time"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
)

// Hooks receives write signals from the lexicon and user aggregates. They run on the
// request path and must not block.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
	// Committed reports the change feed sequence appended by a successful write.
	Committed(op string, seq int64)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}
func (noopHooks) Committed(string, int64)                        {}

// metricsHooks forwards to Metrics, whose methods tolerate a nil receiver.
type metricsHooks struct {
	m *observability.Metrics
}

func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{m: metrics}
}

func (h metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(op, status, dur)
}

func (h metricsHooks) IncConflict(op string) { h.m.IncAggregateConflict(op) }
func (h metricsHooks) IncRetry(op string)    { h.m.IncAggregateRetry(op) }

func (h metricsHooks) Committed(op string, seq int64) { h.m.ObserveFeedAppend(op, seq) }

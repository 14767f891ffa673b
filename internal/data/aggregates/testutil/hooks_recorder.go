package testutil

import (
	"sync"
	"time"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
)

var _ aggregates.Hooks = (*HooksRecorder)(nil)

// HooksRecorder is a concurrency-safe aggregates.Hooks for integration tests.
type HooksRecorder struct {
	mu     sync.Mutex
	events []HookEvent
}

type HookKind string

const (
	HookOperation HookKind = "operation"
	HookConflict  HookKind = "conflict"
	HookRetry     HookKind = "retry"
	HookCommitted HookKind = "committed"
)

type HookEvent struct {
	Kind     HookKind
	Op       string
	Status   string
	Duration time.Duration
	Seq      int64
}

func (h *HooksRecorder) record(e HookEvent) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *HooksRecorder) ObserveOperation(op, status string, dur time.Duration) {
	h.record(HookEvent{Kind: HookOperation, Op: op, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(op string) { h.record(HookEvent{Kind: HookConflict, Op: op}) }
func (h *HooksRecorder) IncRetry(op string)    { h.record(HookEvent{Kind: HookRetry, Op: op}) }

func (h *HooksRecorder) Committed(op string, seq int64) {
	h.record(HookEvent{Kind: HookCommitted, Op: op, Seq: seq})
}

// Events returns a copy of the recorded events of the given kinds, or all when none given.
func (h *HooksRecorder) Events(kinds ...HookKind) []HookEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HookEvent, 0, len(h.events))
	for _, e := range h.events {
		if len(kinds) == 0 || containsKind(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// LastStatus returns the status of the most recent operation named op, or "".
func (h *HooksRecorder) LastStatus(op string) string {
	ops := h.Events(HookOperation)
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Op == op {
			return ops[i].Status
		}
	}
	return ""
}

// CommittedSeqs lists the feed sequences reported by successful writes, in order.
func (h *HooksRecorder) CommittedSeqs() []int64 {
	var out []int64
	for _, e := range h.Events(HookCommitted) {
		out = append(out, e.Seq)
	}
	return out
}

func containsKind(kinds []HookKind, k HookKind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

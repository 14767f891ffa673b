package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// ---- lightweight metric primitives (Prometheus text exposition) ----

type family struct {
	name       string
	help       string
	kind       string
	labelNames []string
}

func (f family) writeHeader(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", f.name, f.help); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "# TYPE %s %s\n", f.name, f.kind)
	return err
}

// series is a float per label set, shared by counters and gauges.
type series struct {
	family
	mu     sync.RWMutex
	values map[string]float64
}

func newSeries(name, help, kind string, labels []string) *series {
	return &series{family: family{name: name, help: help, kind: kind, labelNames: labels}, values: map[string]float64{}}
}

func (s *series) update(fn func(float64) float64, values ...string) {
	lbl := labelString(s.labelNames, values)
	s.mu.Lock()
	s.values[lbl] = fn(s.values[lbl])
	s.mu.Unlock()
}

func (s *series) get(values ...string) float64 {
	lbl := labelString(s.labelNames, values)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[lbl]
}

func (s *series) WritePrometheus(w io.Writer) error {
	if err := s.writeHeader(w); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range sortedKeys(s.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", s.name, k, s.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ s *series }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{s: newSeries(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.s.update(func(cur float64) float64 { return cur + v }, values...)
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.s.get(values...)
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.s.WritePrometheus(w)
}

type Counter struct{ vec *CounterVec }

func NewCounter(name, help string) *Counter {
	return &Counter{vec: NewCounterVec(name, help, nil)}
}

func (c *Counter) Inc() {
	if c != nil {
		c.vec.Inc()
	}
}

func (c *Counter) Add(v float64) {
	if c != nil {
		c.vec.Add(v)
	}
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.vec.Value()
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.vec.WritePrometheus(w)
}

type GaugeVec struct{ s *series }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{s: newSeries(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.s.update(func(float64) float64 { return v }, values...)
}

func (g *GaugeVec) Add(v float64, values ...string) {
	if g == nil {
		return
	}
	g.s.update(func(cur float64) float64 { return cur + v }, values...)
}

func (g *GaugeVec) Value(values ...string) float64 {
	if g == nil {
		return 0
	}
	return g.s.get(values...)
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.s.WritePrometheus(w)
}

type Gauge struct{ vec *GaugeVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{vec: NewGaugeVec(name, help, nil)}
}

func (g *Gauge) Set(v float64) {
	if g != nil {
		g.vec.Set(v)
	}
}

func (g *Gauge) Inc() {
	if g != nil {
		g.vec.Add(1)
	}
}

func (g *Gauge) Dec() {
	if g != nil {
		g.vec.Add(-1)
	}
}

func (g *Gauge) Value() float64 {
	if g == nil {
		return 0
	}
	return g.vec.Value()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.vec.WritePrometheus(w)
}

type HistogramVec struct {
	family
	buckets []float64
	mu      sync.RWMutex
	values  map[string]*histogram
}

type histogram struct {
	counts []uint64 // cumulative per bucket, last is +Inf
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{
		family:  family{name: name, help: help, kind: "histogram", labelNames: labels},
		buckets: buckets,
		values:  map[string]*histogram{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range h.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(h.buckets)]++
}

func (h *HistogramVec) Count(values ...string) uint64 {
	if h == nil {
		return 0
	}
	lbl := labelString(h.labelNames, values)
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hist, ok := h.values[lbl]; ok {
		return hist.total
	}
	return 0
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := h.writeHeader(w); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, k := range sortedKeys(h.values) {
		v := h.values[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(h.buckets)]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %g\n%s_count%s %d\n", h.name, k, v.sum, h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) && values[i] != "" {
			val = values[i]
		}
		parts = append(parts, name+"=\""+escapeLabel(val)+"\"")
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	return strings.ReplaceAll(v, "\n", "\\n")
}

func withLe(labels string, le string) string {
	if labels == "" {
		return "{le=\"" + le + "\"}"
	}
	return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
}

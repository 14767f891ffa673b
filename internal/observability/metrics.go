package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec
	feedAppends        *CounterVec

	indexerApplied  *Counter
	indexerFailures *CounterVec
	indexerLag      *GaugeVec
	feedHead        *Gauge
	indexDocuments  *Gauge

	searchQueries *CounterVec
	searchLatency *HistogramVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when metrics are disabled;
// every Metrics method is safe on a nil receiver.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

// New returns an unregistered Metrics, mainly for tests.
func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	return &Metrics{
		apiRequests: NewCounterVec("kolomoni_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("kolomoni_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("kolomoni_api_inflight_requests", "In-flight API requests."),

		aggregateOps:       NewCounterVec("kolomoni_aggregate_operations_total", "Aggregate write operations by operation/status.", []string{"operation", "status"}),
		aggregateLatency:   NewHistogramVec("kolomoni_aggregate_operation_duration_seconds", "Aggregate write latency by operation/status.", []string{"operation", "status"}, latency),
		aggregateConflicts: NewCounterVec("kolomoni_aggregate_conflicts_total", "Aggregate writes rejected by a lease or CAS conflict.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("kolomoni_aggregate_retryable_total", "Aggregate writes that failed with a retryable error.", []string{"operation"}),
		feedAppends:        NewCounterVec("kolomoni_change_feed_appends_total", "Committed change feed entries by operation.", []string{"operation"}),

		indexerApplied:  NewCounter("kolomoni_indexer_entries_applied_total", "Change feed entries applied to the search index."),
		indexerFailures: NewCounterVec("kolomoni_indexer_failures_total", "Indexer failures by stage.", []string{"stage"}),
		indexerLag:      NewGaugeVec("kolomoni_indexer_cursor_lag", "Feed head minus the consumer cursor.", []string{"consumer"}),
		feedHead:        NewGauge("kolomoni_change_feed_head_seq", "Highest committed change feed sequence."),
		indexDocuments:  NewGauge("kolomoni_search_index_documents", "Documents held by the search index."),

		searchQueries: NewCounterVec("kolomoni_search_queries_total", "Search queries by language filter.", []string{"language"}),
		searchLatency: NewHistogramVec("kolomoni_search_duration_seconds", "Search latency in seconds.", []string{"language"}, latency),

		dbStats:   NewGaugeVec("kolomoni_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("kolomoni_redis_up", "1 when the last Redis ping succeeded."),
		redisPing: NewGauge("kolomoni_redis_ping_seconds", "Latency of the last Redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, p := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries, m.feedAppends,
		m.indexerApplied, m.indexerFailures, m.indexerLag, m.feedHead, m.indexDocuments,
		m.searchQueries, m.searchLatency,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := p.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(op)
}

// ObserveFeedAppend counts a committed feed entry and raises the head gauge to seq.
func (m *Metrics) ObserveFeedAppend(op string, seq int64) {
	if m == nil {
		return
	}
	m.feedAppends.Inc(op)
	if float64(seq) > m.feedHead.Value() {
		m.feedHead.Set(float64(seq))
	}
}

func (m *Metrics) AddIndexerApplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.indexerApplied.Add(float64(n))
}

func (m *Metrics) IncIndexerFailure(stage string) {
	if m == nil {
		return
	}
	m.indexerFailures.Inc(stage)
}

// SetIndexerLag publishes head and the consumer's lag behind it.
func (m *Metrics) SetIndexerLag(consumer string, head, cursor int64) {
	if m == nil {
		return
	}
	lag := head - cursor
	if lag < 0 {
		lag = 0
	}
	m.feedHead.Set(float64(head))
	m.indexerLag.Set(float64(lag), consumer)
}

func (m *Metrics) IndexerLag(consumer string) float64 {
	if m == nil {
		return 0
	}
	return m.indexerLag.Value(consumer)
}

func (m *Metrics) SetIndexDocuments(n int) {
	if m == nil {
		return
	}
	m.indexDocuments.Set(float64(n))
}

func (m *Metrics) ObserveSearch(language string, dur time.Duration) {
	if m == nil {
		return
	}
	if language == "" {
		language = "any"
	}
	m.searchQueries.Inc(language)
	m.searchLatency.Observe(dur.Seconds(), language)
}

package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveAggregateOperation("CreateWord", "success", time.Millisecond)
	m.SetIndexerLag("search", 10, 3)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestIndexerLagClampsAtZero(t *testing.T) {
	m := New()
	m.SetIndexerLag("search", 10, 3)
	if got := m.IndexerLag("search"); got != 7 {
		t.Fatalf("lag: want=7 got=%v", got)
	}
	m.SetIndexerLag("search", 3, 10)
	if got := m.IndexerLag("search"); got != 0 {
		t.Fatalf("lag: want=0 got=%v", got)
	}
}

func TestWritePrometheusIsSortedAndLabelled(t *testing.T) {
	m := New()
	m.ObserveAggregateOperation("UpdateWord", "success", 20*time.Millisecond)
	m.ObserveAggregateOperation("CreateWord", "constraint_violation", time.Millisecond)
	m.ObserveSearch("", 2*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	create := strings.Index(out, `kolomoni_aggregate_operations_total{operation="CreateWord",status="constraint_violation"} 1`)
	update := strings.Index(out, `kolomoni_aggregate_operations_total{operation="UpdateWord",status="success"} 1`)
	if create < 0 || update < 0 || create > update {
		t.Fatalf("unexpected aggregate series:\n%s", out)
	}
	if !strings.Contains(out, `kolomoni_search_duration_seconds_bucket{language="any",le="+Inf"} 1`) {
		t.Fatalf("missing search histogram:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE kolomoni_indexer_cursor_lag gauge") {
		t.Fatalf("missing lag header:\n%s", out)
	}
}

func TestLabelEscaping(t *testing.T) {
	if got := labelString([]string{"route"}, []string{`a"b`}); got != `{route="a\"b"}` {
		t.Fatalf("escaped label: %s", got)
	}
	if got := withLe(`{a="b"}`, "0.5"); got != `{a="b",le="0.5"}` {
		t.Fatalf("withLe: %s", got)
	}
	if got := labelString([]string{"x"}, nil); got != `{x="unknown"}` {
		t.Fatalf("missing value: %s", got)
	}
}

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	err := prometheus.Register(SearchQueriesTotal)
	var already prometheus.AlreadyRegisteredError
	if err == nil {
		t.Fatal("search metrics should already be registered")
	}
	if !errors.As(err, &already) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSearchMetrics_Labels(t *testing.T) {
	RegisterSearchMetrics()

	before := testutil.ToFloat64(SearchQueriesTotal.WithLabelValues("text", "ok"))
	SearchQueriesTotal.WithLabelValues("text", "ok").Inc()
	if got := testutil.ToFloat64(SearchQueriesTotal.WithLabelValues("text", "ok")); got != before+1 {
		t.Errorf("search_queries_total: got %f, want %f", got, before+1)
	}

	SearchEngineDuration.WithLabelValues("msearch").Observe(0.02)
	SearchHypotheses.Observe(6)
	SearchParsedIntentsTotal.WithLabelValues("genre").Inc()

	if n := testutil.CollectAndCount(SearchEngineDuration); n == 0 {
		t.Error("expected engine duration observations")
	}
	if n := testutil.CollectAndCount(SearchParsedIntentsTotal); n == 0 {
		t.Error("expected parsed intent counts")
	}
}

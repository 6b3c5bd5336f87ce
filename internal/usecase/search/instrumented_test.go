package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	"github.com/kailas-cloud/shelfdex/internal/metrics"
)

func fixedClock(step time.Duration) func() time.Time {
	now := time.Unix(1700000000, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestInstrumentedRepository_Search(t *testing.T) {
	inner := &mockRepo{set: &result.Set{Hits: hits(1), Total: 1}}
	r := NewInstrumentedRepository(inner, zap.NewNop())
	r.now = fixedClock(20 * time.Millisecond)

	before := testutil.CollectAndCount(metrics.SearchEngineDuration)
	set, err := r.Search(context.Background(), &dsl.Search{Query: dsl.MatchAll{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Total != 1 {
		t.Errorf("total = %d", set.Total)
	}
	if testutil.CollectAndCount(metrics.SearchEngineDuration) < before {
		t.Error("expected engine duration to be observed")
	}
	if len(inner.searched) != 1 {
		t.Errorf("expected one inner call, got %d", len(inner.searched))
	}
}

func TestInstrumentedRepository_SearchError(t *testing.T) {
	boom := errors.New("boom")
	r := NewInstrumentedRepository(&mockRepo{err: boom}, nil)

	_, err := r.Search(context.Background(), &dsl.Search{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestInstrumentedRepository_MultiSearch(t *testing.T) {
	inner := &mockRepo{}
	r := NewInstrumentedRepository(inner, zap.NewNop())

	sets, err := r.MultiSearch(context.Background(), []*dsl.Search{{}, {}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 2 || len(inner.batches) != 1 {
		t.Errorf("sets = %d, batches = %d", len(sets), len(inner.batches))
	}
}

func TestInstrumentedRepository_EmptyBatch(t *testing.T) {
	inner := &mockRepo{}
	r := NewInstrumentedRepository(inner, zap.NewNop())

	sets, err := r.MultiSearch(context.Background(), nil)
	if err != nil || sets != nil {
		t.Fatalf("expected nil, nil; got %v, %v", sets, err)
	}
	if len(inner.batches) != 0 {
		t.Error("empty batches never reach the engine")
	}
}

func TestInstrumentedRepository_MultiSearchError(t *testing.T) {
	r := NewInstrumentedRepository(&mockRepo{err: errors.New("boom")}, zap.NewNop())

	if _, err := r.MultiSearch(context.Background(), []*dsl.Search{{}}); err == nil {
		t.Fatal("expected error")
	}
}

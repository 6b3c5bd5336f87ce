package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn      func(ctx context.Context, s *dsl.Search) (*db.SearchResult, error)
	multiSearchFn func(ctx context.Context, ss []*dsl.Search) ([]*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, s *dsl.Search) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, s)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*db.SearchResult, error) {
	if m.multiSearchFn != nil {
		return m.multiSearchFn(ctx, ss)
	}
	out := make([]*db.SearchResult, len(ss))
	for i := range ss {
		out[i] = &db.SearchResult{}
	}
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	return repo, ms
}

func testSearch() *dsl.Search {
	return &dsl.Search{Query: dsl.MatchAll{}, Size: dsl.Int(10)}
}

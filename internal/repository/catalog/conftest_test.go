package catalog

import (
	"context"
	"path"
	"sort"
	"testing"

	"github.com/kailas-cloud/shelfdex/internal/db"
	domcat "github.com/kailas-cloud/shelfdex/internal/domain/catalog"
)

// mockStore keeps hashes and sets in maps. The fn fields override a
// method for error injection.
type mockStore struct {
	hashes map[string]map[string]string
	sets   map[string]map[string]bool

	hsetFn     func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn  func(ctx context.Context, key string) (map[string]string, error)
	scanFn     func(ctx context.Context, pattern string) ([]string, error)
	smembersFn func(ctx context.Context, key string) ([]string, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		if err := m.HSet(ctx, item.Key, item.Fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	h, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	delete(m.sets, key)
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	var keys []string
	for k := range m.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mockStore) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]bool, len(members))
		m.sets[key] = s
	}
	for _, member := range members {
		s[member] = true
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]bool),
	}
	return New(ms, ""), ms
}

func testLibrary() domcat.Library {
	return domcat.Library{
		ID:        3,
		ShortName: "nypl",
		Collections: []domcat.Collection{
			{ID: 1, Active: true},
			{ID: 2, Active: false},
			{ID: 5, Active: true},
		},
		AllowHolds:             true,
		FilteredAudiences:      []string{"Adults Only"},
		FilteredGenres:         []string{"Erotica"},
		MinimumFeaturedQuality: 0.65,
	}
}

func int64Ptr(v int64) *int64 { return &v }

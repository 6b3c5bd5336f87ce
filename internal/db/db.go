package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// Engine is the search engine facade combining all sub-interfaces.
type Engine interface {
	Pinger
	Searcher
	Close()
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs compiled searches against the works index.
type Searcher interface {
	Search(ctx context.Context, s *dsl.Search) (*SearchResult, error)
	// MultiSearch runs every search in one round trip. Results keep the
	// order of the searches.
	MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*SearchResult, error)
}

// CatalogStore is the catalog facts database facade.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type CatalogStore interface {
	Pinger
	HashStore
	SetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// SetStore provides set operations.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

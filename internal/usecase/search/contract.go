package search

import (
	"context"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
)

// Repository runs compiled searches.
type Repository interface {
	Search(ctx context.Context, s *dsl.Search) (*result.Set, error)
	// MultiSearch keeps the order of the searches.
	MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*result.Set, error)
}

// CatalogReader reads the library and lane facts a search is scoped by.
type CatalogReader interface {
	Library(ctx context.Context, shortName string) (*catalog.Library, error)
	// LaneChain returns the lane and its ancestors, root first.
	LaneChain(ctx context.Context, id int64) ([]catalog.Lane, error)
}

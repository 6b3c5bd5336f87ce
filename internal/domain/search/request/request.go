package request

import (
	"fmt"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/facet"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/pagination"
)

// MaxQueryLength is the maximum allowed search query length.
const MaxQueryLength = 4096

// Paging strategies.
const (
	PagingOffset  = "offset"
	PagingSortKey = "key"
)

// Facets are the patron's choices that shape a search.
type Facets struct {
	Order         string
	Ascending     *bool
	Availability  string
	Collection    string
	EntryPoint    string
	Featured      bool
	MinScore      *float64
	Languages     []string
	Media         []string
	DistributorID *int64
	CollectionID  *int64
}

// Params is an unvalidated search request.
type Params struct {
	Query string
	Mode  mode.Mode
	// Filter holds raw filter options, see filter.OptionsFromMap.
	Filter  map[string]any
	Facets  Facets
	Library string
	LaneID  *int64
	Paging  string
	Key     string
	Offset  int
	Size    int
	Explain bool
	// Suppressed lists the works the library hides instead of the ones
	// it shows.
	Suppressed bool
}

// Request is a validated search.
type Request struct {
	query      string
	searchMode mode.Mode
	options    filter.Options
	facets     Facets
	library    string
	laneID     *int64
	paging     string
	key        string
	offset     int
	size       int
	explain    bool
	suppressed bool
}

// New validates and normalizes search parameters.
// Defaults: mode=default, paging=offset unless a key is given.
func New(p Params) (Request, error) {
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	m := p.Mode
	if m == "" {
		m = mode.Text
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode: %q", domain.ErrInvalidQuery, m)
	}
	if m == mode.JSON && p.Query == "" {
		return Request{}, fmt.Errorf("%w: a json search needs a query", domain.ErrInvalidQuery)
	}
	if p.LaneID != nil && p.Library == "" {
		return Request{}, fmt.Errorf("%w: a lane needs its library", domain.ErrInvalidFilter)
	}
	if p.Suppressed && (p.Library == "" || p.LaneID != nil) {
		return Request{}, fmt.Errorf("%w: suppressed works are listed per library, not per lane", domain.ErrInvalidFilter)
	}

	opts, err := filter.OptionsFromMap(p.Filter)
	if err != nil {
		return Request{}, err
	}

	paging := p.Paging
	if paging == "" {
		paging = PagingOffset
		if p.Key != "" {
			paging = PagingSortKey
		}
	}

	r := Request{
		query:      p.Query,
		searchMode: m,
		options:    opts,
		facets:     p.Facets,
		library:    p.Library,
		laneID:     p.LaneID,
		paging:     paging,
		key:        p.Key,
		offset:     p.Offset,
		size:       p.Size,
		explain:    p.Explain,
		suppressed: p.Suppressed,
	}
	if _, err := r.Pagination(); err != nil {
		return Request{}, err
	}
	if _, err := r.FacetChain(nil, filter.Deterministic); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the query language.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Options returns the decoded filter options. Slices are shared.
func (r *Request) Options() filter.Options { return r.options }

// Library returns the short name of the library searched, if any.
func (r *Request) Library() string { return r.library }

// LaneID returns the lane being browsed, nil for a plain search.
func (r *Request) LaneID() *int64 { return r.laneID }

// Explain reports whether scoring explanations are requested.
func (r *Request) Explain() bool { return r.explain }

// Suppressed reports whether the request lists works hidden from the
// library.
func (r *Request) Suppressed() bool { return r.suppressed }

// Pagination returns fresh page state for this request.
func (r *Request) Pagination() (pagination.Pagination, error) {
	switch r.paging {
	case PagingOffset:
		if r.key != "" {
			return nil, fmt.Errorf("%w: a key needs key paging", domain.ErrInvalidPagination)
		}
		return pagination.NewOffset(r.offset, r.size)
	case PagingSortKey:
		if r.offset != 0 {
			return nil, fmt.Errorf("%w: key paging has no offset", domain.ErrInvalidPagination)
		}
		return pagination.SortKeyFromRequest(r.key, r.size)
	}
	return nil, fmt.Errorf("%w: unknown paging %q", domain.ErrInvalidPagination, r.paging)
}

// FacetChain builds the facet policies for the library being searched.
// Key paging without an explicit order sorts by work ID so that every
// page has a sort tuple to continue from.
func (r *Request) FacetChain(lib *catalog.Library, seed filter.RandomSeed) (facet.Chain, error) {
	var chain facet.Chain
	fc := r.facets

	order := fc.Order
	if order == "" && r.paging == PagingSortKey {
		order = facet.OrderWorkID
	}
	if order != "" {
		o, err := facet.NewOrdering(order, fc.Ascending)
		if err != nil {
			return nil, err
		}
		chain = append(chain, o)
	}
	if fc.Availability != "" {
		a, err := facet.NewAvailability(fc.Availability)
		if err != nil {
			return nil, err
		}
		chain = append(chain, a)
	}
	var minimumQuality float64
	if lib != nil {
		minimumQuality = lib.MinimumFeaturedQuality
	}
	if fc.Collection != "" {
		c, err := facet.NewCollection(fc.Collection, minimumQuality)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
	if fc.EntryPoint != "" {
		e, err := facet.NewEntryPoint(fc.EntryPoint)
		if err != nil {
			return nil, err
		}
		chain = append(chain, e)
	}
	if fc.DistributorID != nil {
		chain = append(chain, facet.Distributor{DataSourceID: *fc.DistributorID})
	}
	if fc.CollectionID != nil {
		chain = append(chain, facet.CollectionName{CollectionID: *fc.CollectionID})
	}
	if fc.Featured {
		chain = append(chain, facet.Featured{MinimumQuality: minimumQuality, Seed: seed})
	}
	if r.query != "" {
		chain = append(chain, facet.Search{
			MinScore:  fc.MinScore,
			Languages: fc.Languages,
			Media:     fc.Media,
			Type:      string(r.searchMode),
		})
	}
	return chain, nil
}

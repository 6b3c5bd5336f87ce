package shelfdex

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/facet"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/request"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
)

// SearchMode selects the query language.
type SearchMode string

// Search mode constants.
const (
	ModeText SearchMode = SearchMode(mode.Text)
	ModeJSON SearchMode = SearchMode(mode.JSON)
)

// Orders.
const (
	OrderTitle             = facet.OrderTitle
	OrderAuthor            = facet.OrderAuthor
	OrderLastUpdate        = facet.OrderLastUpdate
	OrderAddedToCollection = facet.OrderAddedToCollection
	OrderSeriesPosition    = facet.OrderSeriesPosition
	OrderWorkID            = facet.OrderWorkID
	OrderRandom            = facet.OrderRandom
)

// Availability facets.
const (
	AvailableAll        = filter.AvailableAll
	AvailableNow        = filter.AvailableNow
	AvailableOpenAccess = filter.AvailableOpenAccess
	AvailableNotNow     = filter.AvailableNotNow
)

// Entry points.
const (
	EntryPointAll   = facet.EntryPointAll
	EntryPointBook  = facet.EntryPointBook
	EntryPointAudio = facet.EntryPointAudio
)

// Facets are the patron's choices that shape a search.
type Facets struct {
	Order        string
	Ascending    *bool
	Availability string
	// Collection is "full" or "featured".
	Collection    string
	EntryPoint    string
	Featured      bool
	MinScore      *float64
	Languages     []string
	Media         []string
	DistributorID *int64
	CollectionID  *int64
}

// SearchRequest describes one search.
type SearchRequest struct {
	Query string
	Mode  SearchMode
	// Filter holds raw filter options, for example {"fiction": true}.
	Filter  map[string]any
	Facets  Facets
	Library string
	LaneID  *int64
	Cursor  *Cursor
	Size    int
	Explain bool
	// Suppressed lists the works the library hides. It needs Library.
	Suppressed bool
}

// Cursor is the position of another page. Pass Page.Next back as
// SearchRequest.Cursor to continue.
type Cursor struct {
	Key    string `json:"key,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	Size   int    `json:"size"`
}

// Hit is one matching work.
type Hit struct {
	WorkID      int64
	Score       float64
	Sort        []any
	Fields      map[string]any
	Explanation json.RawMessage
}

// Page is one page of a search.
type Page struct {
	SearchID string
	Hits     []Hit
	Total    int64
	Took     time.Duration
	// Next is nil on the last page.
	Next *Cursor
}

// WorkIDs returns the IDs of the page's works in order.
func (p *Page) WorkIDs() []int64 {
	ids := make([]int64, len(p.Hits))
	for i := range p.Hits {
		ids[i] = p.Hits[i].WorkID
	}
	return ids
}

// AgeRange is an inclusive target age range. Nil bounds are open.
type AgeRange struct {
	Lower *int
	Upper *int
}

// Intents are what the query parser recognized in a free-text query.
type Intents struct {
	Genre     string
	Audience  string
	Fiction   string
	TargetAge *AgeRange
}

// Explanation is a compiled search that was not run.
type Explanation struct {
	// Kind is "text", "json", "browse" or "lane".
	Kind         string
	MatchNothing bool
	Hypotheses   int
	Intents      *Intents
	Cursor       Cursor
	// Request is the OpenSearch request body.
	Request json.RawMessage
}

func (r *SearchRequest) params() request.Params {
	p := request.Params{
		Query:      r.Query,
		Mode:       mode.Mode(r.Mode),
		Filter:     r.Filter,
		Library:    r.Library,
		LaneID:     r.LaneID,
		Size:       r.Size,
		Explain:    r.Explain,
		Suppressed: r.Suppressed,
		Facets: request.Facets{
			Order:         r.Facets.Order,
			Ascending:     r.Facets.Ascending,
			Availability:  r.Facets.Availability,
			Collection:    r.Facets.Collection,
			EntryPoint:    r.Facets.EntryPoint,
			Featured:      r.Facets.Featured,
			MinScore:      r.Facets.MinScore,
			Languages:     r.Facets.Languages,
			Media:         r.Facets.Media,
			DistributorID: r.Facets.DistributorID,
			CollectionID:  r.Facets.CollectionID,
		},
	}
	if c := r.Cursor; c != nil {
		p.Key = c.Key
		if c.Offset != nil {
			p.Offset = *c.Offset
			p.Paging = request.PagingOffset
		}
		if c.Size > 0 && p.Size == 0 {
			p.Size = c.Size
		}
	}
	return p
}

func cursorFromResult(c *result.Cursor) *Cursor {
	if c == nil {
		return nil
	}
	return &Cursor{Key: c.Key, Offset: c.Offset, Size: c.Size}
}

func pageFromResult(p *result.Page) *Page {
	hits := make([]Hit, len(p.Hits))
	for i := range p.Hits {
		h := &p.Hits[i]
		hits[i] = Hit{
			WorkID:      h.WorkID(),
			Score:       h.Score(),
			Sort:        h.Sort(),
			Fields:      h.Fields(),
			Explanation: h.Explanation(),
		}
	}
	return &Page{
		SearchID: p.SearchID,
		Hits:     hits,
		Total:    p.Total,
		Took:     p.Took,
		Next:     cursorFromResult(p.Next),
	}
}

func explanationFromCompiled(c *searchuc.Compiled) (*Explanation, error) {
	body, err := json.Marshal(c.Search)
	if err != nil {
		return nil, fmt.Errorf("shelfdex: marshal compiled search: %w", err)
	}
	cursor := c.Pagination.Cursor()
	e := &Explanation{
		Kind:         c.Kind,
		MatchNothing: c.MatchNothing,
		Hypotheses:   c.Hypotheses,
		Cursor:       *cursorFromResult(&cursor),
		Request:      body,
	}
	if in := c.Intents; in != nil {
		e.Intents = &Intents{Genre: in.Genre, Audience: in.Audience, Fiction: in.Fiction}
		if in.TargetAge != nil {
			e.Intents.TargetAge = &AgeRange{Lower: in.TargetAge.Lower, Upper: in.TargetAge.Upper}
		}
	}
	return e, nil
}

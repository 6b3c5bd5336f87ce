package chi

import (
	"encoding/json"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/parser"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/request"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
)

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnknownOption     ErrorCode = "unknown_option"
	CodeInvalidPagination ErrorCode = "invalid_pagination"
	CodeInvalidSort       ErrorCode = "invalid_sort"
	CodeNotFound          ErrorCode = "not_found"
	CodeSearchEngineError ErrorCode = "search_engine_error"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Options lists the rejected option names of an unknown_option error.
	Options []string `json:"options,omitempty"`
}

// SearchFacets are the patron's choices.
type SearchFacets struct {
	Order          string   `json:"order,omitempty"`
	Ascending      *bool    `json:"ascending,omitempty"`
	Availability   string   `json:"availability,omitempty"`
	Collection     string   `json:"collection,omitempty"`
	EntryPoint     string   `json:"entrypoint,omitempty"`
	Featured       bool     `json:"featured,omitempty"`
	MinScore       *float64 `json:"min_score,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	Media          []string `json:"media,omitempty"`
	Distributor    *int64   `json:"distributor,omitempty"`
	CollectionName *int64   `json:"collection_name,omitempty"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query   string         `json:"query,omitempty"`
	Mode    string         `json:"mode,omitempty"`
	Filter  map[string]any `json:"filter,omitempty"`
	Facets  *SearchFacets  `json:"facets,omitempty"`
	Library string         `json:"library,omitempty"`
	Lane    *int64         `json:"lane,omitempty"`
	Paging  string         `json:"paging,omitempty"`
	Key     string         `json:"key,omitempty"`
	Offset  int            `json:"offset,omitempty"`
	Size    int            `json:"size,omitempty"`
	Explain bool           `json:"explain,omitempty"`
	// Suppressed lists the works the library hides.
	Suppressed bool `json:"suppressed,omitempty"`
}

// MultiSearchRequest is the body of POST /api/v1/msearch.
type MultiSearchRequest struct {
	Searches []SearchRequest `json:"searches"`
}

// HitResponse is one matching work.
type HitResponse struct {
	WorkID      int64           `json:"work_id"`
	Score       float64         `json:"score"`
	Sort        []any           `json:"sort,omitempty"`
	Fields      map[string]any  `json:"fields,omitempty"`
	Explanation json.RawMessage `json:"explanation,omitempty"`
}

// SearchResponse is one page of a search.
type SearchResponse struct {
	SearchID string         `json:"search_id"`
	Total    int64          `json:"total"`
	TookMS   int64          `json:"took_ms"`
	Hits     []HitResponse  `json:"hits"`
	Next     *result.Cursor `json:"next,omitempty"`
}

// MultiSearchResponse keeps the order of the searches.
type MultiSearchResponse struct {
	Responses []SearchResponse `json:"responses"`
}

// ExplainResponse shows a compiled search without running it.
type ExplainResponse struct {
	Kind         string          `json:"kind"`
	MatchNothing bool            `json:"match_nothing"`
	Hypotheses   int             `json:"hypotheses"`
	Intents      *parser.Intents `json:"intents,omitempty"`
	Cursor       result.Cursor   `json:"cursor"`
	Request      json.RawMessage `json:"request"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r *SearchRequest) params() request.Params {
	p := request.Params{
		Query:      r.Query,
		Mode:       mode.Mode(r.Mode),
		Filter:     r.Filter,
		Library:    r.Library,
		LaneID:     r.Lane,
		Paging:     r.Paging,
		Key:        r.Key,
		Offset:     r.Offset,
		Size:       r.Size,
		Explain:    r.Explain,
		Suppressed: r.Suppressed,
	}
	if f := r.Facets; f != nil {
		p.Facets = request.Facets{
			Order:         f.Order,
			Ascending:     f.Ascending,
			Availability:  f.Availability,
			Collection:    f.Collection,
			EntryPoint:    f.EntryPoint,
			Featured:      f.Featured,
			MinScore:      f.MinScore,
			Languages:     f.Languages,
			Media:         f.Media,
			DistributorID: f.Distributor,
			CollectionID:  f.CollectionName,
		}
	}
	return p
}

func pageToResponse(p *result.Page) SearchResponse {
	hits := make([]HitResponse, len(p.Hits))
	for i := range p.Hits {
		h := &p.Hits[i]
		hits[i] = HitResponse{
			WorkID:      h.WorkID(),
			Score:       h.Score(),
			Sort:        h.Sort(),
			Fields:      h.Fields(),
			Explanation: h.Explanation(),
		}
	}
	return SearchResponse{
		SearchID: p.SearchID,
		Total:    p.Total,
		TookMS:   p.Took.Milliseconds(),
		Hits:     hits,
		Next:     p.Next,
	}
}

func compiledToResponse(c *searchuc.Compiled) (ExplainResponse, error) {
	body, err := json.Marshal(c.Search)
	if err != nil {
		return ExplainResponse{}, err
	}
	return ExplainResponse{
		Kind:         c.Kind,
		MatchNothing: c.MatchNothing,
		Hypotheses:   c.Hypotheses,
		Intents:      c.Intents,
		Cursor:       c.Pagination.Cursor(),
		Request:      body,
	}, nil
}

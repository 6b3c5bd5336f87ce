package result

import (
	"encoding/json"
	"time"
)

// Hit is a single matching work.
type Hit struct {
	workID      int64
	score       float64
	sort        []any
	fields      map[string]any
	explanation json.RawMessage
}

// New creates a search hit. sort holds the hit's values for every
// element of the sort chain, in order.
func New(
	workID int64, score float64, sort []any,
	fields map[string]any, explanation json.RawMessage,
) Hit {
	return Hit{
		workID: workID, score: score, sort: sort,
		fields: fields, explanation: explanation,
	}
}

// WorkID returns the work identifier.
func (h *Hit) WorkID() int64 { return h.workID }

// Score returns the relevance score.
func (h *Hit) Score() float64 { return h.score }

// Sort returns the sort tuple, empty for relevance-ranked searches.
func (h *Hit) Sort() []any { return h.sort }

// Fields returns the computed script fields.
func (h *Hit) Fields() map[string]any { return h.fields }

// Explanation returns the engine's scoring breakdown, if requested.
func (h *Hit) Explanation() json.RawMessage { return h.explanation }

// Cursor carries the parameters of another page.
type Cursor struct {
	Key    string `json:"key,omitempty"`
	Offset *int   `json:"offset,omitempty"`
	Size   int    `json:"size"`
}

// Set is what the engine returned for one search.
type Set struct {
	Hits  []Hit
	Total int64
	Took  time.Duration
}

// Page is one page of hits.
type Page struct {
	SearchID string
	Hits     []Hit
	Total    int64
	Took     time.Duration
	// Next is nil on the last page.
	Next *Cursor
}

package opensearch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
)

// ResponseError is a failed engine request.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: status %d: %s", domain.ErrSearchEngine, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: status %d: %s: %s", domain.ErrSearchEngine, e.Status, e.Type, e.Reason)
}

func (e *ResponseError) Unwrap() error { return domain.ErrSearchEngine }

// errorBody is the engine's error object. Some proxies answer with a
// bare string instead.
type errorBody struct {
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	RootCause []struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"root_cause"`
}

func (b *errorBody) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Reason = s
		return nil
	}
	type plain errorBody
	return json.Unmarshal(data, (*plain)(b))
}

func (b *errorBody) asError(status int) *ResponseError {
	e := &ResponseError{Status: status, Type: b.Type, Reason: b.Reason}
	if len(b.RootCause) > 0 && e.Reason == "" {
		e.Type, e.Reason = b.RootCause[0].Type, b.RootCause[0].Reason
	}
	return e
}

func decodeError(status int, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return &ResponseError{Status: status, Reason: err.Error()}
	}
	var body struct {
		Error *errorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == nil {
		return &ResponseError{Status: status, Reason: string(raw)}
	}
	return body.Error.asError(status)
}

type hit struct {
	ID          string           `json:"_id"`
	Score       *json.Number     `json:"_score"`
	Source      map[string]any   `json:"_source"`
	Sort        []any            `json:"sort"`
	Fields      map[string][]any `json:"fields"`
	Explanation json.RawMessage  `json:"_explanation"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
	// Set on failed items of a multi-search.
	Error  *errorBody `json:"error"`
	Status int        `json:"status"`
}

type multiSearchResponse struct {
	Took      int64            `json:"took"`
	Responses []searchResponse `json:"responses"`
}

func (r *searchResponse) result() *db.SearchResult {
	out := &db.SearchResult{
		Total:   r.Hits.Total.Value,
		Took:    time.Duration(r.Took) * time.Millisecond,
		Entries: make([]db.SearchEntry, 0, len(r.Hits.Hits)),
	}
	for _, h := range r.Hits.Hits {
		var score float64
		if h.Score != nil {
			score, _ = h.Score.Float64()
		}
		out.Entries = append(out.Entries, db.SearchEntry{
			ID:          h.ID,
			Score:       score,
			Source:      h.Source,
			Sort:        h.Sort,
			Fields:      h.Fields,
			Explanation: h.Explanation,
		})
	}
	return out
}

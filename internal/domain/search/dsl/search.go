package dsl

import "encoding/json"

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Sort is one element of a sort chain.
type Sort interface {
	json.Marshaler
	// Key names the value being sorted on.
	Key() string
	// Direction returns Asc or Desc.
	Direction() string
}

// NestedSort scopes a sort to a nested path, optionally filtered.
type NestedSort struct {
	Path   string `json:"path"`
	Filter Query  `json:"filter,omitempty"`
}

// FieldSort orders by a document field. Mode and Nested apply to
// multi-valued nested fields.
type FieldSort struct {
	Field  string
	Order  string
	Mode   string
	Nested *NestedSort
}

type fieldSortBody struct {
	Order  string      `json:"order"`
	Mode   string      `json:"mode,omitempty"`
	Nested *NestedSort `json:"nested,omitempty"`
}

// Key implements Sort.
func (s FieldSort) Key() string { return s.Field }

// Direction implements Sort.
func (s FieldSort) Direction() string { return s.Order }

// MarshalJSON implements json.Marshaler.
func (s FieldSort) MarshalJSON() ([]byte, error) {
	if s.Mode == "" && s.Nested == nil {
		return json.Marshal(map[string]string{s.Field: s.Order})
	}
	return json.Marshal(map[string]any{s.Field: fieldSortBody{Order: s.Order, Mode: s.Mode, Nested: s.Nested}})
}

// StoredScript references a server-side script by name.
type StoredScript struct {
	Stored string         `json:"stored"`
	Params map[string]any `json:"params,omitempty"`
}

// ScriptSort orders by the numeric output of a stored script.
type ScriptSort struct {
	Script StoredScript
	Order  string
}

type scriptSortBody struct {
	Type   string       `json:"type"`
	Script StoredScript `json:"script"`
	Order  string       `json:"order"`
}

// Key implements Sort.
func (s ScriptSort) Key() string { return s.Script.Stored }

// Direction implements Sort.
func (s ScriptSort) Direction() string { return s.Order }

// MarshalJSON implements json.Marshaler.
func (s ScriptSort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"_script": scriptSortBody{Type: "number", Script: s.Script, Order: s.Order}})
}

// ScoreSort orders by relevance score.
type ScoreSort struct {
	Order string
}

// Key implements Sort.
func (ScoreSort) Key() string { return "_score" }

// Direction implements Sort.
func (s ScoreSort) Direction() string { return s.Order }

// MarshalJSON implements json.Marshaler.
func (s ScoreSort) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"_score": s.Order})
}

// ScriptField asks the engine to compute a value per hit.
type ScriptField struct {
	Script StoredScript `json:"script"`
}

// Search is a complete request body.
type Search struct {
	Query        Query
	Sort         []Sort
	ScriptFields map[string]ScriptField
	SearchAfter  []any
	From         *int
	Size         *int
	MinScore     *float64
	Source       []string
	Explain      bool
}

type searchBody struct {
	Query        Query                  `json:"query"`
	Sort         []Sort                 `json:"sort,omitempty"`
	ScriptFields map[string]ScriptField `json:"script_fields,omitempty"`
	SearchAfter  []any                  `json:"search_after,omitempty"`
	From         *int                   `json:"from,omitempty"`
	Size         *int                   `json:"size,omitempty"`
	MinScore     *float64               `json:"min_score,omitempty"`
	Source       []string               `json:"_source,omitempty"`
	Explain      bool                   `json:"explain,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s *Search) MarshalJSON() ([]byte, error) {
	q := s.Query
	if q == nil {
		q = MatchAll{}
	}
	return json.Marshal(searchBody{
		Query:        q,
		Sort:         s.Sort,
		ScriptFields: s.ScriptFields,
		SearchAfter:  s.SearchAfter,
		From:         s.From,
		Size:         s.Size,
		MinScore:     s.MinScore,
		Source:       s.Source,
		Explain:      s.Explain,
	})
}

// Clone returns a shallow copy whose slices can be replaced independently.
func (s *Search) Clone() *Search {
	c := *s
	c.Sort = append([]Sort(nil), s.Sort...)
	c.SearchAfter = append([]any(nil), s.SearchAfter...)
	return &c
}

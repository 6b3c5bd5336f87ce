// Package dsl is a typed rendition of the search engine's query language.
// Every node marshals to the exact JSON the engine expects.
package dsl

import "encoding/json"

// Query is a node of the query tree.
type Query interface {
	json.Marshaler
	Kind() string
}

func wrap(kind string, body any) ([]byte, error) {
	return json.Marshal(map[string]any{kind: body})
}

func field(name string, body any) map[string]any {
	return map[string]any{name: body}
}

// Float returns a pointer to f, for optional boosts and scores.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// MatchAll matches every document.
type MatchAll struct {
	Boost *float64
}

// Kind implements Query.
func (MatchAll) Kind() string { return "match_all" }

// MarshalJSON implements json.Marshaler.
func (q MatchAll) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if q.Boost != nil {
		body["boost"] = *q.Boost
	}
	return wrap(q.Kind(), body)
}

// MatchNone matches no document.
type MatchNone struct{}

// Kind implements Query.
func (MatchNone) Kind() string { return "match_none" }

// MarshalJSON implements json.Marshaler.
func (q MatchNone) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), map[string]any{})
}

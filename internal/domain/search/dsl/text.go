package dsl

// Match is an analyzed full-text match.
type Match struct {
	Field              string
	Query              string
	MinimumShouldMatch any
	Fuzziness          string
	MaxExpansions      int
	PrefixLength       int
}

type matchBody struct {
	Query              string `json:"query"`
	MinimumShouldMatch any    `json:"minimum_should_match,omitempty"`
	Fuzziness          string `json:"fuzziness,omitempty"`
	MaxExpansions      int    `json:"max_expansions,omitempty"`
	PrefixLength       int    `json:"prefix_length,omitempty"`
}

// Kind implements Query.
func (Match) Kind() string { return "match" }

// Fuzzy reports whether the match tolerates typos.
func (q Match) Fuzzy() bool { return q.Fuzziness != "" }

// MarshalJSON implements json.Marshaler.
func (q Match) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), field(q.Field, matchBody{
		Query:              q.Query,
		MinimumShouldMatch: q.MinimumShouldMatch,
		Fuzziness:          q.Fuzziness,
		MaxExpansions:      q.MaxExpansions,
		PrefixLength:       q.PrefixLength,
	}))
}

// MatchPhrase matches the analyzed query as consecutive terms.
type MatchPhrase struct {
	Field string
	Query string
}

// Kind implements Query.
func (MatchPhrase) Kind() string { return "match_phrase" }

// MarshalJSON implements json.Marshaler.
func (q MatchPhrase) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), field(q.Field, q.Query))
}

// Multi-match types.
const (
	BestFields  = "best_fields"
	CrossFields = "cross_fields"
)

// MultiMatch runs one text query across several fields.
type MultiMatch struct {
	Query              string
	Fields             []string
	Type               string
	Operator           string
	MinimumShouldMatch any
}

type multiMatchBody struct {
	Query              string   `json:"query"`
	Fields             []string `json:"fields"`
	Type               string   `json:"type,omitempty"`
	Operator           string   `json:"operator,omitempty"`
	MinimumShouldMatch any      `json:"minimum_should_match,omitempty"`
}

// Kind implements Query.
func (MultiMatch) Kind() string { return "multi_match" }

// MarshalJSON implements json.Marshaler.
func (q MultiMatch) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), multiMatchBody(q))
}

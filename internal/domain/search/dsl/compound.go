package dsl

// Bool combines clauses. MinimumShouldMatch applies to Should; zero omits it.
type Bool struct {
	Must               []Query
	Should             []Query
	MustNot            []Query
	Filter             []Query
	MinimumShouldMatch int
	Boost              *float64
}

type boolBody struct {
	Must               []Query  `json:"must,omitempty"`
	Should             []Query  `json:"should,omitempty"`
	MustNot            []Query  `json:"must_not,omitempty"`
	Filter             []Query  `json:"filter,omitempty"`
	MinimumShouldMatch int      `json:"minimum_should_match,omitempty"`
	Boost              *float64 `json:"boost,omitempty"`
}

// Kind implements Query.
func (Bool) Kind() string { return "bool" }

// MarshalJSON implements json.Marshaler.
func (q Bool) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), boolBody(q))
}

// plain reports whether q is a pure conjunction that can absorb more clauses.
func (q Bool) plain() bool {
	return len(q.Should) == 0 && q.MinimumShouldMatch == 0 && q.Boost == nil
}

// And conjoins two queries, flattening plain bool queries the way the
// engine client libraries do. Either side may be nil.
func And(a, b Query) Query {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	ab, aok := a.(Bool)
	bb, bok := b.(Bool)
	switch {
	case aok && bok && ab.plain() && bb.plain():
		return Bool{
			Must:    concat(ab.Must, bb.Must),
			MustNot: concat(ab.MustNot, bb.MustNot),
			Filter:  concat(ab.Filter, bb.Filter),
		}
	case aok && ab.plain():
		ab.Must = concat(ab.Must, []Query{b})
		return ab
	case bok && bb.plain():
		bb.Must = concat([]Query{a}, bb.Must)
		return bb
	}
	return Bool{Must: []Query{a, b}}
}

// AndAll conjoins every query in order.
func AndAll(qs ...Query) Query {
	var out Query
	for _, q := range qs {
		out = And(out, q)
	}
	return out
}

func concat(a, b []Query) []Query {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]Query, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Nested runs a query against each element of a nested array.
type Nested struct {
	Path  string
	Query Query
}

type nestedBody struct {
	Path  string `json:"path"`
	Query Query  `json:"query"`
}

// Kind implements Query.
func (Nested) Kind() string { return "nested" }

// MarshalJSON implements json.Marshaler.
func (q Nested) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), nestedBody(q))
}

// DisMax scores a document by its best-matching sub-query.
type DisMax struct {
	Queries []Query
}

// Kind implements Query.
func (DisMax) Kind() string { return "dis_max" }

// MarshalJSON implements json.Marshaler.
func (q DisMax) MarshalJSON() ([]byte, error) {
	queries := q.Queries
	if queries == nil {
		queries = []Query{}
	}
	return wrap(q.Kind(), map[string]any{"queries": queries})
}

// Function score modes.
const (
	ScoreModeSum     = "sum"
	BoostModeReplace = "replace"
)

// FunctionScore rescores the documents a query matches.
type FunctionScore struct {
	Query     Query
	Functions []ScoringFunction
	ScoreMode string
	BoostMode string
}

type functionScoreBody struct {
	Query     Query             `json:"query,omitempty"`
	Functions []ScoringFunction `json:"functions"`
	ScoreMode string            `json:"score_mode,omitempty"`
	BoostMode string            `json:"boost_mode,omitempty"`
}

// Kind implements Query.
func (FunctionScore) Kind() string { return "function_score" }

// MarshalJSON implements json.Marshaler.
func (q FunctionScore) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), functionScoreBody(q))
}

package dsl

// Term matches an exact value.
type Term struct {
	Field string
	Value any
}

// Kind implements Query.
func (Term) Kind() string { return "term" }

// MarshalJSON implements json.Marshaler.
func (q Term) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), field(q.Field, q.Value))
}

// Terms matches any of a list of exact values. An empty list matches nothing.
type Terms struct {
	Field  string
	Values []any
}

// TermsOf builds a Terms query from a typed slice.
func TermsOf[T any](name string, values []T) Terms {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return Terms{Field: name, Values: out}
}

// Kind implements Query.
func (Terms) Kind() string { return "terms" }

// MarshalJSON implements json.Marshaler.
func (q Terms) MarshalJSON() ([]byte, error) {
	values := q.Values
	if values == nil {
		values = []any{}
	}
	return wrap(q.Kind(), field(q.Field, values))
}

// Range matches values within bounds. Nil bounds are omitted.
type Range struct {
	Field string
	GT    any
	GTE   any
	LT    any
	LTE   any
}

type rangeBody struct {
	GT  any `json:"gt,omitempty"`
	GTE any `json:"gte,omitempty"`
	LT  any `json:"lt,omitempty"`
	LTE any `json:"lte,omitempty"`
}

// Kind implements Query.
func (Range) Kind() string { return "range" }

// MarshalJSON implements json.Marshaler.
func (q Range) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), field(q.Field, rangeBody{GT: q.GT, GTE: q.GTE, LT: q.LT, LTE: q.LTE}))
}

// Exists matches documents that have any value for a field.
type Exists struct {
	Field string
}

// Kind implements Query.
func (Exists) Kind() string { return "exists" }

// MarshalJSON implements json.Marshaler.
func (q Exists) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), map[string]string{"field": q.Field})
}

// Regexp matches keyword values against a regular expression.
type Regexp struct {
	Field string
	Value string
	Flags string
}

type regexpBody struct {
	Value string `json:"value"`
	Flags string `json:"flags,omitempty"`
}

// Kind implements Query.
func (Regexp) Kind() string { return "regexp" }

// MarshalJSON implements json.Marshaler.
func (q Regexp) MarshalJSON() ([]byte, error) {
	return wrap(q.Kind(), field(q.Field, regexpBody{Value: q.Value, Flags: q.Flags}))
}

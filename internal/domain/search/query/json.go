package query

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
)

// JSON query joins.
const (
	JoinAnd = "and"
	JoinOr  = "or"
	JoinNot = "not"
)

// JSON query leaf operators.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpRegex    = "regex"
	OpContains = "contains"
)

var operators = []string{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpRegex, OpContains}

// Characters with meaning in the engine's regexp syntax.
const reservedRegexChars = `.?+*|{}[]()"\#@&<>~`

type fieldMapping struct {
	keyword bool
	path    string
	ops     []string
}

var jsonFields = map[string]fieldMapping{
	"audience":                       {},
	"author":                         {keyword: true},
	"classifications.scheme":         {keyword: true},
	"classifications.term":           {keyword: true},
	"contributors.display_name":      {keyword: true, path: "contributors"},
	"contributors.family_name":       {keyword: true, path: "contributors"},
	"contributors.lc":                {path: "contributors"},
	"contributors.role":              {path: "contributors"},
	"contributors.sort_name":         {keyword: true, path: "contributors"},
	"contributors.viaf":              {path: "contributors"},
	"fiction":                        {keyword: true},
	"genres.name":                    {path: "genres"},
	"genres.scheme":                  {path: "genres"},
	"genres.term":                    {path: "genres"},
	"genres.weight":                  {path: "genres"},
	"identifiers.identifier":         {path: "identifiers"},
	"identifiers.type":               {path: "identifiers"},
	"imprint":                        {keyword: true},
	"language":                       {},
	"licensepools.available":         {path: "licensepools"},
	"licensepools.availability_time": {path: "licensepools"},
	"licensepools.collection_id":     {path: "licensepools"},
	"licensepools.data_source_id":    {path: "licensepools", ops: []string{OpEq, OpNeq}},
	"licensepools.licensed":          {path: "licensepools"},
	"licensepools.medium":            {path: "licensepools"},
	"licensepools.open_access":       {path: "licensepools"},
	"licensepools.quality":           {path: "licensepools"},
	"licensepools.suppressed":        {path: "licensepools"},
	"medium":                         {keyword: true},
	"presentation_ready":             {},
	"publisher":                      {keyword: true},
	"quality":                        {},
	"series":                         {keyword: true},
	"sort_author":                    {},
	"sort_title":                     {},
	"subtitle":                       {keyword: true},
	"target_age":                     {},
	"title":                          {keyword: true},
	"published":                      {},
}

// Client-facing aliases for document fields.
var fieldAliases = map[string]string{
	"genre":          "genres.name",
	"open_access":    "licensepools.open_access",
	"available":      "licensepools.available",
	"classification": "classifications.term",
	"data_source":    "licensepools.data_source_id",
}

// JSONQuery is a structured query: {"query": {"and": [{"key": "title",
// "value": "book"}, {"key": "author", "value": "robert", "op": "eq"}]}}.
type JSONQuery struct {
	analyzer *Analyzer
	raw      string
	filter   *filter.Filter
}

// JSON creates a structured query.
func (a *Analyzer) JSON(raw string, f *filter.Filter) *JSONQuery {
	return &JSONQuery{analyzer: a, raw: raw, filter: f}
}

func invalidQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// SearchQuery parses the JSON into an engine query.
func (q *JSONQuery) SearchQuery() (dsl.Query, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(q.raw), &doc); err != nil {
		return nil, invalidQuery("%q is not valid json", q.raw)
	}
	root, ok := doc["query"]
	if !ok {
		return nil, invalidQuery("'query' key must be present as the root")
	}
	var node map[string]any
	if err := json.Unmarshal(root, &node); err != nil {
		return nil, invalidQuery("query must be an object")
	}
	return q.parse(node)
}

// Build implements Builder.
func (q *JSONQuery) Build(p Paginator) (*dsl.Search, error) {
	sq, err := q.SearchQuery()
	if err != nil {
		return nil, err
	}
	return build(sq, q.filter, p), nil
}

func (q *JSONQuery) parse(node map[string]any) (dsl.Query, error) {
	if len(node) == 0 {
		return dsl.MatchAll{}, nil
	}
	_, hasKey := node["key"]
	_, hasValue := node["value"]
	if hasKey && hasValue {
		return q.parseLeaf(node)
	}
	for k := range node {
		if k != JoinAnd && k != JoinOr && k != JoinNot {
			return nil, invalidQuery("could not make sense of the query: %v", node)
		}
	}
	return q.parseJoin(node)
}

func (q *JSONQuery) parseJoin(node map[string]any) (dsl.Query, error) {
	if len(node) != 1 {
		return nil, invalidQuery("a conjunction cannot have multiple parts in the same sub-query")
	}
	var (
		join  string
		parts []any
	)
	for k, v := range node {
		join = k
		list, ok := v.([]any)
		if !ok {
			return nil, invalidQuery("%q must hold a list", k)
		}
		parts = list
	}

	clauses := make([]dsl.Query, 0, len(parts))
	for _, part := range parts {
		sub, ok := part.(map[string]any)
		if !ok {
			return nil, invalidQuery("could not make sense of the query: %v", part)
		}
		c, err := q.parse(sub)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}

	switch join {
	case JoinAnd:
		return dsl.Bool{Must: clauses}, nil
	case JoinOr:
		return dsl.Bool{Should: clauses}, nil
	default:
		return dsl.Bool{MustNot: clauses}, nil
	}
}

func (q *JSONQuery) parseLeaf(node map[string]any) (dsl.Query, error) {
	op := OpEq
	if raw, ok := node["op"]; ok {
		s, isString := raw.(string)
		if !isString || !slices.Contains(operators, s) {
			return nil, invalidQuery("unrecognized operator: %v", raw)
		}
		op = s
	}

	key, ok := node["key"].(string)
	if !ok {
		return nil, invalidQuery("key must be a string")
	}
	value := node["value"]

	value, err := q.transformValue(key, value)
	if err != nil {
		return nil, err
	}
	if op == OpContains || op == OpRegex {
		s, isString := value.(string)
		if !isString {
			return nil, invalidQuery("operator %q needs a string value", op)
		}
		value = EscapeRegexp(s)
	}

	field := key
	if alias, ok := fieldAliases[key]; ok {
		field = alias
	}
	mapping, ok := jsonFields[field]
	if !ok {
		return nil, invalidQuery("unrecognized key: %s", key)
	}
	if mapping.ops != nil && !slices.Contains(mapping.ops, op) {
		return nil, invalidQuery("operator %q is not allowed for %q, only use %v", op, key, mapping.ops)
	}
	if mapping.keyword {
		field += ".keyword"
	}

	var leaf dsl.Query
	switch op {
	case OpEq:
		leaf = dsl.Term{Field: field, Value: value}
	case OpNeq:
		leaf = dsl.Bool{MustNot: []dsl.Query{dsl.Term{Field: field, Value: value}}}
	case OpGt:
		leaf = dsl.Range{Field: field, GT: value}
	case OpGte:
		leaf = dsl.Range{Field: field, GTE: value}
	case OpLt:
		leaf = dsl.Range{Field: field, LT: value}
	case OpLte:
		leaf = dsl.Range{Field: field, LTE: value}
	case OpRegex:
		leaf = dsl.Regexp{Field: field, Value: value.(string), Flags: "ALL"}
	case OpContains:
		leaf = dsl.Regexp{Field: field, Value: ".*" + value.(string) + ".*", Flags: "ALL"}
	}
	if mapping.path != "" {
		leaf = dsl.Nested{Path: mapping.path, Query: leaf}
	}
	return leaf, nil
}

// transformValue rewrites client values into their indexed form.
func (q *JSONQuery) transformValue(key string, value any) (any, error) {
	s, isString := value.(string)
	switch key {
	case "data_source":
		if !isString {
			return value, nil
		}
		if q.analyzer.dataSources != nil {
			if id, ok := q.analyzer.dataSources(s); ok {
				return id, nil
			}
		}
		// Unknown sources match nothing.
		return 0, nil
	case "published":
		if !isString {
			return value, nil
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return nil, invalidQuery("could not parse 'published' value %q, use YYYY-MM-DD", s)
		}
		return float64(t.Unix()), nil
	case "language":
		if !isString {
			return value, nil
		}
		return LanguageCode(s), nil
	case "audience":
		if !isString {
			return value, nil
		}
		return strings.ReplaceAll(s, " ", ""), nil
	}
	return value, nil
}

// EscapeRegexp escapes characters the engine's regexp syntax reserves.
func EscapeRegexp(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(reservedRegexChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

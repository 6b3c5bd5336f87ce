// Package query turns a free-text catalog query and a filter into a search
// request. A query string is scored as a set of competing hypotheses about
// what the patron meant; each document keeps its best hypothesis.
package query

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/parser"
)

// Paginator narrows a search to one page.
type Paginator interface {
	Apply(s *dsl.Search)
}

// Builder produces a complete search request.
type Builder interface {
	Build(p Paginator) (*dsl.Search, error)
}

// DataSourceLookup resolves a data source name to its ID.
type DataSourceLookup func(name string) (int64, bool)

// Analyzer holds the read-only resources queries consult. Safe for
// concurrent use.
type Analyzer struct {
	dict        *Dictionary
	parser      *parser.Parser
	dataSources DataSourceLookup
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDictionary replaces the built-in spelling dictionary.
func WithDictionary(d *Dictionary) Option {
	return func(a *Analyzer) { a.dict = d }
}

// WithVocabulary replaces the built-in genre vocabulary.
func WithVocabulary(v *parser.Vocabulary) Option {
	return func(a *Analyzer) { a.parser = a.newParser(v) }
}

// WithoutParser disables intent extraction.
func WithoutParser() Option {
	return func(a *Analyzer) { a.parser = nil }
}

// WithDataSources sets the lookup used by JSON queries on data_source.
func WithDataSources(lookup DataSourceLookup) Option {
	return func(a *Analyzer) { a.dataSources = lookup }
}

// NewAnalyzer creates an analyzer with the built-in dictionary and
// vocabulary unless options say otherwise.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{dict: DefaultDictionary()}
	a.parser = a.newParser(nil)
	for _, opt := range opts {
		opt(a)
	}
	if a.dict == nil {
		a.dict = DefaultDictionary()
	}
	return a
}

// newParser wires the parser back to the analyzer so that leftover text
// becomes its own hypothesis set, without parsing it again.
func (a *Analyzer) newParser(v *parser.Vocabulary) *parser.Parser {
	return parser.New(v, func(rest string) dsl.Query {
		return a.newQuery(rest, nil, false).SearchQuery()
	})
}

// Parser returns the intent parser, or nil when disabled.
func (a *Analyzer) Parser() *parser.Parser { return a.parser }

// Query creates a relevance query.
func (a *Analyzer) Query(queryString string, f *filter.Filter) *Query {
	return a.newQuery(queryString, f, true)
}

// For picks the query language the filter asks for.
func (a *Analyzer) For(queryString string, f *filter.Filter) Builder {
	if f != nil && f.SearchType() == filter.SearchTypeJSON {
		return a.JSON(queryString, f)
	}
	return a.Query(queryString, f)
}

func (a *Analyzer) newQuery(queryString string, f *filter.Filter, useParser bool) *Query {
	q := &Query{
		analyzer:    a,
		queryString: queryString,
		filter:      f,
		useParser:   useParser,
		words:       strings.Fields(queryString),
	}
	q.containsStopwords = slices.ContainsFunc(q.words, IsStopword)
	q.fuzzyCoefficient = a.fuzzyCoefficient(q.words, q.containsStopwords)
	return q
}

// fuzzyCoefficient weighs typo-tolerant hypotheses. Misspellings make
// them count fully; a correctly spelled query only gets them at half
// strength when it has stopwords and not at all otherwise.
func (a *Analyzer) fuzzyCoefficient(words []string, stopwords bool) float64 {
	switch {
	case len(words) == 0:
		return 0
	case len(a.dict.Unknown(words)) > 0:
		return 1.0
	case stopwords:
		return 0.5
	}
	return 0
}

// Query is a free-text query within a filter.
type Query struct {
	analyzer          *Analyzer
	queryString       string
	filter            *filter.Filter
	useParser         bool
	words             []string
	containsStopwords bool
	fuzzyCoefficient  float64
}

// QueryString returns the text being searched for.
func (q *Query) QueryString() string { return q.queryString }

// FuzzyCoefficient returns the weight applied to typo-tolerant hypotheses.
func (q *Query) FuzzyCoefficient() float64 { return q.fuzzyCoefficient }

// ContainsStopwords reports whether any word is an English stopword.
func (q *Query) ContainsStopwords() bool { return q.containsStopwords }

// SearchQuery builds the scoring query. An empty string matches everything.
func (q *Query) SearchQuery() dsl.Query {
	if q.queryString == "" {
		return dsl.MatchAll{}
	}

	var hs []dsl.Query
	hypothesize := func(list []hypothesis) {
		for _, h := range list {
			hs = append(hs, Boost(h.weight, h.query))
		}
	}

	for _, field := range simpleMatchFields {
		hypothesize(q.matchOneField(field, q.queryString))
	}
	hypothesize(q.matchAuthor())
	hypothesize(q.matchTopic())
	for _, other := range multiMatchFields {
		hypothesize(q.titleMultiMatchFor(other))
	}
	if parsed := q.parsedQueryMatches(); parsed != nil {
		hs = append(hs, parsed)
	}
	return combine(hs)
}

// Build implements Builder.
func (q *Query) Build(p Paginator) (*dsl.Search, error) {
	return build(q.SearchQuery(), q.filter, p), nil
}

// build wraps a scoring query with the filter's restrictions, ordering,
// scoring functions and computed fields, then applies pagination last.
func build(searchQuery dsl.Query, f *filter.Filter, p Paginator) *dsl.Search {
	var (
		main   dsl.Query
		nested *filter.Nested
	)
	if f != nil {
		main, nested = f.Build()
	} else {
		main, nested = dsl.AndAll(filter.UniversalBaseFilter()...), filter.NewNested()
	}
	nested.Extend(filter.UniversalNestedFilters())

	root := dsl.Bool{Must: []dsl.Query{searchQuery}}
	if main != nil {
		root.Filter = append(root.Filter, main)
	}
	for _, path := range nested.Paths() {
		for _, sub := range nested.Get(path) {
			root.Filter = append(root.Filter, dsl.Nested{
				Path:  path,
				Query: dsl.Bool{Filter: []dsl.Query{sub}},
			})
		}
	}

	s := &dsl.Search{Query: root, Source: []string{"work_id"}}
	if f != nil {
		if fns := f.ScoringFunctions(); len(fns) > 0 {
			root.Must = append(root.Must, dsl.FunctionScore{
				Query:     dsl.MatchAll{},
				Functions: fns,
				ScoreMode: dsl.ScoreModeSum,
			})
			s.Query = root
		}
		s.Sort = f.SortOrder()
		if fields := f.ScriptFields(); len(fields) > 0 {
			s.ScriptFields = fields
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			slices.Sort(names)
			s.Source = append(s.Source, names...)
		}
		s.MinScore = f.MinScore()
	}
	if p != nil {
		p.Apply(s)
	}
	return s
}

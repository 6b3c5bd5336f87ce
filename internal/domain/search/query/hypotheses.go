package query

import (
	"slices"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// Relative importance of the fields a query string may be aimed at.
// Contributor names share the author weight.
var fieldWeights = map[string]float64{
	"title":                     140,
	"subtitle":                  130,
	"series":                    120,
	"author":                    120,
	"summary":                   80,
	"publisher":                 40,
	"imprint":                   40,
	"contributors.sort_name":    120,
	"contributors.display_name": 120,
}

// Weight coefficients.
const (
	// DefaultKeywordMatchCoefficient scales a near-exact field match.
	DefaultKeywordMatchCoefficient = 1000
	BaselineCoefficient            = 1.0
	SlightlyAboveBaseline          = 1.1
	// QueryWasAFilterWeight scores works when the whole query string
	// turned into filters. It stays below an exact title match.
	QueryWasAFilterWeight   = 600
	StemmedMatchCoefficient = 0.75
)

// A keyword publisher or imprint match is often a partial author or
// topic match, so it counts for little.
var keywordMatchCoefficients = map[string]float64{
	"publisher": 2,
	"imprint":   2,
}

var (
	simpleMatchFields = []string{"title", "subtitle", "series", "publisher", "imprint"}
	// Fields combined with title in cross-field hypotheses.
	multiMatchFields = []string{"subtitle", "series", "author"}
	stemmableFields  = []string{"title", "subtitle", "series"}
	stopwordFields   = []string{"title", "subtitle", "series"}
	topicFields      = []string{"summary", "classifications.term"}
)

// Fuzzy hypotheses run at a fraction of the hypothesis they relax.
const (
	fuzzyMatchCoefficient       = 0.5
	fuzzyPrefixMatchCoefficient = 0.75
)

type hypothesis struct {
	query  dsl.Query
	weight float64
}

// FieldWeight returns the base weight of a searchable field.
func FieldWeight(field string) float64 {
	return fieldWeights[field]
}

func keywordCoefficient(field string) float64 {
	if c, ok := keywordMatchCoefficients[field]; ok {
		return c
	}
	return DefaultKeywordMatchCoefficient
}

// matchOneField yields the ways a query string could be aimed at one field:
// keyword, phrase, fuzzy phrase, phrase with stopwords and stemmed match.
func (q *Query) matchOneField(baseField, queryString string) []hypothesis {
	base := fieldWeights[baseField]
	out := []hypothesis{
		{dsl.Term{Field: baseField + ".keyword", Value: queryString}, base * keywordCoefficient(baseField)},
		{dsl.MatchPhrase{Field: baseField + ".minimal", Query: queryString}, base * BaselineCoefficient},
	}
	out = append(out, q.fuzzyMatches(baseField+".minimal", queryString, base*BaselineCoefficient)...)

	if q.containsStopwords && slices.Contains(stopwordFields, baseField) {
		out = append(out, hypothesis{
			dsl.MatchPhrase{Field: baseField + ".with_stopwords", Query: queryString},
			base * SlightlyAboveBaseline,
		})
	}
	if slices.Contains(stemmableFields, baseField) {
		// At least two words must match, so "foo" does not win "foo bar".
		out = append(out, hypothesis{
			dsl.Match{Field: baseField, Query: queryString, MinimumShouldMatch: 2},
			base * BaselineCoefficient * StemmedMatchCoefficient,
		})
	}
	return out
}

// fuzzyMatches relaxes a phrase hypothesis to tolerate typos. The second
// variant assumes the first letter of each word is right.
func (q *Query) fuzzyMatches(field, queryString string, weight float64) []hypothesis {
	if q.fuzzyCoefficient == 0 {
		return nil
	}
	fuzzy := dsl.Match{
		Field:              field,
		Query:              queryString,
		MinimumShouldMatch: 2,
		Fuzziness:          "AUTO",
		MaxExpansions:      2,
	}
	prefixed := fuzzy
	prefixed.PrefixLength = 1
	return []hypothesis{
		{fuzzy, weight * q.fuzzyCoefficient * fuzzyMatchCoefficient},
		{prefixed, weight * q.fuzzyCoefficient * fuzzyPrefixMatchCoefficient},
	}
}

// matchAuthor tests the query against contributor display names, then
// against the sort name the query would have if it were a personal name.
func (q *Query) matchAuthor() []hypothesis {
	out := q.authorFieldMustMatch("display_name", q.queryString)
	if sortName := catalog.DisplayNameToSortName(q.queryString); sortName != "" {
		out = append(out, q.authorFieldMustMatch("sort_name", sortName)...)
	}
	return out
}

func (q *Query) authorFieldMustMatch(field, queryString string) []hypothesis {
	hs := q.matchOneField("contributors."+field, queryString)
	for i := range hs {
		hs[i].query = roleMustAlsoMatch(hs[i].query)
	}
	return hs
}

// roleMustAlsoMatch restricts a contributor hypothesis to authorship roles.
func roleMustAlsoMatch(base dsl.Query) dsl.Query {
	return dsl.Nested{
		Path: "contributors",
		Query: dsl.Bool{Must: []dsl.Query{
			base,
			dsl.TermsOf("contributors.role", catalog.SearchRelevantRoles),
		}},
	}
}

// matchTopic scores the query against summaries and subject terms, taking
// the better of the two.
func (q *Query) matchTopic() []hypothesis {
	return []hypothesis{{
		dsl.MultiMatch{Query: q.queryString, Fields: topicFields, Type: dsl.BestFields},
		fieldWeights["summary"],
	}}
}

// titleMultiMatchFor tests whether the query mixes title words with words
// from another field. The whole query must be explained by the pair, or a
// partial title match would outrank better matches.
func (q *Query) titleMultiMatchFor(other string) []hypothesis {
	if len(q.words) < 2 {
		return nil
	}
	title, weight := fieldWeights["title"], fieldWeights[other]
	return []hypothesis{{
		dsl.MultiMatch{
			Query:              q.queryString,
			Fields:             []string{"title.minimal", other + ".minimal"},
			Type:               dsl.CrossFields,
			Operator:           "and",
			MinimumShouldMatch: "100%",
		},
		weight * (weight / title),
	}}
}

// parsedQueryMatches applies the intents the parser found. When nothing is
// left of the query string every filtered work gets a flat high score.
func (q *Query) parsedQueryMatches() dsl.Query {
	if !q.useParser || q.analyzer.parser == nil {
		return nil
	}
	r := q.analyzer.parser.Parse(q.queryString)
	switch {
	case len(r.MatchQueries) == 0 && len(r.Filters) == 0:
		return nil
	case len(r.MatchQueries) == 0:
		return boosted(QueryWasAFilterWeight, []dsl.Query{dsl.MatchAll{}}, r.Filters)
	}
	return boosted(SlightlyAboveBaseline, r.MatchQueries, r.Filters)
}

// boosted wraps queries that must all match, with filters applied in
// filter context.
func boosted(boost float64, must, filters []dsl.Query) dsl.Query {
	return dsl.Bool{Must: must, Filter: filters, Boost: dsl.Float(boost)}
}

// Boost scales one hypothesis relative to its dis_max neighbours.
func Boost(boost float64, q dsl.Query) dsl.Query {
	return boosted(boost, []dsl.Query{q}, nil)
}

// combine keeps the best hypothesis per document.
func combine(hs []dsl.Query) dsl.Query {
	if len(hs) == 0 {
		return dsl.MatchAll{}
	}
	return dsl.DisMax{Queries: hs}
}

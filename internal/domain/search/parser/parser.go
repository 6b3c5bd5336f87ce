// Package parser pulls structured intents (genre, audience, fiction status,
// target age) out of free-text catalog queries.
package parser

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// TargetAgeBoost favors works whose whole age range fits the requested one.
const TargetAgeBoost = 1.1

// HypothesisBuilder turns leftover query text into a relevance query.
// It must not run the parser again.
type HypothesisBuilder func(queryString string) dsl.Query

// Intents records what the parser recognized.
type Intents struct {
	Genre     string            `json:"genre,omitempty"`
	Audience  string            `json:"audience,omitempty"`
	Fiction   string            `json:"fiction,omitempty"`
	TargetAge *catalog.AgeRange `json:"target_age,omitempty"`
}

// Result is a parsed query.
type Result struct {
	// Filters must all hold.
	Filters []dsl.Query
	// MatchQueries score documents that pass Filters.
	MatchQueries []dsl.Query
	// FinalQueryString is the text left after every intent was removed.
	FinalQueryString    string
	OriginalQueryString string
	Intents             Intents
}

// Consumed reports whether the whole query turned into filters.
func (r *Result) Consumed() bool {
	return r.FinalQueryString == ""
}

// Parser extracts intents from query strings. Safe for concurrent use.
type Parser struct {
	vocab     *Vocabulary
	remainder HypothesisBuilder
}

// New creates a parser. A nil vocabulary selects the built-in one; a nil
// builder leaves the remainder out of MatchQueries.
func New(vocab *Vocabulary, remainder HypothesisBuilder) *Parser {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Parser{vocab: vocab, remainder: remainder}
}

// Parse extracts intents in a fixed order. Genres go first so that
// "science fiction" is not read as plain "fiction".
func (p *Parser) Parse(query string) *Result {
	r := &Result{OriginalQueryString: strings.TrimSpace(query)}
	q := query

	if g, words, ok := p.vocab.MatchGenre(q); ok {
		r.Intents.Genre = g.Name
		r.Filters = append(r.Filters, MatchTerm("genres.name", g.Name))
		q = WithoutMatch(q, words)
	}

	if audience, words, ok := MatchAudience(q); ok {
		r.Intents.Audience = audience
		r.Filters = append(r.Filters, MatchTerm("audience", normalize.Scrub(audience)))
		q = WithoutMatch(q, words)
	}

	if fiction, ok := MatchFiction(q); ok {
		r.Intents.Fiction = fiction
		r.Filters = append(r.Filters, MatchTerm("fiction", fiction))
		q = WithoutMatch(q, fiction)
	}

	if ages, words, ok := MatchGrade(q); ok {
		q = r.addTargetAge(ages, q, words)
	}
	if ages, words, ok := MatchAge(q); ok {
		q = r.addTargetAge(ages, q, words)
	}

	r.FinalQueryString = strings.TrimSpace(q)
	if r.FinalQueryString != "" && r.FinalQueryString != r.OriginalQueryString && p.remainder != nil {
		if h := p.remainder(r.FinalQueryString); h != nil {
			r.MatchQueries = append(r.MatchQueries, h)
		}
	}
	return r
}

func (r *Result) addTargetAge(ages *catalog.AgeRange, q, words string) string {
	if !ages.Bounded() {
		return q
	}
	filter, boosted := TargetAgeQueries(*ages.Lower, *ages.Upper, TargetAgeBoost)
	r.Intents.TargetAge = ages
	r.Filters = append(r.Filters, filter)
	r.MatchQueries = append(r.MatchQueries, boosted)
	return WithoutMatch(q, words)
}

// MatchTerm matches a keyword field, nesting it when the field lives in a
// subdocument such as genres.name.
func MatchTerm(field, value string) dsl.Query {
	term := dsl.Term{Field: field, Value: value}
	if head, _, ok := strings.Cut(field, "."); ok && strings.HasSuffix(head, "s") {
		return dsl.Nested{Path: head, Query: term}
	}
	return term
}

// TargetAgeQueries returns a filter requiring overlap with [lo, hi] and a
// boosted query that also rewards ranges contained within it.
func TargetAgeQueries(lo, hi int, boost float64) (filter, query dsl.Query) {
	must := []dsl.Query{
		dsl.Range{Field: "target_age.upper", GTE: lo},
		dsl.Range{Field: "target_age.lower", LTE: hi},
	}
	should := []dsl.Query{
		dsl.Range{Field: "target_age.upper", LTE: hi},
		dsl.Range{Field: "target_age.lower", GTE: lo},
	}
	return dsl.Bool{Must: must}, dsl.Bool{Must: must, Should: should, Boost: dsl.Float(boost)}
}

// WithoutMatch removes matched text from a query. A match that stops inside
// a word takes the rest of that word with it.
func WithoutMatch(q, match string) string {
	match = strings.TrimSpace(match)
	if match == "" {
		return q
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(match) + `[\w'\-]*\b`)
	if err != nil {
		return q
	}
	return re.ReplaceAllLiteralString(q, "")
}

package memory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// Subfields of analyzed text fields.
const (
	subKeyword       = "keyword"
	subMinimal       = "minimal"
	subWithStopwords = "with_stopwords"
)

func splitSubfield(field string) (string, string) {
	for _, sub := range []string{subKeyword, subMinimal, subWithStopwords} {
		if base, ok := strings.CutSuffix(field, "."+sub); ok {
			return base, sub
		}
	}
	return field, ""
}

// Analyzer names registered in the engine's bleve cache.
const (
	analyzerMinimal       = "shelfdex_minimal"
	analyzerWithStopwords = "shelfdex_with_stopwords"
	analyzerKeyword       = "shelfdex_keyword"
)

// analyzers mirrors the index mapping: the base field uses bleve's
// English analyzer, .minimal drops stopwords without stemming,
// .with_stopwords keeps every word and .keyword is one case-folded token.
var analyzers = mustAnalyzers()

func mustAnalyzers() map[string]analysis.Analyzer {
	cache := registry.NewCache()
	defs := map[string]map[string]any{
		analyzerMinimal: {
			"type":          custom.Name,
			"tokenizer":     unicode.Name,
			"token_filters": []any{en.PossessiveName, lowercase.Name, en.StopName},
		},
		analyzerWithStopwords: {
			"type":          custom.Name,
			"tokenizer":     unicode.Name,
			"token_filters": []any{en.PossessiveName, lowercase.Name},
		},
		analyzerKeyword: {
			"type":          custom.Name,
			"tokenizer":     single.Name,
			"token_filters": []any{lowercase.Name},
		},
	}
	for name, def := range defs {
		if _, err := cache.DefineAnalyzer(name, def); err != nil {
			panic(fmt.Sprintf("define analyzer %s: %v", name, err))
		}
	}

	out := make(map[string]analysis.Analyzer, 4)
	for sub, name := range map[string]string{
		"":               en.AnalyzerName,
		subMinimal:       analyzerMinimal,
		subWithStopwords: analyzerWithStopwords,
		subKeyword:       analyzerKeyword,
	} {
		a, err := cache.AnalyzerNamed(name)
		if err != nil {
			panic(fmt.Sprintf("analyzer %s: %v", name, err))
		}
		out[sub] = a
	}
	return out
}

type analyzer struct {
	an analysis.Analyzer
}

func analyzerFor(field string) analyzer {
	_, sub := splitSubfield(field)
	return analyzer{an: analyzers[sub]}
}

func (a analyzer) tokens(s string) []string {
	stream := a.an.Analyze([]byte(s))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) > 0 {
			out = append(out, string(tok.Term))
		}
	}
	return out
}

func (a analyzer) valueTokens(v any) []string {
	switch t := v.(type) {
	case string:
		return a.tokens(t)
	case nil:
		return nil
	}
	return a.tokens(fmt.Sprint(v))
}

type matcher struct {
	fuzzy  bool
	prefix int
}

func (m matcher) equal(q, d string) bool {
	if q == d {
		return true
	}
	if !m.fuzzy {
		return false
	}
	qr, dr := []rune(q), []rune(d)
	if m.prefix > 0 {
		if len(qr) < m.prefix || len(dr) < m.prefix || string(qr[:m.prefix]) != string(dr[:m.prefix]) {
			return false
		}
	}
	return search.LevenshteinDistance(q, d) <= autoFuzziness(len(qr))
}

func (m matcher) contains(tokens []string, t string) bool {
	for _, d := range tokens {
		if m.equal(t, d) {
			return true
		}
	}
	return false
}

// autoFuzziness is the edit distance fuzziness AUTO allows for a term
// length.
func autoFuzziness(n int) int {
	switch {
	case n < 3:
		return 0
	case n < 6:
		return 1
	}
	return 2
}

// minimumShouldMatch resolves an absolute, negative or percentage
// requirement against n optional terms. Zero means no requirement.
func minimumShouldMatch(v any, n int) int {
	var need int
	switch t := v.(type) {
	case nil:
		return 0
	case string:
		if pct, ok := strings.CutSuffix(t, "%"); ok {
			p, err := strconv.Atoi(pct)
			if err != nil {
				return 0
			}
			need = n * p / 100
			if p < 0 {
				need = n + n*p/100
			}
			break
		}
		x, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		need = x
	default:
		f, ok := number(v)
		if !ok {
			return 0
		}
		need = int(f)
	}
	if need < 0 {
		need += n
	}
	return max(need, 0)
}

func evalMatch(q dsl.Match, s scope) (bool, float64) {
	an := analyzerFor(q.Field)
	terms := an.tokens(q.Query)
	if len(terms) == 0 {
		return false, 0
	}
	var doc []string
	for _, v := range s.values(q.Field) {
		doc = append(doc, an.valueTokens(v)...)
	}

	m := matcher{fuzzy: q.Fuzzy(), prefix: q.PrefixLength}
	matched := 0
	for _, t := range terms {
		if m.contains(doc, t) {
			matched++
		}
	}

	// A single-term match ignores minimum_should_match.
	need := 1
	if len(terms) > 1 {
		if n := minimumShouldMatch(q.MinimumShouldMatch, len(terms)); n > 0 {
			need = n
		}
	}
	if matched < need {
		return false, 0
	}
	return true, float64(matched) / float64(len(terms))
}

func evalPhrase(q dsl.MatchPhrase, s scope) (bool, float64) {
	an := analyzerFor(q.Field)
	terms := an.tokens(q.Query)
	if len(terms) == 0 {
		return false, 0
	}
	return found(anyValue(s.values(q.Field), func(v any) bool {
		return containsRun(an.valueTokens(v), terms)
	}))
}

func containsRun(doc, terms []string) bool {
	for i := 0; i+len(terms) <= len(doc); i++ {
		run := true
		for j, t := range terms {
			if doc[i+j] != t {
				run = false
				break
			}
		}
		if run {
			return true
		}
	}
	return false
}

func evalMultiMatch(q dsl.MultiMatch, s scope) (bool, float64) {
	fields := make([]string, len(q.Fields))
	for i, f := range q.Fields {
		fields[i], _, _ = strings.Cut(f, "^")
	}

	if q.Type == dsl.CrossFields {
		return evalCrossFields(q, fields, s)
	}

	msm := q.MinimumShouldMatch
	if q.Operator == "and" {
		msm = "100%"
	}
	var matched bool
	var best float64
	for _, f := range fields {
		if ok, score := evalMatch(dsl.Match{Field: f, Query: q.Query, MinimumShouldMatch: msm}, s); ok {
			matched = true
			best = max(best, score)
		}
	}
	return matched, best
}

// evalCrossFields treats the fields as one combined field.
func evalCrossFields(q dsl.MultiMatch, fields []string, s scope) (bool, float64) {
	an := analyzer{an: analyzers[subMinimal]}
	terms := an.tokens(q.Query)
	if len(terms) == 0 {
		return false, 0
	}
	var doc []string
	for _, f := range fields {
		for _, v := range s.values(f) {
			doc = append(doc, an.valueTokens(v)...)
		}
	}

	matched := 0
	for _, t := range terms {
		if (matcher{}).contains(doc, t) {
			matched++
		}
	}
	need := max(minimumShouldMatch(q.MinimumShouldMatch, len(terms)), 1)
	if q.Operator == "and" {
		need = len(terms)
	}
	if matched < need {
		return false, 0
	}
	return true, float64(matched) / float64(len(terms))
}

package dsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestLeafQueries(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"term", Term{Field: "fiction", Value: "fiction"}, `{"term":{"fiction":"fiction"}}`},
		{"terms", TermsOf("medium", []string{"book"}), `{"terms":{"medium":["book"]}}`},
		{"empty terms", Terms{Field: "genres.term"}, `{"terms":{"genres.term":[]}}`},
		{"range", Range{Field: "target_age.upper", GTE: 0}, `{"range":{"target_age.upper":{"gte":0}}}`},
		{"exists", Exists{Field: "series"}, `{"exists":{"field":"series"}}`},
		{"match all", MatchAll{}, `{"match_all":{}}`},
		{"boosted match all", MatchAll{Boost: Float(600)}, `{"match_all":{"boost":600}}`},
		{"match none", MatchNone{}, `{"match_none":{}}`},
		{"regexp", Regexp{Field: "title.keyword", Value: ".*cat.*", Flags: "ALL"},
			`{"regexp":{"title.keyword":{"value":".*cat.*","flags":"ALL"}}}`},
		{"phrase", MatchPhrase{Field: "title.minimal", Query: "moby dick"},
			`{"match_phrase":{"title.minimal":"moby dick"}}`},
		{"fuzzy match", Match{Field: "title.minimal", Query: "moby", MinimumShouldMatch: 2, Fuzziness: "AUTO", MaxExpansions: 2, PrefixLength: 1},
			`{"match":{"title.minimal":{"query":"moby","minimum_should_match":2,"fuzziness":"AUTO","max_expansions":2,"prefix_length":1}}}`},
		{"multi match", MultiMatch{Query: "a b", Fields: []string{"title.minimal", "author.minimal"}, Type: CrossFields, Operator: "and", MinimumShouldMatch: "100%"},
			`{"multi_match":{"query":"a b","fields":["title.minimal","author.minimal"],"type":"cross_fields","operator":"and","minimum_should_match":"100%"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, jsonOf(t, tt.q))
		})
	}
}

func TestBool_OmitsEmptyClauses(t *testing.T) {
	q := Bool{Should: nil, MinimumShouldMatch: 1}
	assert.JSONEq(t, `{"bool":{"minimum_should_match":1}}`, jsonOf(t, q))
}

func TestAnd(t *testing.T) {
	a := Term{Field: "a", Value: 1}
	b := Term{Field: "b", Value: 2}

	assert.Equal(t, a, And(nil, a))
	assert.Equal(t, a, And(a, nil))
	assert.JSONEq(t, `{"bool":{"must":[{"term":{"a":1}},{"term":{"b":2}}]}}`, jsonOf(t, And(a, b)))

	left := Bool{MustNot: []Query{a}}
	right := Bool{MustNot: []Query{b}}
	assert.JSONEq(t,
		`{"bool":{"must_not":[{"term":{"a":1}},{"term":{"b":2}}]}}`,
		jsonOf(t, And(left, right)))

	disjunction := Bool{Should: []Query{a, b}, MinimumShouldMatch: 1}
	got := And(disjunction, a)
	assert.JSONEq(t,
		`{"bool":{"must":[{"bool":{"should":[{"term":{"a":1}},{"term":{"b":2}}],"minimum_should_match":1}},{"term":{"a":1}}]}}`,
		jsonOf(t, got))

	assert.Nil(t, AndAll())
}

func TestScoringFunctions(t *testing.T) {
	fs := FunctionScore{
		Query: MatchAll{},
		Functions: []ScoringFunction{
			WeightFilter{Filter: Term{Field: "licensepools.available", Value: true}, Weight: 5},
			RandomScore{Seed: 42, Field: "work_id", Weight: 1.1},
			FieldValueFactor{Field: "lane_priority_level", Factor: 1, Modifier: "none", Missing: 5},
		},
		ScoreMode: ScoreModeSum,
	}
	assert.JSONEq(t, `{"function_score":{
		"query":{"match_all":{}},
		"functions":[
			{"filter":{"term":{"licensepools.available":true}},"weight":5},
			{"random_score":{"seed":42,"field":"work_id"},"weight":1.1},
			{"field_value_factor":{"field":"lane_priority_level","factor":1,"modifier":"none","missing":5}}
		],
		"score_mode":"sum"}}`, jsonOf(t, fs))
}

func TestSorts(t *testing.T) {
	plain := FieldSort{Field: "sort_title", Order: Asc}
	assert.JSONEq(t, `{"sort_title":"asc"}`, jsonOf(t, plain))

	nested := FieldSort{
		Field: "licensepools.availability_time", Order: Desc, Mode: "min",
		Nested: &NestedSort{Path: "licensepools", Filter: TermsOf("licensepools.collection_id", []int64{1})},
	}
	assert.JSONEq(t, `{"licensepools.availability_time":{"order":"desc","mode":"min",
		"nested":{"path":"licensepools","filter":{"terms":{"licensepools.collection_id":[1]}}}}}`, jsonOf(t, nested))

	script := ScriptSort{Script: StoredScript{Stored: "s.v1", Params: map[string]any{"list_ids": []int64{2}}}, Order: Asc}
	assert.JSONEq(t, `{"_script":{"type":"number","script":{"stored":"s.v1","params":{"list_ids":[2]}},"order":"asc"}}`, jsonOf(t, script))
	assert.Equal(t, "s.v1", script.Key())
}

func TestSearch_Marshal(t *testing.T) {
	s := &Search{
		Sort:        []Sort{FieldSort{Field: "work_id", Order: Asc}},
		SearchAfter: []any{"a", 1},
		From:        Int(0),
		Size:        Int(10),
		Source:      []string{"work_id"},
	}
	assert.JSONEq(t, `{"query":{"match_all":{}},"sort":[{"work_id":"asc"}],
		"search_after":["a",1],"from":0,"size":10,"_source":["work_id"]}`, jsonOf(t, s))

	c := s.Clone()
	c.Sort[0] = FieldSort{Field: "sort_title", Order: Desc}
	assert.Equal(t, "work_id", s.Sort[0].Key())
}

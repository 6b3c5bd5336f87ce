package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/shelfdex/internal/db"
	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

func loadedEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	require.NoError(t, e.LoadFile("testdata/works.json"))
	return e
}

func ids(res *db.SearchResult) []string {
	out := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, e.ID)
	}
	return out
}

func TestLoad_Array(t *testing.T) {
	e := loadedEngine(t)
	assert.Equal(t, 7, e.Len())
}

func TestLoad_Lines(t *testing.T) {
	e := NewEngine()
	err := e.Load(strings.NewReader(`{"work_id": 1, "title": "a"}
{"work_id": 2, "title": "b"}
{"work_id": 1, "title": "c"}
`))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Len(), "a repeated work_id replaces the document")

	res, err := e.Search(context.Background(), &dsl.Search{Query: dsl.Term{Field: "title", Value: "c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(res))
}

func TestIndex_RequiresWorkID(t *testing.T) {
	err := NewEngine().Index(map[string]any{"title": "orphan"})
	assert.Error(t, err)
}

func TestEval_Leaves(t *testing.T) {
	doc := map[string]any{
		"title":      "The Left Hand of Darkness",
		"quality":    json.Number("0.7"),
		"audience":   "adult",
		"target_age": map[string]any{"lower": json.Number("8"), "upper": json.Number("12")},
		"suppressed_for": []any{
			json.Number("3"), json.Number("4"),
		},
		"contributors": []any{
			map[string]any{"display_name": "Ursula K. Le Guin", "role": "Primary Author"},
			map[string]any{"display_name": "George Guidall", "role": "Narrator"},
		},
	}
	root := scope{obj: doc, root: doc}

	tests := []struct {
		name  string
		query dsl.Query
		want  bool
	}{
		{"term keyword ignores case", dsl.Term{Field: "title.keyword", Value: "the left hand of darkness"}, true},
		{"term miss", dsl.Term{Field: "audience", Value: "children"}, false},
		{"terms any of array", dsl.TermsOf("suppressed_for", []int64{4, 9}), true},
		{"empty terms", dsl.Terms{Field: "suppressed_for"}, false},
		{"range inside", dsl.Range{Field: "quality", GTE: 0.5, LT: 1}, true},
		{"range outside", dsl.Range{Field: "quality", GT: 0.7}, false},
		{"dotted object path", dsl.Range{Field: "target_age.lower", LTE: 8}, true},
		{"exists", dsl.Exists{Field: "target_age.upper"}, true},
		{"missing", dsl.Exists{Field: "series"}, false},
		{"regexp", dsl.Regexp{Field: "title.keyword", Value: ".*Hand.*"}, true},
		{"regexp is case sensitive", dsl.Regexp{Field: "title.keyword", Value: ".*hand.*"}, false},
		{"bad regexp", dsl.Regexp{Field: "title.keyword", Value: "("}, false},
		{"phrase drops stopwords", dsl.MatchPhrase{Field: "title.minimal", Query: "left hand darkness"}, true},
		{"phrase keeps stopwords", dsl.MatchPhrase{Field: "title.with_stopwords", Query: "hand of darkness"}, true},
		{"phrase order", dsl.MatchPhrase{Field: "title.minimal", Query: "darkness hand"}, false},
		{"match needs two words", dsl.Match{Field: "title", Query: "left foot", MinimumShouldMatch: 2}, false},
		{"single word ignores msm", dsl.Match{Field: "title", Query: "darkness", MinimumShouldMatch: 2}, true},
		{"fuzzy", dsl.Match{Field: "title.minimal", Query: "lefy hamd", MinimumShouldMatch: 2, Fuzziness: "AUTO"}, true},
		{"fuzzy prefix", dsl.Match{Field: "title.minimal", Query: "keft hamd", MinimumShouldMatch: 2, Fuzziness: "AUTO", PrefixLength: 1}, false},
		{
			"nested sees one element",
			dsl.Nested{Path: "contributors", Query: dsl.Bool{Must: []dsl.Query{
				dsl.Term{Field: "contributors.display_name.keyword", Value: "George Guidall"},
				dsl.Term{Field: "contributors.role", Value: "Narrator"},
			}}},
			true,
		},
		{
			"nested does not mix elements",
			dsl.Nested{Path: "contributors", Query: dsl.Bool{Must: []dsl.Query{
				dsl.Term{Field: "contributors.display_name.keyword", Value: "George Guidall"},
				dsl.Term{Field: "contributors.role", Value: "Primary Author"},
			}}},
			false,
		},
		{
			"should only bool needs one",
			dsl.Bool{Should: []dsl.Query{dsl.MatchNone{}, dsl.MatchNone{}}},
			false,
		},
		{
			"should is optional beside must",
			dsl.Bool{Must: []dsl.Query{dsl.MatchAll{}}, Should: []dsl.Query{dsl.MatchNone{}}},
			true,
		},
		{
			"must not",
			dsl.Bool{MustNot: []dsl.Query{dsl.Term{Field: "audience", Value: "adult"}}},
			false,
		},
		{
			"cross fields and",
			dsl.MultiMatch{Query: "darkness guin", Fields: []string{"title.minimal", "contributors.display_name"}, Type: dsl.CrossFields, Operator: "and"},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := eval(tt.query, root)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Scores(t *testing.T) {
	doc := map[string]any{"title": "Kindred"}
	root := scope{obj: doc, root: doc}

	ok, score := eval(dsl.DisMax{Queries: []dsl.Query{
		dsl.Bool{Must: []dsl.Query{dsl.Term{Field: "title.keyword", Value: "kindred"}}, Boost: dsl.Float(140000)},
		dsl.Bool{Must: []dsl.Query{dsl.MatchPhrase{Field: "title.minimal", Query: "kindred"}}, Boost: dsl.Float(140)},
		dsl.Bool{Must: []dsl.Query{dsl.MatchNone{}}, Boost: dsl.Float(1e9)},
	}}, root)
	require.True(t, ok)
	assert.InDelta(t, 140000, score, 1e-9, "dis_max keeps the best hypothesis")

	ok, score = eval(dsl.Bool{Filter: []dsl.Query{dsl.MatchAll{}}}, root)
	require.True(t, ok)
	assert.Zero(t, score, "filters do not score")
}

func TestEval_FunctionScore(t *testing.T) {
	doc := map[string]any{
		"work_id": json.Number("1"),
		"quality": json.Number("0.9"),
		"licensepools": []any{
			map[string]any{"available": true},
		},
	}
	root := scope{obj: doc, root: doc}

	fs := dsl.FunctionScore{
		Query: dsl.MatchAll{},
		Functions: []dsl.ScoringFunction{
			dsl.ScriptScore{Source: "Math.pow(Math.min(0.42250, doc['quality'].size() != 0 ? doc['quality'].value : 0.001), 2.00000) * 5"},
			dsl.WeightFilter{Filter: dsl.Nested{Path: "licensepools", Query: dsl.Term{Field: "licensepools.available", Value: true}}, Weight: 5},
			dsl.FieldValueFactor{Field: "lane_priority_level", Factor: 1, Modifier: "none", Missing: 5},
		},
		ScoreMode: dsl.ScoreModeSum,
	}
	ok, score := eval(fs, root)
	require.True(t, ok)
	assert.InDelta(t, 0.4225*0.4225*5+5+5, score, 1e-9)

	fs.Functions = append(fs.Functions, dsl.RandomScore{Seed: 42, Field: "work_id", Weight: 1.1})
	_, a := eval(fs, root)
	_, b := eval(fs, root)
	assert.Equal(t, a, b, "seeded random scores are stable")
	assert.Greater(t, a, score)
	assert.LessOrEqual(t, a, score+1.1)
}

func TestMatcher_Fuzzy(t *testing.T) {
	tests := []struct {
		name string
		m    matcher
		q, d string
		want bool
	}{
		{"exact without fuzziness", matcher{}, "dick", "dick", true},
		{"typo without fuzziness", matcher{}, "dick", "duck", false},
		{"one edit on a short word", matcher{fuzzy: true}, "dick", "duck", true},
		{"two edits on a short word", matcher{fuzzy: true}, "dick", "dusk", false},
		{"transposition is two edits", matcher{fuzzy: true}, "moby", "mboy", false},
		{"two letter words are exact", matcher{fuzzy: true}, "of", "or", false},
		{"two edits on a long word", matcher{fuzzy: true}, "kindred", "kinderd", true},
		{"prefix must match", matcher{fuzzy: true, prefix: 1}, "dick", "kick", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.equal(tt.q, tt.d))
		})
	}
}

func TestAnalyzers(t *testing.T) {
	tests := []struct {
		field string
		in    string
		want  []string
	}{
		{"title", "The Left Hand of Darkness", []string{"left", "hand", "dark"}},
		{"title.minimal", "The Left Hand of Darkness", []string{"left", "hand", "darkness"}},
		{"title.with_stopwords", "The Left Hand of Darkness", []string{"the", "left", "hand", "of", "darkness"}},
		{"title.keyword", "The Left Hand of Darkness", []string{"the left hand of darkness"}},
		{"title.minimal", "Ender's Game", []string{"ender", "game"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzerFor(tt.field).tokens(tt.in))
		})
	}
}

func TestMinimumShouldMatch(t *testing.T) {
	assert.Equal(t, 0, minimumShouldMatch(nil, 4))
	assert.Equal(t, 2, minimumShouldMatch(2, 4))
	assert.Equal(t, 4, minimumShouldMatch("100%", 4))
	assert.Equal(t, 3, minimumShouldMatch("75%", 4))
	assert.Equal(t, 3, minimumShouldMatch(-1, 4))
	assert.Equal(t, 0, minimumShouldMatch("most", 4))
}

func TestSearch_PaginationAndSource(t *testing.T) {
	e := loadedEngine(t)
	res, err := e.Search(context.Background(), &dsl.Search{
		Query:  dsl.Term{Field: "presentation_ready", Value: true},
		Sort:   []dsl.Sort{dsl.FieldSort{Field: "work_id", Order: dsl.Desc}},
		From:   dsl.Int(1),
		Size:   dsl.Int(2),
		Source: []string{"work_id"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Total)
	assert.Equal(t, []string{"6", "5"}, ids(res))
	assert.Equal(t, map[string]any{"work_id": json.Number("6")}, res.Entries[0].Source)
	assert.Zero(t, res.Entries[0].Score, "field-sorted hits are not scored")
	assert.Equal(t, []any{json.Number("6")}, res.Entries[0].Sort)
}

func TestSearch_SearchAfterMissingValuesLast(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Index(
		map[string]any{"work_id": 1, "series_position": 2},
		map[string]any{"work_id": 2},
		map[string]any{"work_id": 3, "series_position": 1},
	))
	sorts := []dsl.Sort{
		dsl.FieldSort{Field: "series_position", Order: dsl.Desc},
		dsl.FieldSort{Field: "work_id", Order: dsl.Desc},
	}

	res, err := e.Search(context.Background(), &dsl.Search{Sort: sorts})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "2"}, ids(res))

	res, err = e.Search(context.Background(), &dsl.Search{Sort: sorts, SearchAfter: res.Entries[0].Sort})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, ids(res))
}

func TestSearch_UnknownStoredScript(t *testing.T) {
	e := loadedEngine(t)
	_, err := e.Search(context.Background(), &dsl.Search{
		Sort: []dsl.Sort{dsl.ScriptSort{Script: dsl.StoredScript{Stored: "shelfdex.popularity.v1"}, Order: dsl.Desc}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchEngine)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)

	var dbErr *db.Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, db.OpSearch, dbErr.Op)
}

func TestSearch_CanceledContext(t *testing.T) {
	e := loadedEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, &dsl.Search{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_Explain(t *testing.T) {
	e := loadedEngine(t)
	res, err := e.Search(context.Background(), &dsl.Search{
		Query:   dsl.Term{Field: "work_id", Value: 3},
		Explain: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.JSONEq(t, `{"value":1,"description":"sum of matching hypotheses","details":[]}`,
		string(res.Entries[0].Explanation))
}

func TestMultiSearch(t *testing.T) {
	e := loadedEngine(t)
	res, err := e.MultiSearch(context.Background(), []*dsl.Search{
		{Query: dsl.Term{Field: "work_id", Value: 1}},
		{Query: dsl.MatchNone{}},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, []string{"1"}, ids(res[0]))
	assert.Empty(t, res[1].Entries)

	_, err = e.MultiSearch(context.Background(), []*dsl.Search{
		{},
		{Sort: []dsl.Sort{dsl.ScriptSort{Script: dsl.StoredScript{Stored: "nope"}, Order: dsl.Asc}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search 1")

	res, err = e.MultiSearch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestScriptName(t *testing.T) {
	name, ok := scriptName("shelfdex.work_last_update.v3")
	assert.True(t, ok)
	assert.Equal(t, "work_last_update", name)

	for _, bad := range []string{"work_last_update", "shelfdex.work_last_update", "shelfdex.x.vlatest"} {
		_, ok := scriptName(bad)
		assert.False(t, ok, bad)
	}
}

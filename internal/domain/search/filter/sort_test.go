package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// orderFacets sets a sort order the way an ordering facet would.
type orderFacets struct {
	keys      []string
	ascending bool
}

func (o orderFacets) ModifySearchFilter(f *Filter) { f.SetOrder(o.keys, o.ascending) }

func (orderFacets) ScoringFunctions(*Filter) []dsl.ScoringFunction { return nil }

func TestSortOrder_NoOrder(t *testing.T) {
	assert.Empty(t, mustNew(t, Options{}).SortOrder())
}

func TestSortOrder_Tiebreakers(t *testing.T) {
	tests := []struct {
		name      string
		keys      []string
		ascending bool
		want      string
	}{
		{"title ascending", []string{"sort_title"}, true,
			`[{"sort_title":"asc"},{"sort_author":"asc"},{"work_id":"asc"}]`},
		{"title descending", []string{"sort_title"}, false,
			`[{"sort_title":"desc"},{"sort_author":"desc"},{"work_id":"desc"}]`},
		{"author", []string{"sort_author"}, true,
			`[{"sort_author":"asc"},{"sort_title":"asc"},{"work_id":"asc"}]`},
		{"series position", []string{"series_position", "sort_title"}, true,
			`[{"series_position":"asc"},{"sort_title":"asc"},{"sort_author":"asc"},{"work_id":"asc"}]`},
		{"work id", []string{"work_id"}, true,
			`[{"work_id":"asc"},{"sort_author":"asc"},{"sort_title":"asc"}]`},
		{"plain last update", []string{"last_update_time"}, false,
			`[{"last_update_time":"desc"},{"sort_author":"desc"},{"sort_title":"desc"},{"work_id":"desc"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustNew(t, Options{Facets: orderFacets{tt.keys, tt.ascending}})
			assert.JSONEq(t, tt.want, jsonOf(t, f.SortOrder()))
		})
	}
}

func TestSortOrder_AvailabilityTime(t *testing.T) {
	f := mustNew(t, Options{
		Collections: normalize.IDsOf(1, 2),
		Facets:      orderFacets{[]string{SortAvailabilityTime}, true},
	})
	order := f.SortOrder()
	require.Len(t, order, 4)
	assert.JSONEq(t, `{"licensepools.availability_time":{"order":"asc","mode":"min",
		"nested":{"path":"licensepools","filter":{"terms":{"licensepools.collection_id":[1,2]}}}}}`,
		jsonOf(t, order[0]))

	unscoped := mustNew(t, Options{Facets: orderFacets{[]string{SortAvailabilityTime}, true}})
	assert.JSONEq(t, `{"licensepools.availability_time":{"order":"asc","mode":"min"}}`, jsonOf(t, unscoped.SortOrder()[0]))
}

func TestSortOrder_LicensePoolsUpdated(t *testing.T) {
	f := mustNew(t, Options{
		Collections: normalize.IDsOf(5),
		Facets:      orderFacets{[]string{SortLicensePoolsUpdated}, false},
	})
	assert.JSONEq(t, `{"licensepools.last_updated":{"order":"desc","mode":"max",
		"nested":{"path":"licensepools","filter":{"terms":{"licensepools.collection_id":[5]}}}}}`,
		jsonOf(t, f.SortOrder()[0]))
}

func TestSortOrder_LastUpdateScript(t *testing.T) {
	f := mustNew(t, Options{
		Collections:               normalize.IDsOf(1),
		CustomListRestrictionSets: [][]int64{{4, 2}, {2, 9}},
		Facets:                    orderFacets{[]string{SortLastUpdateTime}, false},
	})
	script := `{"stored":"shelfdex.work_last_update.v1","params":{"collection_ids":[1],"list_ids":[2,4,9]}}`
	assert.JSONEq(t, `{"_script":{"type":"number","script":`+script+`,"order":"desc"}}`, jsonOf(t, f.SortOrder()[0]))
	assert.JSONEq(t, `{"last_update":{"script":`+script+`}}`, jsonOf(t, f.ScriptFields()))
}

func TestSortOrder_ScriptRevision(t *testing.T) {
	f := mustNew(t, Options{
		CustomListRestrictionSets: [][]int64{{1}},
		ScriptRevision:            3,
		Facets:                    orderFacets{[]string{SortLastUpdateTime}, true},
	})
	assert.Equal(t, "shelfdex.work_last_update.v3", f.SortOrder()[0].Key())
}

func TestSortOrder_UnknownNestedKey(t *testing.T) {
	_, err := New(Options{Facets: orderFacets{[]string{"contributors.sort_name"}, true}})
	if !errors.Is(err, domain.ErrInvalidSort) {
		t.Fatalf("expected ErrInvalidSort, got %v", err)
	}
}

func TestFeaturabilityScoringFunctions(t *testing.T) {
	f := mustNew(t, Options{CustomListRestrictionSets: [][]int64{{3}}})
	f.SetMinimumFeaturedQuality(0.6)

	fns := f.FeaturabilityScoringFunctions(Seed(42))
	assert.JSONEq(t, `[
		{"script_score":{"script":{"source":"Math.pow(Math.min(0.36000, doc['quality'].size() != 0 ? doc['quality'].value : 0.001), 2.00000) * 5"}}},
		{"filter":{"nested":{"path":"licensepools","query":{"term":{"licensepools.available":true}}}},"weight":5},
		{"field_value_factor":{"field":"lane_priority_level","factor":1,"modifier":"none","missing":5}},
		{"random_score":{"seed":42,"field":"work_id"},"weight":1.1},
		{"filter":{"nested":{"path":"customlists","query":{"bool":{"must":[
			{"term":{"customlists.featured":true}},{"terms":{"customlists.list_id":[3]}}]}}}},"weight":11}
	]`, jsonOf(t, fns))

	deterministic := mustNew(t, Options{}).FeaturabilityScoringFunctions(Deterministic)
	assert.Len(t, deterministic, 3)

	clock := mustNew(t, Options{}).FeaturabilityScoringFunctions(RandomSeed{})
	require.Len(t, clock, 4)
	assert.NotZero(t, clock[3].(dsl.RandomScore).Seed)
}

func TestScoringFunctions_FromFacets(t *testing.T) {
	f := mustNew(t, Options{Facets: scoringFacets{}})
	assert.Len(t, f.ScoringFunctions(), 3)
	assert.Equal(t, SearchTypeJSON, f.SearchType())
}

type scoringFacets struct{}

func (scoringFacets) ModifySearchFilter(f *Filter) { f.SetMinScore(dsl.Float(10)) }

func (scoringFacets) ScoringFunctions(f *Filter) []dsl.ScoringFunction {
	return f.FeaturabilityScoringFunctions(Deterministic)
}

func (scoringFacets) SearchType() string { return SearchTypeJSON }

func TestNew_JSONSearchDropsMinScore(t *testing.T) {
	f := mustNew(t, Options{MinScore: dsl.Float(500), Facets: scoringFacets{}})
	assert.Nil(t, f.MinScore())
}

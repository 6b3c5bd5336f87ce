package facet

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
)

func build(t *testing.T, facets filter.Facets) *filter.Filter {
	t.Helper()
	f, err := filter.New(filter.Options{Facets: facets})
	require.NoError(t, err)
	return f
}

func nestedJSON(t *testing.T, f *filter.Filter, path string) string {
	t.Helper()
	_, nested := f.Build()
	b, err := json.Marshal(nested.Get(path))
	require.NoError(t, err)
	return string(b)
}

func TestOrdering(t *testing.T) {
	tests := []struct {
		name      string
		ascending *bool
		wantKeys  []string
		wantAsc   bool
	}{
		{OrderTitle, nil, []string{"sort_title"}, true},
		{OrderAddedToCollection, nil, []string{filter.SortAvailabilityTime}, false},
		{OrderLastUpdate, nil, []string{filter.SortLastUpdateTime}, false},
		{OrderSeriesPosition, nil, []string{"series_position", "sort_title"}, true},
		{OrderAuthor, new(bool), []string{"sort_author"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrdering(tt.name, tt.ascending)
			require.NoError(t, err)
			f := build(t, o)
			assert.Equal(t, tt.wantKeys, f.Order())
			assert.Equal(t, tt.wantAsc, f.OrderAscending())
		})
	}

	_, err := NewOrdering("popularity", nil)
	if !errors.Is(err, domain.ErrInvalidSort) {
		t.Fatalf("expected ErrInvalidSort, got %v", err)
	}
}

func TestAvailability(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{filter.AvailableAll, "null"},
		{filter.AvailableOpenAccess, `[{"term":{"licensepools.open_access":true}}]`},
		{filter.AvailableNow, `[{"bool":{"should":[{"term":{"licensepools.open_access":true}},{"term":{"licensepools.available":true}}],"minimum_should_match":1}}]`},
		{filter.AvailableNotNow, `[{"bool":{"must":[{"term":{"licensepools.open_access":false}},{"term":{"licensepools.licensed":true}},{"term":{"licensepools.available":false}}]}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			a, err := NewAvailability(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, nestedJSON(t, build(t, a), filter.PathLicensePools))
		})
	}

	if _, err := NewAvailability("sometimes"); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestCollection_Featured(t *testing.T) {
	c, err := NewCollection(filter.CollectionFeatured, 0.65)
	require.NoError(t, err)
	f := build(t, c)
	main, _ := f.Build()
	b, err := json.Marshal(main)
	require.NoError(t, err)
	assert.Contains(t, string(b), `{"range":{"quality":{"gte":0.65}}}`)
}

func TestEntryPoint(t *testing.T) {
	e, err := NewEntryPoint(EntryPointAudio)
	require.NoError(t, err)
	main, _ := build(t, e).Build()
	b, err := json.Marshal(main)
	require.NoError(t, err)
	assert.Contains(t, string(b), `{"terms":{"medium":["audio"]}}`)

	all, err := NewEntryPoint(EntryPointAll)
	require.NoError(t, err)
	main, _ = build(t, all).Build()
	b, err = json.Marshal(main)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "medium")

	_, err = NewEntryPoint("Video")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestDistributorAndCollectionName(t *testing.T) {
	f := build(t, Chain{Distributor{DataSourceID: 4}, CollectionName{CollectionID: 9}})
	assert.JSONEq(t, `[{"terms":{"licensepools.collection_id":[9]}},{"terms":{"licensepools.data_source_id":[4]}}]`,
		nestedJSON(t, f, filter.PathLicensePools))
}

func TestFeatured(t *testing.T) {
	f := build(t, Featured{MinimumQuality: 0.5, Seed: filter.Deterministic})
	assert.Equal(t, 0.5, f.MinimumFeaturedQuality())
	assert.Len(t, f.ScoringFunctions(), 3)
}

func TestSearch_MinScore(t *testing.T) {
	relevance := build(t, Search{})
	require.NotNil(t, relevance.MinScore())
	assert.Equal(t, float64(DefaultMinScore), *relevance.MinScore())

	title, err := NewOrdering(OrderTitle, nil)
	require.NoError(t, err)
	sorted := build(t, Chain{title, Search{}})
	assert.Nil(t, sorted.MinScore(), "sorted searches are not cut off by score")

	jsonSearch := build(t, Search{Type: filter.SearchTypeJSON})
	assert.Nil(t, jsonSearch.MinScore())
	assert.Equal(t, filter.SearchTypeJSON, jsonSearch.SearchType())
}

func TestChain_ScoringFunctionsConcatenate(t *testing.T) {
	f := build(t, Chain{
		Featured{Seed: filter.Deterministic},
		Featured{Seed: filter.Seed(1)},
	})
	assert.Len(t, f.ScoringFunctions(), 7)
}

// Package facet holds the policies that adjust a search filter: ordering,
// availability, collection scope, entry point and featured scoring.
package facet

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// Chain applies policies in order. Later policies see earlier changes.
type Chain []filter.Facets

// ModifySearchFilter implements filter.Facets.
func (c Chain) ModifySearchFilter(f *filter.Filter) {
	for _, p := range c {
		p.ModifySearchFilter(f)
	}
}

// ScoringFunctions implements filter.Facets.
func (c Chain) ScoringFunctions(f *filter.Filter) []dsl.ScoringFunction {
	var out []dsl.ScoringFunction
	for _, p := range c {
		out = append(out, p.ScoringFunctions(f)...)
	}
	return out
}

// SearchType returns the last search type selected by a policy.
func (c Chain) SearchType() string {
	var st string
	for _, p := range c {
		if t, ok := p.(filter.SearchTyper); ok && t.SearchType() != "" {
			st = t.SearchType()
		}
	}
	return st
}

// noScoring is embedded by policies that only restrict.
type noScoring struct{}

func (noScoring) ScoringFunctions(*filter.Filter) []dsl.ScoringFunction { return nil }

// Ordering names.
const (
	OrderTitle             = "title"
	OrderAuthor            = "author"
	OrderLastUpdate        = "last_update"
	OrderAddedToCollection = "added_to_collection"
	OrderSeriesPosition    = "series_position"
	OrderWorkID            = "work_id"
	OrderRandom            = "random"
)

var orderFields = map[string][]string{
	OrderTitle:             {"sort_title"},
	OrderAuthor:            {"sort_author"},
	OrderLastUpdate:        {filter.SortLastUpdateTime},
	OrderAddedToCollection: {filter.SortAvailabilityTime},
	OrderSeriesPosition:    {"series_position", "sort_title"},
	OrderWorkID:            {"work_id"},
	OrderRandom:            {"random"},
}

// Orders that read newest first unless asked otherwise.
var descendingByDefault = []string{OrderAddedToCollection, OrderLastUpdate}

// Ordering sorts results by a named order instead of relevance.
type Ordering struct {
	noScoring
	name      string
	ascending bool
}

// NewOrdering validates an order name. A nil ascending uses the order's
// natural direction.
func NewOrdering(name string, ascending *bool) (Ordering, error) {
	if _, ok := orderFields[name]; !ok {
		return Ordering{}, fmt.Errorf("%w: unknown order %q", domain.ErrInvalidSort, name)
	}
	asc := !slices.Contains(descendingByDefault, name)
	if ascending != nil {
		asc = *ascending
	}
	return Ordering{name: name, ascending: asc}, nil
}

// Name returns the order name.
func (o Ordering) Name() string { return o.name }

// ModifySearchFilter implements filter.Facets.
func (o Ordering) ModifySearchFilter(f *filter.Filter) {
	f.SetOrder(slices.Clone(orderFields[o.name]), o.ascending)
}

// Availability restricts results by loan availability.
type Availability struct {
	noScoring
	value string
}

// NewAvailability validates an availability name.
func NewAvailability(value string) (Availability, error) {
	switch value {
	case filter.AvailableAll, filter.AvailableNow, filter.AvailableOpenAccess, filter.AvailableNotNow:
		return Availability{value: value}, nil
	}
	return Availability{}, fmt.Errorf("%w: unknown availability %q", domain.ErrInvalidFilter, value)
}

// ModifySearchFilter implements filter.Facets.
func (a Availability) ModifySearchFilter(f *filter.Filter) { f.SetAvailability(a.value) }

// Collection selects the full collection or only its featured part.
type Collection struct {
	noScoring
	value          string
	minimumQuality float64
}

// NewCollection validates a collection name. The quality floor applies
// to the featured collection.
func NewCollection(value string, minimumQuality float64) (Collection, error) {
	switch value {
	case filter.CollectionFull, filter.CollectionFeatured:
		return Collection{value: value, minimumQuality: minimumQuality}, nil
	}
	return Collection{}, fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidFilter, value)
}

// ModifySearchFilter implements filter.Facets.
func (c Collection) ModifySearchFilter(f *filter.Filter) {
	f.SetSubcollection(c.value, c.minimumQuality)
}

// Distributor restricts results to license pools from one data source.
type Distributor struct {
	noScoring
	DataSourceID int64
}

// ModifySearchFilter implements filter.Facets.
func (d Distributor) ModifySearchFilter(f *filter.Filter) {
	f.SetLicenseDataSources(normalize.IDsOf(d.DataSourceID))
}

// CollectionName restricts results to one collection.
type CollectionName struct {
	noScoring
	CollectionID int64
}

// ModifySearchFilter implements filter.Facets.
func (c CollectionName) ModifySearchFilter(f *filter.Filter) {
	f.SetCollections(normalize.IDsOf(c.CollectionID))
}

// Entry points.
const (
	EntryPointAll   = "All"
	EntryPointBook  = "Book"
	EntryPointAudio = "Audio"
)

// EntryPoint narrows results to one medium.
type EntryPoint struct {
	noScoring
	name string
}

// NewEntryPoint validates an entry point name.
func NewEntryPoint(name string) (EntryPoint, error) {
	switch name {
	case EntryPointAll, EntryPointBook, EntryPointAudio:
		return EntryPoint{name: name}, nil
	}
	return EntryPoint{}, fmt.Errorf("%w: unknown entry point %q", domain.ErrInvalidFilter, name)
}

// ModifySearchFilter implements filter.Facets.
func (e EntryPoint) ModifySearchFilter(f *filter.Filter) {
	if e.name == EntryPointAll {
		return
	}
	f.SetMedia([]string{e.name})
}

// Featured biases results towards featurable works.
type Featured struct {
	MinimumQuality float64
	Seed           filter.RandomSeed
}

// ModifySearchFilter implements filter.Facets.
func (ft Featured) ModifySearchFilter(f *filter.Filter) {
	f.SetMinimumFeaturedQuality(ft.MinimumQuality)
}

// ScoringFunctions implements filter.Facets.
func (ft Featured) ScoringFunctions(f *filter.Filter) []dsl.ScoringFunction {
	return f.FeaturabilityScoringFunctions(ft.Seed)
}

// DefaultMinScore cuts off weak relevance matches in free-text search.
const DefaultMinScore = 500

// Search carries the choices a patron makes on the search form.
type Search struct {
	noScoring
	// MinScore applies only to relevance-ranked searches. Nil uses
	// DefaultMinScore.
	MinScore  *float64
	Languages []string
	Media     []string
	Type      string
}

// ModifySearchFilter implements filter.Facets.
func (s Search) ModifySearchFilter(f *filter.Filter) {
	if len(s.Media) > 0 {
		f.SetMedia(s.Media)
	}
	if len(s.Languages) > 0 {
		f.SetLanguages(s.Languages)
	}
	if len(f.Order()) > 0 {
		f.SetMinScore(nil)
		return
	}
	minScore := s.MinScore
	if minScore == nil {
		minScore = dsl.Float(DefaultMinScore)
	}
	f.SetMinScore(minScore)
}

// SearchType implements filter.SearchTyper.
func (s Search) SearchType() string { return s.Type }

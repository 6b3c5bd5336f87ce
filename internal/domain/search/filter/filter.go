// Package filter turns structural search restrictions into engine queries.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// Availability restrictions set by facets.
const (
	AvailableAll        = "all"
	AvailableNow        = "now"
	AvailableOpenAccess = "always"
	AvailableNotNow     = "not_now"
)

// Subcollections set by facets.
const (
	CollectionFull     = "full"
	CollectionFeatured = "featured"
)

// Search types. JSON searches are exact matches and are never cut off
// by a minimum score.
const (
	SearchTypeDefault = "default"
	SearchTypeJSON    = "json"
)

// Facets is a policy that adjusts a Filter while it is being built and
// may contribute scoring functions.
type Facets interface {
	ModifySearchFilter(f *Filter)
	ScoringFunctions(f *Filter) []dsl.ScoringFunction
}

// SearchTyper is implemented by facets that select a search type.
type SearchTyper interface {
	SearchType() string
}

// Filter holds every structural restriction of one search. It is built
// once by New and only read afterwards.
type Filter struct {
	collectionIDs             normalize.IDs
	media                     []string
	languages                 []string
	fiction                   *bool
	audiences                 []string
	targetAge                 *catalog.AgeRange
	genreRestrictionSets      [][]int64
	customListRestrictionSets [][]int64
	allowHolds                bool
	updatedAfter              *time.Time
	series                    *Series
	author                    *catalog.Contributor
	minScore                  *float64
	matchNothing              bool
	licenseDataSources        normalize.IDs
	identifiers               []catalog.Identifier
	laneBuilding              bool
	libraryID                 *int64
	filteredAudiences         []string
	filteredGenres            []string
	scriptRevision            int
	suppressed                bool

	// Set by facets.
	minimumFeaturedQuality float64
	availability           string
	subcollection          string
	order                  []string
	orderAscending         bool

	scriptFields     map[string]ScriptField
	scoringFunctions []dsl.ScoringFunction
	searchType       string
	sortOrder        []dsl.Sort
}

// New validates opts, lets the facets adjust the result and precomputes
// the sort order.
func New(opts Options) (*Filter, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	f := &Filter{
		collectionIDs:             opts.Collections,
		media:                     opts.Media,
		languages:                 opts.Languages,
		fiction:                   opts.Fiction,
		audiences:                 opts.Audiences,
		targetAge:                 opts.TargetAge,
		genreRestrictionSets:      restrictionSets(opts.GenreRestrictionSets),
		customListRestrictionSets: restrictionSets(opts.CustomListRestrictionSets),
		allowHolds:                opts.AllowHolds == nil || *opts.AllowHolds,
		updatedAfter:              opts.UpdatedAfter,
		series:                    opts.Series,
		author:                    opts.Author,
		minScore:                  opts.MinScore,
		matchNothing:              opts.MatchNothing,
		licenseDataSources:        opts.LicenseDataSources,
		identifiers:               opts.Identifiers,
		laneBuilding:              opts.LaneBuilding,
		scriptRevision:            opts.ScriptRevision,
		suppressed:                opts.Suppressed,
		searchType:                SearchTypeDefault,
		scriptFields:              map[string]ScriptField{},
	}
	if f.scriptRevision == 0 {
		f.scriptRevision = DefaultScriptRevision
	}
	if lib := opts.Library; lib != nil {
		id := lib.ID
		f.libraryID = &id
		f.filteredAudiences = lib.FilteredAudiences
		f.filteredGenres = lib.FilteredGenres
	}
	for name, sf := range opts.ScriptFields {
		f.scriptFields[name] = sf
	}

	if opts.Facets != nil {
		opts.Facets.ModifySearchFilter(f)
		f.scoringFunctions = opts.Facets.ScoringFunctions(f)
		if st, ok := opts.Facets.(SearchTyper); ok && st.SearchType() != "" {
			f.searchType = st.SearchType()
		}
	}
	if f.searchType == SearchTypeJSON {
		f.minScore = nil
	}

	order, err := f.buildSortOrder()
	if err != nil {
		return nil, err
	}
	f.sortOrder = order
	return f, nil
}

func validate(opts Options) error {
	var errs []error
	if opts.TargetAge != nil && !opts.TargetAge.Valid() {
		errs = append(errs, fmt.Errorf("target age lower bound %d exceeds upper bound %d",
			*opts.TargetAge.Lower, *opts.TargetAge.Upper))
	}
	if s := opts.Series; s != nil && !s.any && s.name == "" {
		errs = append(errs, errors.New("series name is required"))
	}
	for i, id := range opts.Identifiers {
		if id.Type == "" || id.Value == "" {
			errs = append(errs, fmt.Errorf("identifier %d needs both type and value", i))
		}
	}
	if opts.MinScore != nil && *opts.MinScore < 0 {
		errs = append(errs, errors.New("min score must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidFilter, errors.Join(errs...))
	}
	return nil
}

// restrictionSets copies the sets so that an empty inner set stays
// distinct from an absent one.
func restrictionSets(sets [][]int64) [][]int64 {
	if len(sets) == 0 {
		return nil
	}
	out := make([][]int64, 0, len(sets))
	for _, s := range sets {
		inner := make([]int64, len(s))
		copy(inner, s)
		out = append(out, inner)
	}
	return out
}

// Audiences returns the audiences works must target. All Ages is added
// for adult and young adult audiences, and for children unless the
// target age is below AllAgesAgeCutoff. Nil means unrestricted.
func (f *Filter) Audiences() []string {
	if len(f.audiences) == 0 {
		return nil
	}
	asIs := slices.Clone(f.audiences)
	withAllAges := append(slices.Clone(f.audiences), catalog.AudienceAllAges)

	switch {
	case slices.Contains(asIs, catalog.AudienceAllAges):
		return asIs
	case slices.Contains(asIs, catalog.AudienceYoungAdult), slices.Contains(asIs, catalog.AudienceAdult):
		return withAllAges
	case !slices.Contains(asIs, catalog.AudienceChildren):
		return asIs
	}
	if f.targetAge != nil && f.targetAge.Upper != nil && *f.targetAge.Upper < catalog.AllAgesAgeCutoff {
		return asIs
	}
	return withAllAges
}

// CollectionIDs returns the collection restriction.
func (f *Filter) CollectionIDs() normalize.IDs { return f.collectionIDs }

// CustomListRestrictionSets returns the list restriction sets.
func (f *Filter) CustomListRestrictionSets() [][]int64 { return f.customListRestrictionSets }

// GenreRestrictionSets returns the genre restriction sets.
func (f *Filter) GenreRestrictionSets() [][]int64 { return f.genreRestrictionSets }

// TargetAge returns the target age restriction.
func (f *Filter) TargetAge() *catalog.AgeRange { return f.targetAge }

// MatchNothing reports whether the filter short-circuits to no results.
func (f *Filter) MatchNothing() bool { return f.matchNothing }

// MinScore returns the relevance cutoff, nil when there is none.
func (f *Filter) MinScore() *float64 { return f.minScore }

// SearchType returns SearchTypeDefault or SearchTypeJSON.
func (f *Filter) SearchType() string { return f.searchType }

// Order returns the requested sort keys.
func (f *Filter) Order() []string { return f.order }

// OrderAscending reports the sort direction.
func (f *Filter) OrderAscending() bool { return f.orderAscending }

// Availability returns the availability restriction.
func (f *Filter) Availability() string { return f.availability }

// MinimumFeaturedQuality returns the featured quality floor.
func (f *Filter) MinimumFeaturedQuality() float64 { return f.minimumFeaturedQuality }

// ScoringFunctions returns the facet-contributed scoring functions.
func (f *Filter) ScoringFunctions() []dsl.ScoringFunction { return f.scoringFunctions }

// SortOrder returns the full sort chain, empty when results are ranked
// by relevance.
func (f *Filter) SortOrder() []dsl.Sort { return f.sortOrder }

// ScriptFields returns the computed fields to request per hit.
func (f *Filter) ScriptFields() map[string]ScriptField { return f.scriptFields }

// The setters below are for facet policies during New.

// SetOrder sets the sort keys and direction.
func (f *Filter) SetOrder(keys []string, ascending bool) {
	f.order = keys
	f.orderAscending = ascending
}

// SetAvailability sets the availability restriction.
func (f *Filter) SetAvailability(a string) { f.availability = a }

// SetSubcollection sets the subcollection and its quality floor.
func (f *Filter) SetSubcollection(name string, minimumQuality float64) {
	f.subcollection = name
	f.minimumFeaturedQuality = minimumQuality
}

// SetMinimumFeaturedQuality sets the featurability cutoff.
func (f *Filter) SetMinimumFeaturedQuality(q float64) { f.minimumFeaturedQuality = q }

// SetMedia replaces the media restriction.
func (f *Filter) SetMedia(media []string) { f.media = media }

// SetLanguages replaces the language restriction.
func (f *Filter) SetLanguages(languages []string) { f.languages = languages }

// SetCollections replaces the collection restriction.
func (f *Filter) SetCollections(ids normalize.IDs) { f.collectionIDs = ids }

// SetLicenseDataSources replaces the license data source restriction.
func (f *Filter) SetLicenseDataSources(ids normalize.IDs) { f.licenseDataSources = ids }

// SetMinScore sets the relevance cutoff.
func (f *Filter) SetMinScore(s *float64) { f.minScore = s }

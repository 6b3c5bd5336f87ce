package filter

import (
	"slices"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// Nested document paths.
const (
	PathLicensePools = "licensepools"
	PathContributors = "contributors"
	PathGenres       = "genres"
	PathCustomLists  = "customlists"
	PathIdentifiers  = "identifiers"
)

// LicensePoolStatusActive is the status of a license pool that can circulate.
const LicensePoolStatusActive = "active"

// Nested maps nested document paths to the filters applied inside them.
// Paths keep the order in which they were first added.
type Nested struct {
	paths   []string
	clauses map[string][]dsl.Query
}

// NewNested creates an empty Nested.
func NewNested() *Nested {
	return &Nested{clauses: map[string][]dsl.Query{}}
}

// Add appends a filter for path.
func (n *Nested) Add(path string, q dsl.Query) {
	if _, ok := n.clauses[path]; !ok {
		n.paths = append(n.paths, path)
	}
	n.clauses[path] = append(n.clauses[path], q)
}

// Extend appends every filter of other.
func (n *Nested) Extend(other *Nested) {
	for _, p := range other.Paths() {
		for _, q := range other.Get(p) {
			n.Add(p, q)
		}
	}
}

// Paths returns the paths in insertion order.
func (n *Nested) Paths() []string { return n.paths }

// Get returns the filters for path.
func (n *Nested) Get(path string) []dsl.Query { return n.clauses[path] }

// Len returns the number of paths.
func (n *Nested) Len() int { return len(n.paths) }

// Build converts the filter into a main query over the Work document
// and per-path filters for nested documents. It has no side effects.
func (f *Filter) Build() (dsl.Query, *Nested) {
	if f.suppressed {
		return f.buildSuppressed()
	}
	nested := NewNested()
	if f.matchNothing {
		return dsl.MatchNone{}, nested
	}

	// A restricted but empty ID list yields an empty terms query, which
	// matches nothing.
	if ids := f.collectionIDs; ids.Restricted() {
		nested.Add(PathLicensePools, dsl.TermsOf("licensepools.collection_id", ids.Values()))
	}
	if ids := f.licenseDataSources; ids.Restricted() {
		nested.Add(PathLicensePools, dsl.TermsOf("licensepools.data_source_id", ids.Values()))
	}
	if f.author != nil {
		nested.Add(PathContributors, f.AuthorFilter())
	}

	var main dsl.Query
	chain := func(q dsl.Query) { main = dsl.And(main, q) }

	if f.libraryID != nil {
		chain(dsl.Bool{MustNot: []dsl.Query{dsl.TermsOf("suppressed_for", []int64{*f.libraryID})}})
	}
	if len(f.filteredAudiences) > 0 {
		chain(dsl.Bool{MustNot: []dsl.Query{dsl.TermsOf("audience", normalize.ScrubList(f.filteredAudiences...))}})
	}
	if len(f.filteredGenres) > 0 {
		chain(dsl.Bool{MustNot: []dsl.Query{dsl.Nested{
			Path:  PathGenres,
			Query: dsl.TermsOf("genres.name", f.filteredGenres),
		}}})
	}
	if len(f.media) > 0 {
		chain(dsl.TermsOf("medium", normalize.ScrubList(f.media...)))
	}
	if len(f.languages) > 0 {
		chain(dsl.TermsOf("language", normalize.ScrubList(f.languages...)))
	}
	if f.fiction != nil {
		value := "nonfiction"
		if *f.fiction {
			value = "fiction"
		}
		chain(dsl.Term{Field: "fiction", Value: value})
	}
	if s := f.series; s != nil {
		if s.any {
			chain(dsl.Exists{Field: "series"})
			chain(dsl.Bool{MustNot: []dsl.Query{dsl.Term{Field: "series.keyword", Value: ""}}})
		} else {
			chain(dsl.Term{Field: "series.keyword", Value: s.name})
		}
	}
	if audiences := f.Audiences(); len(audiences) > 0 {
		chain(dsl.TermsOf("audience", normalize.ScrubList(audiences...)))
	} else {
		chain(dsl.Bool{MustNot: []dsl.Query{dsl.Term{Field: "audience", Value: normalize.Scrub(catalog.AudienceResearch)}}})
	}
	if ta := f.TargetAgeFilter(); ta != nil {
		chain(ta)
	}

	for _, set := range f.genreRestrictionSets {
		nested.Add(PathGenres, dsl.TermsOf("genres.term", set))
	}
	for _, set := range f.customListRestrictionSets {
		nested.Add(PathCustomLists, dsl.TermsOf("customlists.list_id", set))
	}

	openAccess := dsl.Term{Field: "licensepools.open_access", Value: true}
	available := dsl.Term{Field: "licensepools.available", Value: true}
	switch f.availability {
	case AvailableNow:
		nested.Add(PathLicensePools, dsl.Bool{Should: []dsl.Query{openAccess, available}, MinimumShouldMatch: 1})
	case AvailableOpenAccess:
		nested.Add(PathLicensePools, openAccess)
	case AvailableNotNow:
		nested.Add(PathLicensePools, dsl.Bool{Must: []dsl.Query{
			dsl.Term{Field: "licensepools.open_access", Value: false},
			dsl.Term{Field: "licensepools.licensed", Value: true},
			dsl.Term{Field: "licensepools.available", Value: false},
		}})
	}

	if f.subcollection == CollectionFeatured {
		chain(dsl.Bool{Must: []dsl.Query{dsl.Range{Field: "quality", GTE: f.minimumFeaturedQuality}}})
	}

	if len(f.identifiers) > 0 {
		clauses := make([]dsl.Query, 0, len(f.identifiers))
		for _, id := range f.identifiers {
			clauses = append(clauses, dsl.Bool{Must: []dsl.Query{
				dsl.Term{Field: "identifiers.identifier", Value: id.Value},
				dsl.Term{Field: "identifiers.type", Value: id.Type},
			}})
		}
		nested.Add(PathIdentifiers, dsl.Bool{Should: clauses, MinimumShouldMatch: 1})
	}

	if !f.allowHolds {
		nested.Add(PathLicensePools, dsl.Bool{Should: []dsl.Query{available, openAccess}, MinimumShouldMatch: 1})
	}

	if f.updatedAfter != nil {
		seconds := float64(f.updatedAfter.UnixNano()) / 1e9
		chain(dsl.Bool{Must: []dsl.Query{dsl.Range{Field: "last_update_time", GTE: seconds}}})
	}

	for _, q := range UniversalBaseFilter() {
		chain(q)
	}
	return main, nested
}

// UniversalBaseFilter returns the Work-level restrictions every search gets.
func UniversalBaseFilter() []dsl.Query {
	return []dsl.Query{dsl.Term{Field: "presentation_ready", Value: true}}
}

// UniversalNestedFilters returns the nested restrictions every search
// gets: license pools must be unsuppressed and active.
func UniversalNestedFilters() *Nested {
	n := NewNested()
	n.Add(PathLicensePools, dsl.Term{Field: "licensepools.suppressed", Value: false})
	n.Add(PathLicensePools, dsl.Term{Field: "licensepools.status", Value: LicensePoolStatusActive})
	return n
}

// TargetAgeFilter matches works whose own target age overlaps the
// requested range. Works that declare no bound on a side are never
// excluded by that side. Returns nil without a target age.
func (f *Filter) TargetAgeFilter() dsl.Query {
	if f.targetAge.Empty() {
		return nil
	}
	lower, upper := f.targetAge.Lower, f.targetAge.Upper

	if f.laneBuilding && f.targetAge.Bounded() && slices.Contains(f.Audiences(), catalog.AudienceChildren) {
		// Children's lanes only show works with a declared age range
		// that fits inside the lane's range.
		return dsl.Bool{Must: []dsl.Query{
			dsl.Range{Field: "target_age.lower", GTE: *lower},
			dsl.Range{Field: "target_age.upper", LTE: *upper},
		}}
	}

	orMissing := func(clause dsl.Query, field string) dsl.Query {
		missing := dsl.Bool{MustNot: []dsl.Query{dsl.Exists{Field: field}}}
		return dsl.Bool{Should: []dsl.Query{clause, missing}, MinimumShouldMatch: 1}
	}

	var clauses []dsl.Query
	if upper != nil {
		clauses = append(clauses, orMissing(dsl.Range{Field: "target_age.lower", LTE: *upper}, "target_age.lower"))
	}
	if lower != nil {
		clauses = append(clauses, orMissing(dsl.Range{Field: "target_age.upper", GTE: *lower}, "target_age.upper"))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return dsl.Bool{Must: clauses}
}

// AuthorFilter matches a contributors sub-document with an authorship
// role whose identity matches any known field of the author. An author
// with nothing usable yields zero disjuncts and so matches nothing.
func (f *Filter) AuthorFilter() dsl.Query {
	if f.author == nil {
		return nil
	}
	role := dsl.TermsOf("contributors.role", catalog.AuthorMatchRoles)

	var clauses []dsl.Query
	for _, c := range []struct {
		field string
		name  catalog.Name
	}{
		{"contributors.sort_name.keyword", f.author.SortName},
		{"contributors.display_name.keyword", f.author.DisplayName},
		{"contributors.viaf", f.author.VIAF},
		{"contributors.lc", f.author.LC},
	} {
		if !c.name.Usable() {
			continue
		}
		clauses = append(clauses, dsl.Term{Field: c.field, Value: c.name.Value()})
	}
	samePerson := dsl.Bool{Should: clauses, MinimumShouldMatch: 1}
	return dsl.Bool{Must: []dsl.Query{role, samePerson}}
}

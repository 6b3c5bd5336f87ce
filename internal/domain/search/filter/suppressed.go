package filter

import (
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// buildSuppressed inverts the library policy part of Build: it matches
// only works hidden from the library, either suppressed for it or
// excluded by its content filters. Other restrictions are ignored
// except the collection scope.
func (f *Filter) buildSuppressed() (dsl.Query, *Nested) {
	nested := NewNested()
	if f.matchNothing {
		return dsl.MatchNone{}, nested
	}
	if ids := f.collectionIDs; ids.Restricted() {
		nested.Add(PathLicensePools, dsl.TermsOf("licensepools.collection_id", ids.Values()))
	}

	var should []dsl.Query
	if f.libraryID != nil {
		should = append(should, dsl.TermsOf("suppressed_for", []int64{*f.libraryID}))
	}
	if len(f.filteredAudiences) > 0 {
		should = append(should, dsl.TermsOf("audience", normalize.ScrubList(f.filteredAudiences...)))
	}
	if len(f.filteredGenres) > 0 {
		should = append(should, dsl.Nested{Path: PathGenres, Query: dsl.TermsOf("genres.name", f.filteredGenres)})
	}
	if len(should) == 0 {
		return dsl.MatchNone{}, nested
	}
	return dsl.Bool{Should: should, MinimumShouldMatch: 1}, nested
}

package filter

import (
	"fmt"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// FromLane builds a lane-building Filter for the last lane of chain,
// which is ordered from the root lane to the lane being browsed.
//
// Scalar restrictions come from the nearest lane that defines them.
// Genre and custom list restrictions accumulate: every lane that
// defines one adds a restriction set. A lane that does not inherit
// parent restrictions stops the walk. A zero scriptRevision uses
// DefaultScriptRevision.
func FromLane(chain []catalog.Lane, lib *catalog.Library, facets Facets, scriptRevision int) (*Filter, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty lane chain", domain.ErrInvalidFilter)
	}
	scope := inheritedScope(chain)

	opts := Options{
		Facets:         facets,
		Library:        lib,
		LaneBuilding:   true,
		ScriptRevision: scriptRevision,
	}

	for _, l := range scope {
		if opts.Media == nil && len(l.Media) > 0 {
			opts.Media = l.Media
		}
		if opts.Languages == nil && len(l.Languages) > 0 {
			opts.Languages = l.Languages
		}
		if opts.Fiction == nil && l.Fiction != nil {
			opts.Fiction = l.Fiction
		}
		if opts.Audiences == nil && len(l.Audiences) > 0 {
			opts.Audiences = l.Audiences
		}
		if opts.TargetAge == nil && !l.TargetAge.Empty() {
			opts.TargetAge = l.TargetAge
		}
		if opts.Collections == nil && len(l.CollectionIDs) > 0 {
			opts.Collections = normalize.IDsOf(l.CollectionIDs...)
		}
		if opts.LicenseDataSources == nil && l.LicenseDataSourceID != nil {
			opts.LicenseDataSources = normalize.IDsOf(*l.LicenseDataSourceID)
		}
	}

	// Restriction sets are listed root first.
	for i := len(scope) - 1; i >= 0; i-- {
		if ids := scope[i].GenreIDs; len(ids) > 0 {
			opts.GenreRestrictionSets = append(opts.GenreRestrictionSets, ids)
		}
		if ids := scope[i].CustomListIDs; len(ids) > 0 {
			opts.CustomListRestrictionSets = append(opts.CustomListRestrictionSets, ids)
		}
	}

	if opts.Collections == nil {
		opts.Collections = normalize.LibraryCollections(lib)
	}
	allowHolds := lib == nil || lib.AllowHolds
	opts.AllowHolds = &allowHolds

	return New(opts)
}

// inheritedScope returns the lanes whose restrictions apply, leaf first.
func inheritedScope(chain []catalog.Lane) []catalog.Lane {
	scope := make([]catalog.Lane, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		scope = append(scope, chain[i])
		if !chain[i].InheritParentRestrictions {
			break
		}
	}
	return scope
}

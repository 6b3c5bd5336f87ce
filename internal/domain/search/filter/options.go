package filter

import (
	"time"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// Series restricts results to one named series or to works in any series.
type Series struct {
	name string
	any  bool
}

// SeriesNamed matches works in the series with exactly this name.
func SeriesNamed(name string) *Series { return &Series{name: name} }

// AnySeries matches works that belong to some series.
func AnySeries() *Series { return &Series{any: true} }

// Name returns the series name, empty for AnySeries.
func (s *Series) Name() string { return s.name }

// Any reports whether any series matches.
func (s *Series) Any() bool { return s.any }

// Options enumerates every restriction a Filter understands. The zero
// value matches every presentation-ready work.
type Options struct {
	// Collections restricts results to works licensed through these
	// collections. Nil is unrestricted; empty matches nothing.
	Collections normalize.IDs
	Media       []string
	Languages   []string
	Fiction     *bool
	Audiences   []string
	TargetAge   *catalog.AgeRange
	// GenreRestrictionSets requires one genre from every inner set. An
	// empty inner set matches nothing.
	GenreRestrictionSets [][]int64
	// CustomListRestrictionSets requires membership in one list from
	// every inner set. An empty inner set matches nothing.
	CustomListRestrictionSets [][]int64
	Facets                    Facets
	ScriptFields              map[string]ScriptField
	// AllowHolds defaults to true.
	AllowHolds         *bool
	UpdatedAfter       *time.Time
	Series             *Series
	Author             *catalog.Contributor
	MinScore           *float64
	MatchNothing       bool
	LicenseDataSources normalize.IDs
	Identifiers        []catalog.Identifier
	LaneBuilding       bool
	Library            *catalog.Library
	// ScriptRevision selects the stored script revision; zero uses
	// DefaultScriptRevision.
	ScriptRevision int
	// Suppressed inverts the library policy: only works the library
	// hides match.
	Suppressed bool
}

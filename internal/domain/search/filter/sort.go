package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// ScriptField is a computed per-hit field backed by a stored script.
type ScriptField = dsl.ScriptField

// DefaultScriptRevision is the stored script revision installed with
// the current index mapping.
const DefaultScriptRevision = 1

// Stored script names, before versioning.
const (
	ScriptWorkLastUpdate = "work_last_update"
)

// ScriptFieldLastUpdate is the computed field carrying a work's last
// relevant update time.
const ScriptFieldLastUpdate = "last_update"

// Sort keys with special handling.
const (
	SortLastUpdateTime      = "last_update_time"
	SortAvailabilityTime    = "licensepools.availability_time"
	SortLicensePoolsUpdated = "licensepools.last_updated"
)

// Tiebreakers follow the requested keys so that every sort is total.
var Tiebreakers = []string{"sort_author", "sort_title", "work_id"}

// ScriptName versions a stored script name.
func ScriptName(name string, revision int) string {
	return fmt.Sprintf("shelfdex.%s.v%d", name, revision)
}

func (f *Filter) direction() string {
	if f.orderAscending {
		return dsl.Asc
	}
	return dsl.Desc
}

// buildSortOrder expands the requested keys into a total order. The
// direction applies to every element, tiebreakers included.
func (f *Filter) buildSortOrder() ([]dsl.Sort, error) {
	if len(f.order) == 0 {
		return nil, nil
	}
	out := make([]dsl.Sort, 0, len(f.order)+len(Tiebreakers))
	for _, key := range f.order {
		s, err := f.orderField(key)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	for _, key := range Tiebreakers {
		if !slices.Contains(f.order, key) {
			out = append(out, dsl.FieldSort{Field: key, Order: f.direction()})
		}
	}
	return out, nil
}

func (f *Filter) orderField(key string) (dsl.Sort, error) {
	if key == SortLastUpdateTime && (len(f.collectionIDs) > 0 || len(f.customListRestrictionSets) > 0) {
		field := f.LastUpdateTimeScriptField()
		if _, ok := f.scriptFields[ScriptFieldLastUpdate]; !ok {
			f.scriptFields[ScriptFieldLastUpdate] = field
		}
		return dsl.ScriptSort{Script: field.Script, Order: f.direction()}, nil
	}
	if !strings.Contains(key, ".") {
		return dsl.FieldSort{Field: key, Order: f.direction()}, nil
	}

	var mode string
	switch key {
	case SortAvailabilityTime:
		// A work in several collections sorts by the earliest arrival.
		mode = "min"
	case SortLicensePoolsUpdated:
		mode = "max"
	default:
		return nil, fmt.Errorf("%w: cannot sort by %s", domain.ErrInvalidSort, key)
	}
	s := dsl.FieldSort{Field: key, Order: f.direction(), Mode: mode}
	if ids := f.collectionIDs; len(ids) > 0 {
		s.Nested = &dsl.NestedSort{
			Path:   PathLicensePools,
			Filter: dsl.TermsOf("licensepools.collection_id", ids.Values()),
		}
	}
	return s, nil
}

// LastUpdateTimeScriptField computes a work's last update as the latest
// of its own update time, its arrival in any in-scope collection and
// its appearance on any in-scope list.
func (f *Filter) LastUpdateTimeScriptField() ScriptField {
	return ScriptField{Script: dsl.StoredScript{
		Stored: ScriptName(ScriptWorkLastUpdate, f.scriptRevision),
		Params: map[string]any{
			"collection_ids": f.collectionIDs.Values(),
			"list_ids":       f.allListIDs(),
		},
	}}
}

// allListIDs flattens the list restriction sets into sorted unique IDs.
func (f *Filter) allListIDs() []int64 {
	ids := []int64{}
	for _, set := range f.customListRestrictionSets {
		ids = append(ids, set...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

package filter

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/araddon/dateparse"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/normalize"
)

// Option names accepted by OptionsFromMap.
var optionNames = []string{
	"allow_holds", "audiences", "author", "collections", "customlist_restriction_sets",
	"fiction", "genre_restriction_sets", "identifiers", "lane_building", "languages",
	"license_datasource", "match_nothing", "media", "min_score", "series",
	"target_age", "updated_after",
}

type authorOption struct {
	SortName    string `json:"sort_name"`
	DisplayName string `json:"display_name"`
	VIAF        string `json:"viaf"`
	LC          string `json:"lc"`
}

type rawOptions struct {
	AllowHolds                *bool                `json:"allow_holds"`
	Audiences                 stringList           `json:"audiences"`
	Author                    *authorOption        `json:"author"`
	Collections               *[]int64             `json:"collections"`
	CustomListRestrictionSets [][]int64            `json:"customlist_restriction_sets"`
	Fiction                   *bool                `json:"fiction"`
	GenreRestrictionSets      [][]int64            `json:"genre_restriction_sets"`
	Identifiers               []catalog.Identifier `json:"identifiers"`
	LaneBuilding              bool                 `json:"lane_building"`
	Languages                 stringList           `json:"languages"`
	LicenseDataSource         *int64               `json:"license_datasource"`
	MatchNothing              bool                 `json:"match_nothing"`
	Media                     stringList           `json:"media"`
	MinScore                  *float64             `json:"min_score"`
	Series                    json.RawMessage      `json:"series"`
	TargetAge                 json.RawMessage      `json:"target_age"`
	UpdatedAfter              json.RawMessage      `json:"updated_after"`
}

// stringList accepts a single string or a list of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// OptionsFromMap decodes loosely typed options, such as those parsed
// from a request body. Unknown names fail with domain.ErrUnknownOption.
func OptionsFromMap(m map[string]any) (Options, error) {
	var unknown []string
	for k := range m {
		if !slices.Contains(optionNames, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return Options{}, domain.NewUnknownOption(unknown...)
	}

	b, err := json.Marshal(m)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}
	var raw rawOptions
	if err := json.Unmarshal(b, &raw); err != nil {
		return Options{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}

	opts := Options{
		AllowHolds:                raw.AllowHolds,
		Audiences:                 raw.Audiences,
		CustomListRestrictionSets: raw.CustomListRestrictionSets,
		Fiction:                   raw.Fiction,
		GenreRestrictionSets:      raw.GenreRestrictionSets,
		Identifiers:               raw.Identifiers,
		LaneBuilding:              raw.LaneBuilding,
		Languages:                 raw.Languages,
		MatchNothing:              raw.MatchNothing,
		Media:                     raw.Media,
		MinScore:                  raw.MinScore,
	}
	if raw.Collections != nil {
		opts.Collections = normalize.IDsOf(*raw.Collections...)
	}
	if raw.LicenseDataSource != nil {
		opts.LicenseDataSources = normalize.IDsOf(*raw.LicenseDataSource)
	}
	if a := raw.Author; a != nil {
		opts.Author = catalog.ContributorFromStrings(a.SortName, a.DisplayName, a.VIAF, a.LC)
	}
	if opts.Series, err = decodeSeries(raw.Series); err != nil {
		return Options{}, err
	}
	if opts.TargetAge, err = DecodeTargetAge(raw.TargetAge); err != nil {
		return Options{}, err
	}
	if opts.UpdatedAfter, err = decodeTime(raw.UpdatedAfter); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func decodeSeries(b json.RawMessage) (*Series, error) {
	if isNull(b) {
		return nil, nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		if !flag {
			return nil, nil
		}
		return AnySeries(), nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return nil, fmt.Errorf("%w: series must be a name or true", domain.ErrInvalidFilter)
	}
	if name == "" {
		return nil, nil
	}
	return SeriesNamed(name), nil
}

// DecodeTargetAge accepts a single age, a [lower, upper] pair with
// nullable bounds, or an object with lower and upper.
func DecodeTargetAge(b json.RawMessage) (*catalog.AgeRange, error) {
	if isNull(b) {
		return nil, nil
	}
	var age int
	if err := json.Unmarshal(b, &age); err == nil {
		return catalog.Age(age), nil
	}
	var pair []*int
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: target age needs exactly two bounds", domain.ErrInvalidFilter)
		}
		return &catalog.AgeRange{Lower: pair[0], Upper: pair[1]}, nil
	}
	var r catalog.AgeRange
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: malformed target age", domain.ErrInvalidFilter)
	}
	return &r, nil
}

// decodeTime accepts seconds since the epoch or any date string
// dateparse understands.
func decodeTime(b json.RawMessage) (*time.Time, error) {
	if isNull(b) {
		return nil, nil
	}
	var seconds float64
	if err := json.Unmarshal(b, &seconds); err == nil {
		t := time.Unix(0, int64(seconds*1e9)).UTC()
		return &t, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: updated_after must be a date", domain.ErrInvalidFilter)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_after: %w", domain.ErrInvalidFilter, err)
	}
	return &t, nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || string(b) == "null"
}

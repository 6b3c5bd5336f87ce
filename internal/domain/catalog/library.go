package catalog

// Identifier is a typed external identifier such as an ISBN.
type Identifier struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"identifier" yaml:"identifier"`
}

// Collection is a licensed collection a library draws from.
type Collection struct {
	ID     int64 `json:"id" yaml:"id"`
	Active bool  `json:"active" yaml:"active"`
}

// Library holds the library-level facts that shape every search.
type Library struct {
	ID                     int64        `json:"id" yaml:"id"`
	ShortName              string       `json:"short_name" yaml:"short_name"`
	Collections            []Collection `json:"collections" yaml:"collections"`
	AllowHolds             bool         `json:"allow_holds" yaml:"allow_holds"`
	FilteredAudiences      []string     `json:"filtered_audiences,omitempty" yaml:"filtered_audiences,omitempty"`
	FilteredGenres         []string     `json:"filtered_genres,omitempty" yaml:"filtered_genres,omitempty"`
	MinimumFeaturedQuality float64      `json:"minimum_featured_quality" yaml:"minimum_featured_quality"`
}

// ActiveCollectionIDs returns the IDs of the library's active collections.
// The result is never nil.
func (l *Library) ActiveCollectionIDs() []int64 {
	ids := make([]int64, 0, len(l.Collections))
	for _, c := range l.Collections {
		if c.Active {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// HasContentFilters reports whether the library excludes audiences or genres.
func (l *Library) HasContentFilters() bool {
	return len(l.FilteredAudiences) > 0 || len(l.FilteredGenres) > 0
}

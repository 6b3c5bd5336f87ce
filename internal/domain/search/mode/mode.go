package mode

import "github.com/kailas-cloud/shelfdex/internal/domain/search/filter"

// Mode is the query language of a search.
type Mode string

// Search mode constants.
const (
	// Text scores a free-text query as competing relevance hypotheses.
	Text Mode = filter.SearchTypeDefault
	// JSON matches a structured and/or/not query exactly.
	JSON Mode = filter.SearchTypeJSON
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Text || m == JSON
}

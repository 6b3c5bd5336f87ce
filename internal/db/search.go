package db

import (
	"encoding/json"
	"time"
)

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int64
	Took    time.Duration
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	ID     string
	Score  float64
	Source map[string]any
	// Sort holds the values the hit was sorted by.
	Sort []any
	// Fields holds computed script fields, one list of values per field.
	Fields      map[string][]any
	Explanation json.RawMessage
}

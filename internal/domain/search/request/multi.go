package request

import (
	"fmt"

	"github.com/kailas-cloud/shelfdex/internal/domain"
)

// MaxMultiSearch is the maximum number of searches in one batch.
const MaxMultiSearch = 25

// Multi is a validated batch of searches run in one engine round trip.
type Multi struct {
	requests []Request
}

// NewMulti validates a batch. Every search must be valid on its own.
func NewMulti(params []Params) (Multi, error) {
	if len(params) == 0 {
		return Multi{}, fmt.Errorf("%w: at least one search is required", domain.ErrInvalidQuery)
	}
	if len(params) > MaxMultiSearch {
		return Multi{}, fmt.Errorf("%w: too many searches (max %d)", domain.ErrInvalidQuery, MaxMultiSearch)
	}
	requests := make([]Request, 0, len(params))
	for i, p := range params {
		r, err := New(p)
		if err != nil {
			return Multi{}, fmt.Errorf("search %d: %w", i, err)
		}
		requests = append(requests, r)
	}
	return Multi{requests: requests}, nil
}

// Requests returns the searches in order.
func (m *Multi) Requests() []Request { return m.requests }

// Len returns the number of searches.
func (m *Multi) Len() int { return len(m.requests) }

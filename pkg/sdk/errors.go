package shelfdex

import "github.com/kailas-cloud/shelfdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidFilter     = domain.ErrInvalidFilter
	ErrUnknownOption     = domain.ErrUnknownOption
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrInvalidPagination = domain.ErrInvalidPagination
	ErrInvalidSort       = domain.ErrInvalidSort
	ErrSearchEngine      = domain.ErrSearchEngine
	ErrNotImplemented    = domain.ErrNotImplemented
)

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFilter signals contradictory or malformed filter options.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownOption signals an option name the filter does not recognize.
	ErrUnknownOption = errors.New("unknown option")
	// ErrInvalidQuery signals a query that cannot be compiled.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidPagination signals a malformed page key or page size.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrInvalidSort signals a sort key the engine cannot order by.
	ErrInvalidSort = errors.New("invalid sort")
	// ErrSearchEngine signals a failed call to the search engine.
	ErrSearchEngine = errors.New("search engine error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// UnknownOptionError wraps ErrUnknownOption with the offending option names.
type UnknownOptionError struct {
	Names []string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnknownOption.Error(), e.Names)
}

func (e *UnknownOptionError) Unwrap() error { return ErrUnknownOption }

// NewUnknownOption creates an unknown option error.
func NewUnknownOption(names ...string) error {
	return &UnknownOptionError{Names: names}
}

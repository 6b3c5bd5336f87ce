// Package pagination narrows a search to one page of results, either by
// offset or by the sort values of the previous page's last hit.
package pagination

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
)

// Page size limits.
const (
	DefaultSize = 50
	MaxSize     = 100
)

// Pagination is the page state of one search. PageLoaded must be called
// with the hits of the page before Next is consulted.
type Pagination interface {
	Apply(s *dsl.Search)
	PageLoaded(hits []result.Hit)
	// Next returns the following page, nil when there is none.
	Next() Pagination
	// Cursor describes this page for a client.
	Cursor() result.Cursor
}

// clampSize applies the default and maximum page sizes.
func clampSize(size int) (int, error) {
	switch {
	case size < 0:
		return 0, fmt.Errorf("%w: size must not be negative", domain.ErrInvalidPagination)
	case size == 0:
		return DefaultSize, nil
	case size > MaxSize:
		return MaxSize, nil
	}
	return size, nil
}

// Offset pages by position in the result list. It may skip or repeat
// works when the index changes between pages.
type Offset struct {
	offset int
	size   int

	loaded       bool
	thisPageSize int
}

// NewOffset validates an offset page. A zero size means DefaultSize.
func NewOffset(offset, size int) (*Offset, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidPagination)
	}
	size, err := clampSize(size)
	if err != nil {
		return nil, err
	}
	return &Offset{offset: offset, size: size}, nil
}

// First returns the first page of the default size.
func First() *Offset { return &Offset{size: DefaultSize} }

// Offset returns the position of the first hit.
func (p *Offset) Offset() int { return p.offset }

// Size returns the page size.
func (p *Offset) Size() int { return p.size }

// Apply implements Pagination.
func (p *Offset) Apply(s *dsl.Search) {
	s.From = dsl.Int(p.offset)
	s.Size = dsl.Int(p.size)
}

// PageLoaded implements Pagination.
func (p *Offset) PageLoaded(hits []result.Hit) {
	p.loaded = true
	p.thisPageSize = len(hits)
}

// Next implements Pagination. Before a page has loaded the next page
// is assumed to exist; afterwards it exists only if this page was full.
func (p *Offset) Next() Pagination {
	if p.loaded && p.thisPageSize < p.size {
		return nil
	}
	return &Offset{offset: p.offset + p.size, size: p.size}
}

// Cursor implements Pagination.
func (p *Offset) Cursor() result.Cursor {
	offset := p.offset
	return result.Cursor{Offset: &offset, Size: p.size}
}

// SortKey pages by the sort values of the last hit on the previous page.
// It is stable while the index changes and needs a total sort order.
type SortKey struct {
	lastItemOnPreviousPage []any
	size                   int

	loaded           bool
	thisPageSize     int
	lastItemThisPage []any
}

// NewSortKey creates a sort key page. A nil key is the first page.
func NewSortKey(lastItemOnPreviousPage []any, size int) (*SortKey, error) {
	size, err := clampSize(size)
	if err != nil {
		return nil, err
	}
	return &SortKey{lastItemOnPreviousPage: lastItemOnPreviousPage, size: size}, nil
}

// SortKeyFromRequest decodes a key produced by SortKey.Key. An empty key
// is the first page.
func SortKeyFromRequest(key string, size int) (*SortKey, error) {
	var last []any
	if key != "" {
		if err := json.Unmarshal([]byte(key), &last); err != nil {
			return nil, fmt.Errorf("%w: invalid page key %q", domain.ErrInvalidPagination, key)
		}
	}
	return NewSortKey(last, size)
}

// Size returns the page size.
func (p *SortKey) Size() int { return p.size }

// Key encodes the previous page's last sort tuple, empty on the first page.
func (p *SortKey) Key() string {
	if len(p.lastItemOnPreviousPage) == 0 {
		return ""
	}
	b, err := json.Marshal(p.lastItemOnPreviousPage)
	if err != nil {
		return ""
	}
	return string(b)
}

// Apply implements Pagination. The offset is always zero.
func (p *SortKey) Apply(s *dsl.Search) {
	if len(p.lastItemOnPreviousPage) > 0 {
		s.SearchAfter = p.lastItemOnPreviousPage
	}
	s.From = dsl.Int(0)
	s.Size = dsl.Int(p.size)
}

// PageLoaded implements Pagination.
func (p *SortKey) PageLoaded(hits []result.Hit) {
	p.loaded = true
	p.thisPageSize = len(hits)
	p.lastItemThisPage = nil
	if len(hits) > 0 {
		last := hits[len(hits)-1]
		p.lastItemThisPage = last.Sort()
	}
}

// Next implements Pagination. Nothing is known about the next page
// until this one has loaded, and an empty page has no successor.
func (p *SortKey) Next() Pagination {
	if !p.loaded || p.thisPageSize == 0 || len(p.lastItemThisPage) == 0 {
		return nil
	}
	return &SortKey{lastItemOnPreviousPage: p.lastItemThisPage, size: p.size}
}

// Cursor implements Pagination.
func (p *SortKey) Cursor() result.Cursor {
	return result.Cursor{Key: p.Key(), Size: p.size}
}

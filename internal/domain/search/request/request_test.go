package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/facet"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/pagination"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Query: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "hello" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Mode() != mode.Text {
		t.Errorf("Mode() = %q, want default", r.Mode())
	}
	if r.Explain() {
		t.Error("Explain() = true")
	}
	p, err := r.Pagination()
	if err != nil {
		t.Fatalf("Pagination(): %v", err)
	}
	off, ok := p.(*pagination.Offset)
	if !ok {
		t.Fatalf("Pagination() = %T, want *pagination.Offset", p)
	}
	if off.Size() != pagination.DefaultSize || off.Offset() != 0 {
		t.Errorf("Pagination() = offset %d size %d", off.Offset(), off.Size())
	}
}

func TestNew_EmptyQueryBrowses(t *testing.T) {
	r, err := New(Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain, err := r.FacetChain(nil, filter.Deterministic)
	if err != nil {
		t.Fatalf("FacetChain(): %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("FacetChain() = %v, want no search facet without a query", chain)
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(Params{Query: strings.Repeat("x", MaxQueryLength+1)})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("error = %v, want ErrInvalidQuery", err)
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_QueryAtMaxLength(t *testing.T) {
	if _, err := New(Params{Query: strings.Repeat("x", MaxQueryLength)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_InvalidMode(t *testing.T) {
	_, err := New(Params{Query: "q", Mode: "hybrid"})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("error = %v, want ErrInvalidQuery", err)
	}
}

func TestNew_JSONNeedsQuery(t *testing.T) {
	if _, err := New(Params{Mode: mode.JSON}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("error = %v, want ErrInvalidQuery", err)
	}
	if _, err := New(Params{Mode: mode.JSON, Query: `{"query":{}}`}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_LaneNeedsLibrary(t *testing.T) {
	lane := int64(3)
	if _, err := New(Params{LaneID: &lane}); !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("error = %v, want ErrInvalidFilter", err)
	}
}

func TestNew_SuppressedNeedsLibrary(t *testing.T) {
	lane := int64(3)
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"library", Params{Library: "nypl", Suppressed: true}, false},
		{"no library", Params{Suppressed: true}, true},
		{"lane", Params{Library: "nypl", LaneID: &lane, Suppressed: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.params)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidFilter) {
					t.Errorf("error = %v, want ErrInvalidFilter", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !r.Suppressed() {
				t.Error("Suppressed() = false")
			}
		})
	}
}

func TestNew_FilterOptions(t *testing.T) {
	r, err := New(Params{Filter: map[string]any{"media": "Book", "fiction": true}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := r.Options()
	if len(opts.Media) != 1 || opts.Media[0] != "Book" {
		t.Errorf("Media = %v", opts.Media)
	}
	if opts.Fiction == nil || !*opts.Fiction {
		t.Errorf("Fiction = %v", opts.Fiction)
	}
}

func TestNew_UnknownFilterOption(t *testing.T) {
	_, err := New(Params{Filter: map[string]any{"colour": "blue"}})
	if !errors.Is(err, domain.ErrUnknownOption) {
		t.Fatalf("error = %v, want ErrUnknownOption", err)
	}
}

func TestNew_Paging(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantKey bool
		wantErr error
	}{
		{"offset", Params{Offset: 50, Size: 25}, false, nil},
		{"key implies key paging", Params{Key: `["a",1]`}, true, nil},
		{"explicit key paging", Params{Paging: PagingSortKey}, true, nil},
		{"bad key", Params{Key: "nope"}, false, domain.ErrInvalidPagination},
		{"key with offset paging", Params{Paging: PagingOffset, Key: `["a"]`}, false, domain.ErrInvalidPagination},
		{"offset with key paging", Params{Paging: PagingSortKey, Offset: 10}, false, domain.ErrInvalidPagination},
		{"negative offset", Params{Offset: -1}, false, domain.ErrInvalidPagination},
		{"unknown paging", Params{Paging: "cursor"}, false, domain.ErrInvalidPagination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.params)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			p, err := r.Pagination()
			if err != nil {
				t.Fatalf("Pagination(): %v", err)
			}
			if _, isKey := p.(*pagination.SortKey); isKey != tt.wantKey {
				t.Errorf("Pagination() = %T", p)
			}
		})
	}
}

func TestNew_InvalidFacets(t *testing.T) {
	tests := map[string]Facets{
		"order":        {Order: "shoe size"},
		"availability": {Availability: "sometimes"},
		"collection":   {Collection: "partial"},
		"entry point":  {EntryPoint: "Scroll"},
	}
	for name, fc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := New(Params{Query: "q", Facets: fc}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFacetChain(t *testing.T) {
	r, err := New(Params{
		Query: "dinosaurs",
		Facets: Facets{
			Order:        facet.OrderTitle,
			Availability: filter.AvailableNow,
			Collection:   filter.CollectionFeatured,
			EntryPoint:   facet.EntryPointBook,
			Featured:     true,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lib := &catalog.Library{ID: 1, MinimumFeaturedQuality: 0.65}
	chain, err := r.FacetChain(lib, filter.Seed(42))
	if err != nil {
		t.Fatalf("FacetChain(): %v", err)
	}
	if len(chain) != 6 {
		t.Fatalf("len(chain) = %d, want 6", len(chain))
	}
	featured, ok := chain[4].(facet.Featured)
	if !ok {
		t.Fatalf("chain[4] = %T, want facet.Featured", chain[4])
	}
	if featured.MinimumQuality != 0.65 {
		t.Errorf("MinimumQuality = %v", featured.MinimumQuality)
	}
	if _, ok := chain[5].(facet.Search); !ok {
		t.Errorf("chain[5] = %T, want facet.Search last", chain[5])
	}
}

func TestFacetChain_KeyPagingOrdersByWorkID(t *testing.T) {
	r, err := New(Params{Paging: PagingSortKey})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain, err := r.FacetChain(nil, filter.Deterministic)
	if err != nil {
		t.Fatalf("FacetChain(): %v", err)
	}
	if len(chain) != 1 {
		t.Fatalf("len(chain) = %d, want 1", len(chain))
	}
	o, ok := chain[0].(facet.Ordering)
	if !ok || o.Name() != facet.OrderWorkID {
		t.Errorf("chain[0] = %#v, want work_id ordering", chain[0])
	}
}

func TestNewMulti(t *testing.T) {
	m, err := NewMulti([]Params{{Query: "a"}, {Query: "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 2 || m.Requests()[1].Query() != "b" {
		t.Errorf("Requests() = %v", m.Requests())
	}

	if _, err := NewMulti(nil); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("empty batch error = %v", err)
	}
	if _, err := NewMulti(make([]Params, MaxMultiSearch+1)); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("oversized batch error = %v", err)
	}

	_, err = NewMulti([]Params{{Query: "a"}, {Mode: "bogus", Query: "b"}})
	if !errors.Is(err, domain.ErrInvalidQuery) || !strings.Contains(err.Error(), "search 1") {
		t.Errorf("error = %v, want the failing search's position", err)
	}
}

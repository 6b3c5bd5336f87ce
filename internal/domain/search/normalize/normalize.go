// Package normalize converts caller values into the canonical forms stored
// on Work documents.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
)

// Scrub lowercases s and removes whitespace: "Young Adult" becomes "youngadult".
func Scrub(s string) string {
	if s == "" {
		return ""
	}
	lowered := cases.Lower(language.Und).String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, lowered)
}

// ScrubList scrubs every value. The result is never nil.
func ScrubList(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, Scrub(v))
	}
	return out
}

// IDs is a tri-state ID restriction. A nil IDs places no restriction;
// a non-nil empty IDs matches nothing.
type IDs []int64

// Unrestricted returns the "no restriction" value.
func Unrestricted() IDs { return nil }

// None returns the "match nothing" value.
func None() IDs { return IDs{} }

// Identified is anything that carries a catalog ID.
type Identified interface {
	CatalogID() int64
}

// IDsOf collects bare IDs. Called with no arguments it returns None, not
// Unrestricted.
func IDsOf(ids ...int64) IDs {
	out := make(IDs, 0, len(ids))
	return append(out, ids...)
}

// IDsOfEntities collects the IDs of catalog entities.
func IDsOfEntities[T Identified](entities ...T) IDs {
	out := make(IDs, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.CatalogID())
	}
	return out
}

// LibraryCollections expands a library into the IDs of its active
// collections. A nil library is Unrestricted.
func LibraryCollections(lib *catalog.Library) IDs {
	if lib == nil {
		return Unrestricted()
	}
	return IDs(lib.ActiveCollectionIDs())
}

// Restricted reports whether the value restricts results at all.
func (ids IDs) Restricted() bool { return ids != nil }

// Values returns the IDs as a plain slice, never nil.
func (ids IDs) Values() []int64 {
	if ids == nil {
		return []int64{}
	}
	return []int64(ids)
}

package memory

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// order sorts matches by the sort chain, or by descending score when
// there is none. Document order breaks remaining ties.
func order(ms []match, sorts []dsl.Sort) {
	if len(sorts) == 0 {
		slices.SortStableFunc(ms, func(a, b match) int {
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
			return compareIDs(a.doc.id, b.doc.id)
		})
		return
	}

	for i := range ms {
		ms[i].sort = sortValues(ms[i], sorts)
	}
	slices.SortStableFunc(ms, func(a, b match) int {
		if c := compareTuples(a.sort, b.sort, sorts); c != 0 {
			return c
		}
		return compareIDs(a.doc.id, b.doc.id)
	})
}

// after drops every match positioned at or before the search_after key.
func after(ms []match, sorts []dsl.Sort, key []any) []match {
	i := slices.IndexFunc(ms, func(m match) bool {
		return compareTuples(m.sort, key, sorts) > 0
	})
	if i < 0 {
		return nil
	}
	return ms[i:]
}

func sortValues(m match, sorts []dsl.Sort) []any {
	out := make([]any, len(sorts))
	for i, so := range sorts {
		switch so := so.(type) {
		case dsl.ScoreSort:
			out[i] = m.score
		case dsl.FieldSort:
			out[i] = fieldSortValue(so, m.doc.source)
		case dsl.ScriptSort:
			out[i] = runScript(so.Script, m.doc.source)
		}
	}
	return out
}

// fieldSortValue picks one value of a multi-valued field: the smallest
// for ascending sorts and the largest for descending ones unless a mode
// says otherwise.
func fieldSortValue(so dsl.FieldSort, src map[string]any) any {
	var vals []any
	if so.Nested != nil {
		prefix := so.Nested.Path + "."
		for _, el := range lookup(src, so.Nested.Path) {
			obj, ok := el.(map[string]any)
			if !ok {
				continue
			}
			sc := scope{obj: obj, root: src, prefix: prefix}
			if so.Nested.Filter != nil {
				if ok, _ := eval(so.Nested.Filter, sc); !ok {
					continue
				}
			}
			vals = append(vals, sc.values(so.Field)...)
		}
	} else {
		base, _ := splitSubfield(so.Field)
		vals = lookup(src, base)
	}
	if len(vals) == 0 {
		return nil
	}

	wantMax := so.Mode == "max" || (so.Mode == "" && so.Order == dsl.Desc)
	best := vals[0]
	for _, v := range vals[1:] {
		c := compareValues(v, best)
		if (wantMax && c > 0) || (!wantMax && c < 0) {
			best = v
		}
	}
	return best
}

// compareTuples compares sort positions. Missing values sort last in
// either direction.
func compareTuples(a, b []any, sorts []dsl.Sort) int {
	for i, so := range sorts {
		var x, y any
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		var c int
		switch {
		case x == nil && y == nil:
			c = 0
		case x == nil:
			c = 1
		case y == nil:
			c = -1
		default:
			c = compareValues(x, y)
			if so.Direction() == dsl.Desc {
				c = -c
			}
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders numbers before strings.
func compareValues(a, b any) int {
	x, xok := number(a)
	y, yok := number(b)
	switch {
	case xok && yok:
		return cmp.Compare(x, y)
	case xok:
		return -1
	case yok:
		return 1
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func compareIDs(a, b string) int {
	x, xerr := strconv.ParseInt(a, 10, 64)
	y, yerr := strconv.ParseInt(b, 10, 64)
	if xerr == nil && yerr == nil {
		return cmp.Compare(x, y)
	}
	return strings.Compare(a, b)
}

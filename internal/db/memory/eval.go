package memory

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// scope is the object a query runs against: the document itself or one
// element of a nested array, whose fields are named relative to prefix.
type scope struct {
	obj    map[string]any
	root   map[string]any
	prefix string
}

func (s scope) relative(field string) string {
	if s.prefix != "" {
		return strings.TrimPrefix(field, s.prefix)
	}
	return field
}

func (s scope) values(field string) []any {
	base, _ := splitSubfield(field)
	return lookup(s.obj, s.relative(base))
}

func found(ok bool) (bool, float64) {
	if ok {
		return true, 1
	}
	return false, 0
}

func boost(b *float64) float64 {
	if b == nil {
		return 1
	}
	return *b
}

// eval reports whether q matches in s, and with what score.
func eval(q dsl.Query, s scope) (bool, float64) {
	switch q := q.(type) {
	case nil:
		return true, 1
	case dsl.MatchAll:
		return true, boost(q.Boost)
	case dsl.MatchNone:
		return false, 0
	case dsl.Term:
		return found(anyValue(s.values(q.Field), func(v any) bool { return equal(v, q.Value) }))
	case dsl.Terms:
		return found(anyValue(s.values(q.Field), func(v any) bool {
			return anyValue(q.Values, func(want any) bool { return equal(v, want) })
		}))
	case dsl.Range:
		return found(anyValue(s.values(q.Field), func(v any) bool { return inRange(v, q) }))
	case dsl.Exists:
		return found(len(s.values(q.Field)) > 0)
	case dsl.Regexp:
		return evalRegexp(q, s)
	case dsl.Match:
		return evalMatch(q, s)
	case dsl.MatchPhrase:
		return evalPhrase(q, s)
	case dsl.MultiMatch:
		return evalMultiMatch(q, s)
	case dsl.Bool:
		return evalBool(q, s)
	case dsl.DisMax:
		var matched bool
		var best float64
		for _, sub := range q.Queries {
			if ok, score := eval(sub, s); ok {
				matched = true
				best = max(best, score)
			}
		}
		return matched, best
	case dsl.Nested:
		return evalNested(q, s)
	case dsl.FunctionScore:
		return evalFunctionScore(q, s)
	}
	return false, 0
}

func evalBool(q dsl.Bool, s scope) (bool, float64) {
	var score float64
	for _, c := range q.Must {
		ok, sc := eval(c, s)
		if !ok {
			return false, 0
		}
		score += sc
	}
	for _, c := range q.Filter {
		if ok, _ := eval(c, s); !ok {
			return false, 0
		}
	}
	for _, c := range q.MustNot {
		if ok, _ := eval(c, s); ok {
			return false, 0
		}
	}

	matched := 0
	for _, c := range q.Should {
		if ok, sc := eval(c, s); ok {
			matched++
			score += sc
		}
	}
	need := q.MinimumShouldMatch
	if need == 0 && len(q.Should) > 0 && len(q.Must) == 0 && len(q.Filter) == 0 {
		need = 1
	}
	if matched < need {
		return false, 0
	}
	return true, score * boost(q.Boost)
}

// evalNested averages the score over matching elements.
func evalNested(q dsl.Nested, s scope) (bool, float64) {
	var n int
	var sum float64
	for _, el := range lookup(s.obj, s.relative(q.Path)) {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if ok, score := eval(q.Query, scope{obj: obj, root: s.root, prefix: q.Path + "."}); ok {
			n++
			sum += score
		}
	}
	if n == 0 {
		return false, 0
	}
	return true, sum / float64(n)
}

func evalRegexp(q dsl.Regexp, s scope) (bool, float64) {
	re, err := regexp.Compile("^(?:" + q.Value + ")$")
	if err != nil {
		return false, 0
	}
	return found(anyValue(s.values(q.Field), func(v any) bool {
		str, ok := v.(string)
		return ok && re.MatchString(str)
	}))
}

func evalFunctionScore(q dsl.FunctionScore, s scope) (bool, float64) {
	ok, score := eval(q.Query, s)
	if !ok {
		return false, 0
	}

	applied := false
	total := 0.0
	if q.ScoreMode != dsl.ScoreModeSum {
		total = 1
	}
	for _, fn := range q.Functions {
		v, ok := function(fn, s)
		if !ok {
			continue
		}
		applied = true
		if q.ScoreMode == dsl.ScoreModeSum {
			total += v
		} else {
			total *= v
		}
	}
	if !applied {
		total = 1
	}
	if q.BoostMode == dsl.BoostModeReplace {
		return true, total
	}
	return true, score * total
}

// function evaluates one scoring function. It reports false when the
// function does not apply to the document.
func function(fn dsl.ScoringFunction, s scope) (float64, bool) {
	switch fn := fn.(type) {
	case dsl.WeightFilter:
		ok, _ := eval(fn.Filter, scope{obj: s.root, root: s.root})
		return fn.Weight, ok
	case dsl.FieldValueFactor:
		v, ok := number(first(lookup(s.root, fn.Field)))
		if !ok {
			v = fn.Missing
		}
		if fn.Factor != 0 {
			v *= fn.Factor
		}
		switch fn.Modifier {
		case "log1p":
			v = math.Log10(1 + v)
		case "sqrt":
			v = math.Sqrt(v)
		}
		return v, true
	case dsl.RandomScore:
		weight := fn.Weight
		if weight == 0 {
			weight = 1
		}
		h := fnv.New64a()
		_, _ = fmt.Fprintf(h, "%d:%v", fn.Seed, first(lookup(s.root, fn.Field)))
		return weight * float64(h.Sum64()>>11) / (1 << 53), true
	case dsl.ScriptScore:
		return scriptScore(fn.Source, s.root)
	}
	return 0, false
}

// lookup resolves a dotted path, descending through arrays of objects.
func lookup(obj map[string]any, path string) []any {
	if v, ok := obj[path]; ok {
		return flatten(v)
	}
	head, rest, ok := strings.Cut(path, ".")
	if !ok {
		return nil
	}
	var out []any
	for _, child := range flatten(obj[head]) {
		if m, ok := child.(map[string]any); ok {
			out = append(out, lookup(m, rest)...)
		}
	}
	return out
}

func flatten(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	default:
		return []any{v}
	}
}

func first(v any) any {
	if vs, ok := v.([]any); ok {
		if vs = flatten(vs); len(vs) > 0 {
			return vs[0]
		}
		return nil
	}
	return v
}

func anyValue(vs []any, pred func(any) bool) bool {
	for _, v := range vs {
		if pred(v) {
			return true
		}
	}
	return false
}

// anyList widens the typed slices query builders put in script params.
func anyList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []int64:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// equal compares a stored value with a query value. Keyword fields use a
// lowercase normalizer, so strings compare without case.
func equal(stored, want any) bool {
	if x, ok := number(stored); ok {
		if y, ok := number(want); ok {
			return x == y
		}
		if s, ok := want.(string); ok {
			y, err := strconv.ParseFloat(s, 64)
			return err == nil && x == y
		}
		return false
	}
	switch x := stored.(type) {
	case bool:
		y, ok := want.(bool)
		return ok && x == y
	case string:
		y, ok := want.(string)
		return ok && strings.EqualFold(x, y)
	}
	return false
}

func inRange(v any, q dsl.Range) bool {
	check := func(bound any, ok func(c int) bool) bool {
		if bound == nil {
			return true
		}
		c, comparable := compareBound(v, bound)
		return comparable && ok(c)
	}
	return check(q.GT, func(c int) bool { return c > 0 }) &&
		check(q.GTE, func(c int) bool { return c >= 0 }) &&
		check(q.LT, func(c int) bool { return c < 0 }) &&
		check(q.LTE, func(c int) bool { return c <= 0 })
}

func compareBound(v, bound any) (int, bool) {
	if x, ok := number(v); ok {
		y, ok := number(bound)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	x, xok := v.(string)
	y, yok := bound.(string)
	if !xok || !yok {
		return 0, false
	}
	return strings.Compare(x, y), true
}

package memory

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/filter"
)

// storedScript is the Go rendition of a script installed on the cluster.
type storedScript func(src, params map[string]any) any

var storedScripts = map[string]storedScript{
	filter.ScriptWorkLastUpdate: workLastUpdate,
}

// scriptName strips the namespace and revision from a stored script
// name. Every revision runs the same code here.
func scriptName(stored string) (string, bool) {
	name, ok := strings.CutPrefix(stored, "shelfdex.")
	if !ok {
		return "", false
	}
	i := strings.LastIndex(name, ".v")
	if i < 0 {
		return "", false
	}
	if _, err := strconv.Atoi(name[i+2:]); err != nil {
		return "", false
	}
	return name[:i], true
}

func checkScripts(s *dsl.Search) error {
	check := func(sc dsl.StoredScript) error {
		if name, ok := scriptName(sc.Stored); ok {
			if _, ok := storedScripts[name]; ok {
				return nil
			}
		}
		return unsupported("unknown stored script %q", sc.Stored)
	}
	for _, so := range s.Sort {
		if ss, ok := so.(dsl.ScriptSort); ok {
			if err := check(ss.Script); err != nil {
				return err
			}
		}
	}
	for _, f := range s.ScriptFields {
		if err := check(f.Script); err != nil {
			return err
		}
	}
	return nil
}

func runScript(sc dsl.StoredScript, src map[string]any) any {
	name, _ := scriptName(sc.Stored)
	fn, ok := storedScripts[name]
	if !ok {
		return nil
	}
	return fn(src, sc.Params)
}

// workLastUpdate is the latest of the work's own update time, its
// arrival in any of the given collections and its first appearance on
// any of the given lists.
func workLastUpdate(src, params map[string]any) any {
	champion, _ := number(first(src["last_update_time"]))
	collections := anyList(params["collection_ids"])
	lists := anyList(params["list_ids"])

	latest := func(path, idField, timeField string, ids []any) {
		for _, el := range lookup(src, path) {
			obj, ok := el.(map[string]any)
			if !ok {
				continue
			}
			id := first(obj[idField])
			if !anyValue(ids, func(want any) bool { return equal(id, want) }) {
				continue
			}
			if t, ok := number(first(obj[timeField])); ok && t > champion {
				champion = t
			}
		}
	}
	latest(filter.PathLicensePools, "collection_id", "availability_time", collections)
	latest(filter.PathCustomLists, "list_id", "first_appearance", lists)
	return champion
}

var featurableScript = regexp.MustCompile(
	`^Math\.pow\(Math\.min\(([0-9.eE+-]+), doc\['(\w+)'\]\.size\(\) != 0 \? doc\['\w+'\]\.value : ([0-9.eE+-]+)\), ([0-9.eE+-]+)\) \* ([0-9.eE+-]+)$`)

// scriptScore runs the inline scoring scripts the query builder emits.
// Other scripts do not apply.
func scriptScore(source string, src map[string]any) (float64, bool) {
	m := featurableScript.FindStringSubmatch(source)
	if m == nil {
		return 0, false
	}
	var nums [4]float64
	for i, s := range []string{m[1], m[3], m[4], m[5]} {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		nums[i] = f
	}
	cutoff, missing, exponent, multiplier := nums[0], nums[1], nums[2], nums[3]

	quality, ok := number(first(src[m[2]]))
	if !ok {
		quality = missing
	}
	return math.Pow(math.Min(cutoff, quality), exponent) * multiplier, true
}

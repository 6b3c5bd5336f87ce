package filter

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
)

// DefaultLanePriorityLevel is assumed for works without a lane priority.
const DefaultLanePriorityLevel = 5

const (
	featurableDefaultQuality = 0.001
	featurableExponent       = 2
	featurableScript         = "Math.pow(Math.min(%.5f, doc['quality'].size() != 0 ? doc['quality'].value : %v), %.5f) * 5"
)

// RandomSeed seeds the random component of featurability scoring. The
// zero value seeds from the clock.
type RandomSeed struct {
	value int64
	off   bool
}

// Seed returns a fixed seed.
func Seed(v int64) RandomSeed { return RandomSeed{value: v} }

// Deterministic turns the random component off.
var Deterministic = RandomSeed{off: true}

// FeaturabilityScoringFunctions prefer high quality, currently available
// works and works featured on the lists being browsed, with a small
// random component so the same titles are not always on top.
func (f *Filter) FeaturabilityScoringFunctions(seed RandomSeed) []dsl.ScoringFunction {
	cutoff := f.minimumFeaturedQuality * f.minimumFeaturedQuality
	fns := []dsl.ScoringFunction{
		dsl.ScriptScore{Source: fmt.Sprintf(featurableScript, cutoff, featurableDefaultQuality, float64(featurableExponent))},
		dsl.WeightFilter{
			Filter: dsl.Nested{Path: PathLicensePools, Query: dsl.Term{Field: "licensepools.available", Value: true}},
			Weight: 5,
		},
		dsl.FieldValueFactor{
			Field:    "lane_priority_level",
			Factor:   1,
			Modifier: "none",
			Missing:  DefaultLanePriorityLevel,
		},
	}

	if !seed.off {
		value := seed.value
		if value == 0 {
			value = time.Now().Unix()
		}
		fns = append(fns, dsl.RandomScore{Seed: value, Field: "work_id", Weight: 1.1})
	}

	if len(f.customListRestrictionSets) > 0 {
		featuredOnList := dsl.Bool{Must: []dsl.Query{
			dsl.Term{Field: "customlists.featured", Value: true},
			dsl.TermsOf("customlists.list_id", f.allListIDs()),
		}}
		fns = append(fns, dsl.WeightFilter{
			Filter: dsl.Nested{Path: PathCustomLists, Query: featuredOnList},
			Weight: 11,
		})
	}
	return fns
}

package catalog

// Audience tiers as they appear on Work documents before scrubbing.
const (
	AudienceAdult      = "Adult"
	AudienceAdultsOnly = "Adults Only"
	AudienceYoungAdult = "Young Adult"
	AudienceChildren   = "Children"
	AudienceAllAges    = "All Ages"
	AudienceResearch   = "Research"
)

// AllAgesAgeCutoff is the youngest target age upper bound for which
// All Ages titles are still shown alongside children's titles.
const AllAgesAgeCutoff = 8

// AgeRange is a closed target age interval. A nil bound is unbounded.
type AgeRange struct {
	Lower *int `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper *int `json:"upper,omitempty" yaml:"upper,omitempty"`
}

// Ages creates a closed age range.
func Ages(lower, upper int) *AgeRange {
	return &AgeRange{Lower: &lower, Upper: &upper}
}

// Age creates the single-year range [n, n].
func Age(n int) *AgeRange {
	return Ages(n, n)
}

// AgesFrom creates a range bounded only from below.
func AgesFrom(lower int) *AgeRange {
	return &AgeRange{Lower: &lower}
}

// AgesUpTo creates a range bounded only from above.
func AgesUpTo(upper int) *AgeRange {
	return &AgeRange{Upper: &upper}
}

// Empty reports whether neither bound is set.
func (r *AgeRange) Empty() bool {
	return r == nil || (r.Lower == nil && r.Upper == nil)
}

// Bounded reports whether both bounds are set.
func (r *AgeRange) Bounded() bool {
	return r != nil && r.Lower != nil && r.Upper != nil
}

// Valid reports whether the bounds are ordered.
func (r *AgeRange) Valid() bool {
	if !r.Bounded() {
		return true
	}
	return *r.Lower <= *r.Upper
}

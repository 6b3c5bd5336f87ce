package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shelfdex/internal/domain/catalog"
)

var (
	youngAdultIndicators = mustKeywords(
		"young adult", "ya", "12-Up", "teenage .*fiction", "teens .*fiction", "teen books",
	)
	juvenileIndicators = mustKeywords("for children", "children's", "juvenile")
)

// Children's books rarely deal with romance.
var juvenileTermsImplyingYoungAdult = []string{"love & romance", "romance", "romantic"}

// Phrases where "children" or "juvenile" is the subject, not the reader.
var juvenileBlacklist = []string{
	"military participation",
	"services",
	"children's accidents",
	"children's voices",
	"juvenile delinquency",
	"children's television workshop",
	"missing children",
}

// MatchAudience finds the audience a query names and the words that named it.
func MatchAudience(q string) (string, string, bool) {
	var audience string
	switch {
	case youngAdultIndicators.MatchString(q):
		audience = catalog.AudienceYoungAdult
	case juvenileIndicators.MatchString(q):
		audience = catalog.AudienceChildren
	default:
		return "", "", false
	}

	lower := strings.ToLower(q)
	if audience == catalog.AudienceChildren {
		for _, t := range juvenileTermsImplyingYoungAdult {
			if strings.Contains(lower, t) {
				audience = catalog.AudienceYoungAdult
			}
		}
	}
	for _, t := range juvenileBlacklist {
		if strings.Contains(lower, t) {
			return "", "", false
		}
	}

	for _, re := range []*regexp.Regexp{juvenileIndicators, youngAdultIndicators} {
		if m := re.FindString(q); m != "" {
			return audience, m, true
		}
	}
	return audience, "", true
}

// Fiction values as indexed.
const (
	FictionValue    = "fiction"
	NonfictionValue = "nonfiction"
)

var (
	nonfictionWord = regexp.MustCompile(`(?i)\bnonfiction\b`)
	fictionWord    = regexp.MustCompile(`(?i)\bfiction\b`)
)

// MatchFiction reports "fiction" or "nonfiction" when the query says so.
func MatchFiction(q string) (string, bool) {
	switch {
	case nonfictionWord.MatchString(q):
		return NonfictionValue, true
	case fictionWord.MatchString(q):
		return FictionValue, true
	}
	return "", false
}

// A grade maps to the age of a typical student in it.
const gradeAgeOffset = 5

var (
	gradeRange   = regexp.MustCompile(`(?i)\bgrades? (k|\d{1,2}) ?(?:-|to) ?(k|\d{1,2})\b`)
	gradeSingle  = regexp.MustCompile(`(?i)\b(?:grade|gr\.?) (k|\d{1,2})\b`)
	gradeOrdinal = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th) grade\b`)
	gradeNamed   = regexp.MustCompile(`(?i)\b(kindergarten|preschool|pre-k)\b`)

	ageRange  = regexp.MustCompile(`(?i)\bages? (\d{1,2}) ?(?:-|to) ?(\d{1,2})\b`)
	ageAndUp  = regexp.MustCompile(`(?i)\bages? (\d{1,2}) and (?:up|older)\b`)
	ageSingle = regexp.MustCompile(`(?i)\bages? (\d{1,2})\b`)
)

func gradeToAge(grade string) (int, bool) {
	switch strings.ToLower(grade) {
	case "k", "kindergarten":
		return gradeAgeOffset, true
	case "preschool", "pre-k":
		return gradeAgeOffset - 1, true
	}
	n, err := strconv.Atoi(grade)
	if err != nil || n > 12 {
		return 0, false
	}
	return n + gradeAgeOffset, true
}

// MatchGrade finds a grade level phrase and converts it to a target age.
func MatchGrade(q string) (*catalog.AgeRange, string, bool) {
	if m := gradeRange.FindStringSubmatch(q); m != nil {
		lo, okLo := gradeToAge(m[1])
		hi, okHi := gradeToAge(m[2])
		if okLo && okHi {
			return ordered(lo, hi), m[0], true
		}
	}
	for _, re := range []*regexp.Regexp{gradeSingle, gradeOrdinal, gradeNamed} {
		if m := re.FindStringSubmatch(q); m != nil {
			if age, ok := gradeToAge(m[1]); ok {
				return catalog.Age(age), m[0], true
			}
		}
	}
	return nil, "", false
}

// MatchAge finds an explicit age phrase.
func MatchAge(q string) (*catalog.AgeRange, string, bool) {
	if m := ageRange.FindStringSubmatch(q); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		return ordered(lo, hi), m[0], true
	}
	if m := ageAndUp.FindStringSubmatch(q); m != nil {
		lo, _ := strconv.Atoi(m[1])
		return catalog.Ages(lo, AndUp(lo)), m[0], true
	}
	if m := ageSingle.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		return catalog.Age(n), m[0], true
	}
	return nil, "", false
}

// AndUp estimates the upper bound of an open "N and up" age phrase.
func AndUp(young int) int {
	switch {
	case young >= 18:
		return young
	case young >= 12:
		return 17
	case young >= 8:
		return young + 4
	default:
		return young + 2
	}
}

func ordered(a, b int) *catalog.AgeRange {
	if a > b {
		a, b = b, a
	}
	return catalog.Ages(a, b)
}

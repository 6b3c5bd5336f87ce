package catalog

import "strings"

var nameSuffixes = map[string]bool{
	"jr": true, "jr.": true, "sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true,
	"phd": true, "ph.d.": true, "md": true, "m.d.": true,
}

var surnameParticles = map[string]bool{
	"de": true, "del": true, "der": true, "di": true, "du": true,
	"la": true, "le": true, "van": true, "von": true,
}

// DisplayNameToSortName guesses the catalog sort form of a personal name:
// "Octavia E. Butler" becomes "Butler, Octavia E.". Names that already
// contain a comma, and single words, come back unchanged.
func DisplayNameToSortName(display string) string {
	display = strings.TrimSpace(display)
	if display == "" || strings.Contains(display, ",") {
		return display
	}

	parts := strings.Fields(display)
	var suffix []string
	for len(parts) > 1 && nameSuffixes[strings.ToLower(parts[len(parts)-1])] {
		suffix = append([]string{parts[len(parts)-1]}, suffix...)
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return display
	}

	last, given := parts[len(parts)-1], parts[:len(parts)-1]
	for len(given) > 1 && surnameParticles[strings.ToLower(given[len(given)-1])] {
		last = given[len(given)-1] + " " + last
		given = given[:len(given)-1]
	}

	sortName := last + ", " + strings.Join(given, " ")
	if len(suffix) > 0 {
		sortName += " " + strings.Join(suffix, " ")
	}
	return sortName
}

package parser

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed genres.yaml
var defaultGenres []byte

// Genre is a node of the genre tree.
type Genre struct {
	Name    string `yaml:"name"`
	Fiction bool   `yaml:"fiction"`
	Parent  string `yaml:"parent,omitempty"`
}

type vocabularyFile struct {
	Genres []Genre `yaml:"genres"`
	Tiers  []struct {
		Name     string `yaml:"name"`
		Keywords []struct {
			Genre string   `yaml:"genre"`
			Match []string `yaml:"match"`
		} `yaml:"keywords"`
	} `yaml:"tiers"`
}

type genrePattern struct {
	genre string
	re    *regexp.Regexp
}

type tier struct {
	name     string
	patterns []genrePattern
}

// Vocabulary maps query words to genres. Tiers are tried most specific
// first; the first tier with any hit decides.
type Vocabulary struct {
	genres map[string]Genre
	tiers  []tier
}

// LoadVocabulary parses a YAML genre vocabulary.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	var f vocabularyFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}

	v := &Vocabulary{genres: make(map[string]Genre, len(f.Genres))}
	for _, g := range f.Genres {
		if _, dup := v.genres[g.Name]; dup {
			return nil, fmt.Errorf("duplicate genre %q", g.Name)
		}
		v.genres[g.Name] = g
	}
	for _, g := range f.Genres {
		if g.Parent != "" {
			if _, ok := v.genres[g.Parent]; !ok {
				return nil, fmt.Errorf("genre %q: unknown parent %q", g.Name, g.Parent)
			}
		}
	}

	for _, t := range f.Tiers {
		compiled := tier{name: t.Name}
		for _, kw := range t.Keywords {
			if _, ok := v.genres[kw.Genre]; !ok {
				return nil, fmt.Errorf("tier %s: unknown genre %q", t.Name, kw.Genre)
			}
			if len(kw.Match) == 0 {
				continue
			}
			re, err := keywordPattern(kw.Match...)
			if err != nil {
				return nil, fmt.Errorf("tier %s: genre %q: %w", t.Name, kw.Genre, err)
			}
			compiled.patterns = append(compiled.patterns, genrePattern{genre: kw.Genre, re: re})
		}
		v.tiers = append(v.tiers, compiled)
	}
	return v, nil
}

var defaultVocabulary = sync.OnceValues(func() (*Vocabulary, error) {
	return LoadVocabulary(bytes.NewReader(defaultGenres))
})

// DefaultVocabulary returns the built-in genre vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := defaultVocabulary()
	if err != nil {
		panic(fmt.Sprintf("built-in genre vocabulary: %v", err))
	}
	return v
}

// Genre looks up a genre by name.
func (v *Vocabulary) Genre(name string) (Genre, bool) {
	g, ok := v.genres[name]
	return g, ok
}

// HasSubgenre reports whether sub sits anywhere below parent.
func (v *Vocabulary) HasSubgenre(parent, sub string) bool {
	for g, ok := v.genres[sub]; ok && g.Parent != ""; g, ok = v.genres[g.Parent] {
		if g.Parent == parent {
			return true
		}
	}
	return false
}

// MatchGenre finds the genre a query mentions and the text that named it.
// Within the deciding tier the genre with the most hits wins; a subgenre
// beats its parent on a tie.
func (v *Vocabulary) MatchGenre(q string) (Genre, string, bool) {
	for _, t := range v.tiers {
		var (
			best      string
			bestHits  int
			bestMatch string
		)
		for _, p := range t.patterns {
			hits := p.re.FindAllString(q, -1)
			if len(hits) == 0 {
				continue
			}
			switch {
			case best == "",
				len(hits) > bestHits,
				len(hits) == bestHits && v.HasSubgenre(best, p.genre):
				best, bestHits, bestMatch = p.genre, len(hits), hits[0]
			}
		}
		if best != "" {
			return v.genres[best], bestMatch, true
		}
	}
	return Genre{}, "", false
}

// keywordPattern matches any keyword bounded by word breaks.
func keywordPattern(keywords ...string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)\b(` + strings.Join(keywords, "|") + `)\b`)
}

func mustKeywords(keywords ...string) *regexp.Regexp {
	re, err := keywordPattern(keywords...)
	if err != nil {
		panic(err)
	}
	return re
}

package query

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

//go:embed words.txt
var defaultWords []byte

// foldWord case-folds a word. Casers keep state, so each call gets its own.
func foldWord(w string) string {
	return cases.Fold().String(w)
}

// Dictionary answers whether a word is spelled correctly.
type Dictionary struct {
	words map[string]struct{}
}

// LoadDictionary reads one word per line. Blank lines and lines starting
// with # are skipped.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{words: make(map[string]struct{})}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		d.words[foldWord(w)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return d, nil
}

// LoadDictionaryFile reads a word list from disk and merges the built-in
// words into it.
func LoadDictionaryFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d, err := LoadDictionary(f)
	if err != nil {
		return nil, err
	}
	for w := range DefaultDictionary().words {
		d.words[w] = struct{}{}
	}
	return d, nil
}

// NewDictionary builds a dictionary from literal words.
func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		d.words[foldWord(w)] = struct{}{}
	}
	return d
}

var defaultDictionary = sync.OnceValue(func() *Dictionary {
	d, err := LoadDictionary(bytes.NewReader(defaultWords))
	if err != nil {
		panic(fmt.Sprintf("built-in dictionary: %v", err))
	}
	return d
})

// DefaultDictionary returns the built-in English word list.
func DefaultDictionary() *Dictionary {
	return defaultDictionary()
}

// Len returns the number of words.
func (d *Dictionary) Len() int { return len(d.words) }

// Known reports whether the word is in the dictionary. Surrounding
// punctuation is ignored.
func (d *Dictionary) Known(word string) bool {
	w := foldWord(strings.Trim(word, `.,;:!?"'()[]{}`))
	if w == "" {
		return true
	}
	_, ok := d.words[w]
	return ok
}

// Unknown returns the words that fail the dictionary.
func (d *Dictionary) Unknown(words []string) []string {
	var out []string
	for _, w := range words {
		if !d.Known(w) {
			out = append(out, w)
		}
	}
	return out
}

// English stopwords.
var stopwords = toSet(
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what", "which",
	"who", "whom", "this", "that", "that'll", "these", "those", "am", "is", "are",
	"was", "were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about", "against",
	"between", "into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "s", "t",
	"can", "will", "just", "don", "don't", "should", "should've", "now", "d", "ll",
	"m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't",
	"wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn", "wouldn't",
)

// IsStopword reports whether w is an English stopword. Matching is exact,
// so capitalized words do not count.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

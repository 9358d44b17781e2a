// Package keywords turns free text into normalized, stopword-filtered tokens
// used for relevance matching.
package keywords

import (
	"strings"
	"unicode"
)

// MinLength is the shortest token (in bytes) kept by Extract.
const MinLength = 3

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "must", "shall", "can", "need", "dare",
		"to", "of", "in", "for", "on", "with", "at", "by", "from", "as",
		"into", "through", "during", "before", "after", "above", "below",
		"between", "under", "again", "further", "then", "once", "and", "but",
		"or", "nor", "so", "yet", "both", "either", "neither", "not", "only",
		"own", "same", "than", "too", "very", "just", "also", "now", "here",
		"there", "when", "where", "why", "how", "all", "each", "every", "any",
		"few", "more", "most", "other", "some", "such", "no", "none", "this",
		"that", "these", "those", "i", "you", "he", "she", "it", "we", "they",
		"what", "which", "who", "whom", "am", "about", "up",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether w (lowercase) is in the stopword list.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Extract lowercases text, splits it on every rune that is not alphanumeric,
// and drops short tokens and stopwords. Combining vowel signs
// (Other_Alphabetic) count as word runes. Token order is preserved
// and duplicates are kept.
func Extract(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < MinLength || IsStopword(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.In(r, unicode.L, unicode.N, unicode.Other_Alphabetic)
}

// Set returns the distinct tokens of ks.
func Set(ks []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ks))
	for _, k := range ks {
		set[k] = struct{}{}
	}
	return set
}

// SharedCount returns the number of distinct tokens present in both a and b.
func SharedCount(a, b []string) int {
	return SharedWith(Set(a), b)
}

// SharedWith counts the distinct tokens of b that occur in set.
// Callers comparing one text against many can build set once.
func SharedWith(set map[string]struct{}, b []string) int {
	seen := make(map[string]struct{}, len(b))
	n := 0
	for _, k := range b {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			n++
		}
	}
	return n
}

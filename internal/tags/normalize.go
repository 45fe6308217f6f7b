package tags

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by from as is was are were
		been be have has had do does did will would could should may might must can this that these
		those i you he she it we they what which who whom whose where when why how all each every both
		few more most other some such no nor not only own same so than too very s t just don now`) {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether w is in the fixed stop-word set.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	whitespace = regexp.MustCompile(`\s+`)
	numeric    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	alphabetic = regexp.MustCompile(`\p{L}+`)
	measure    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(\p{L}+)`)
)

// phrase lowercases s, trims it and joins inner whitespace with hyphens.
func phrase(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// units are the two-letter measures kept despite the length floor.
var units = map[string]struct{}{
	"cm": {}, "mm": {}, "kg": {}, "gm": {}, "mg": {}, "ml": {}, "cl": {},
	"kw": {}, "hp": {}, "ft": {}, "lb": {}, "oz": {}, "qt": {},
}

// Normalize returns the canonical form of tag, or "" when the tag is dropped.
// Tokens of two characters survive only as numbers or known units ("30", "cm").
func Normalize(tag string) string {
	t := phrase(tag)
	if IsStopWord(t) {
		return ""
	}
	switch n := utf8.RuneCountInString(t); {
	case n > 2:
		return t
	case n == 2 && (isDigits(t) || isUnit(t)):
		return t
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isUnit(s string) bool {
	_, ok := units[s]
	return ok
}

// words splits text on non-word characters.
func words(text string) []string {
	return nonWord.Split(strings.ToLower(text), -1)
}

// decompose breaks a value such as "30cm" or "2.5 L" into its full token,
// numeric runs, alphabetic runs and the collapsed number+unit forms.
func decompose(value string) []string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return nil
	}
	out := []string{phrase(v)}
	out = append(out, numeric.FindAllString(v, -1)...)
	for _, a := range alphabetic.FindAllString(v, -1) {
		if utf8.RuneCountInString(a) > 1 {
			out = append(out, a)
		}
	}
	for _, m := range measure.FindAllStringSubmatch(v, -1) {
		out = append(out, m[1]+m[2])
	}
	return out
}

package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, strips diacritics and collapses whitespace so that
// "Acme  Café" and "acme cafe" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.Join(strings.Fields(strings.ToLower(result)), " ")
}

// Keywords matches normalized text against a fixed set of normalized
// entries, either exactly (company ignore list) or as substrings (title
// exclusions).
type Keywords struct {
	entries []string
	exact   map[string]bool
}

func NewKeywords(words []string) *Keywords {
	k := &Keywords{exact: make(map[string]bool, len(words))}
	for _, w := range words {
		n := Normalize(w)
		if n == "" {
			continue
		}
		k.entries = append(k.entries, n)
		k.exact[n] = true
	}
	return k
}

// Is reports whether s equals one of the entries.
func (k *Keywords) Is(s string) bool {
	return k.exact[Normalize(s)]
}

// Contains returns the first entry found inside s, if any.
func (k *Keywords) Contains(s string) (string, bool) {
	text := Normalize(s)
	for _, e := range k.entries {
		if strings.Contains(text, e) {
			return e, true
		}
	}
	return "", false
}

package utils

import (
	"strings"
	"unicode"
)

// Humanize turns an identifier into a label: words are split on case changes
// and underscores, the first word is capitalised and the rest lower-cased.
// "FirstName" becomes "First name", "RegistryPageID" becomes "Registry page id".
func Humanize(name string) string {
	words := splitWords(name)
	for i, w := range words {
		w = strings.ToLower(w)
		if i == 0 {
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			w = string(r)
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}

func splitWords(name string) []string {
	var words []string
	runes := []rune(name)
	start := 0
	flush := func(end int) {
		if end > start {
			words = append(words, string(runes[start:end]))
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '_' || r == '.' || r == ' ' {
			flush(i)
			start = i + 1
			continue
		}
		if i == start || !unicode.IsUpper(r) {
			continue
		}
		prev := runes[i-1]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		// "FirstName" splits before N, "PageID" before I, "IDNumber" before N
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
			flush(i)
		}
	}
	flush(len(runes))
	return words
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords expands curated base phrases into the literal search
// variants sent to each source.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// Expand returns every separator and case variant of the base phrases.
// A phrase containing a space also yields its hyphenated form, and a phrase
// containing a hyphen also yields its spaced form. Each of those forms is
// then emitted in lower, upper, and title case. Duplicates are collapsed
// and the result is sorted so logs are reproducible.
func Expand(base []string) []string {
	set := make(map[string]struct{})
	for _, phrase := range base {
		for _, form := range separatorForms(phrase) {
			set[strings.ToLower(form)] = struct{}{}
			set[strings.ToUpper(form)] = struct{}{}
			set[titleCase(form)] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

func separatorForms(phrase string) []string {
	forms := []string{phrase}
	if strings.Contains(phrase, " ") {
		forms = append(forms, strings.ReplaceAll(phrase, " ", "-"))
	}
	if strings.Contains(phrase, "-") {
		forms = append(forms, strings.ReplaceAll(phrase, "-", " "))
	}
	return forms
}

// titleCase upper-cases each letter that follows a non-letter and
// lower-cases the rest ("multi-PARTY dialogue" becomes "Multi-Party Dialogue").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrMalformedResponse is returned when the model's answer lacks the
// summary/verdict delimiter.
var ErrMalformedResponse = errors.New("analyze: malformed model response")

// DefaultFieldLimit is the knowledge base's per-field character capacity.
const DefaultFieldLimit = 2000

// truncationSlack is how far below the limit truncated text is cut, leaving
// room for the ellipsis.
const truncationSlack = 10

var sectionOrder = types.Sections

// ParseResponse splits a model answer into the five summary sections and
// the relevance verdict. Only a missing delimiter is an error; a section
// whose tag is absent is set to types.NotAvailable. Sections longer than
// fieldLimit characters are truncated (see Truncate).
func ParseResponse(text string, fieldLimit int) (*types.Analysis, error) {
	summary, verdict, ok := strings.Cut(strings.TrimSpace(text), Delimiter)
	if !ok {
		return nil, fmt.Errorf("%w: no %q delimiter", ErrMalformedResponse, Delimiter)
	}

	sections := extractSections(strings.TrimSpace(summary))
	for s, content := range sections {
		sections[s] = Truncate(content, fieldLimit)
	}

	return &types.Analysis{
		Relevance: verdictRelevance(verdict),
		Sections:  sections,
	}, nil
}

// extractSections is an ordered-tag tokenizer. It locates the first
// "[TAG]" marker of each section (case-insensitively) and takes the text
// from the end of that marker to the start of the next located marker, or
// to the end of the summary.
func extractSections(summary string) map[types.Section]string {
	type marker struct {
		section    types.Section
		start, end int
	}

	var found []marker
	for _, s := range sectionOrder {
		tag := "[" + string(s) + "]"
		if i := indexFold(summary, tag); i >= 0 {
			found = append(found, marker{section: s, start: i, end: i + len(tag)})
		}
	}

	out := make(map[types.Section]string, len(sectionOrder))
	for _, s := range sectionOrder {
		out[s] = types.NotAvailable
	}

	for _, m := range found {
		stop := len(summary)
		for _, other := range found {
			if other.start >= m.end && other.start < stop {
				stop = other.start
			}
		}
		out[m.section] = strings.TrimSpace(summary[m.end:stop])
	}
	return out
}

// indexFold returns the byte index of the first case-insensitive match of
// the ASCII marker in s, or -1.
func indexFold(s, marker string) int {
	n := len(marker)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], marker) {
			return i
		}
	}
	return -1
}

// verdictRelevance maps the verdict block to Related when it contains
// "yes" in any case.
func verdictRelevance(verdict string) types.Relevance {
	if strings.Contains(strings.ToLower(verdict), "yes") {
		return types.RelevanceRelated
	}
	return types.RelevanceUnrelated
}

// Truncate returns s unchanged when it has at most limit characters.
// Longer text is cut to its first limit-10 characters followed by "..."
// (1990 plus the ellipsis for the default limit of 2000). A non-positive
// limit uses DefaultFieldLimit.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		limit = DefaultFieldLimit
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	keep := limit - truncationSlack
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + "..."
}

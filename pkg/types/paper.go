// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Source names used in logs, metrics, and run reports.
const (
	SourceArxiv           = "arxiv"
	SourceSemanticScholar = "semantic_scholar"
	SourceOpenAlex        = "openalex"
)

// Paper is one discovered paper as it flows through the digest pipeline.
// A collector creates it, the analyzer attaches an Analysis, and the
// knowledge base consumes it once.
type Paper struct {
	// Title is the whitespace-normalized paper title.
	Title string `json:"title" yaml:"title"`

	// CanonicalLink is the source page URL (e.g. "https://arxiv.org/abs/2401.00001v1").
	CanonicalLink string `json:"canonical_link" yaml:"canonical_link"`

	// DocumentLink is a URL from which the full text (usually a PDF) can be fetched.
	DocumentLink string `json:"document_link" yaml:"document_link"`

	// PublishedAt is the publication or update date at UTC midnight.
	// Time of day carries no meaning.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// Abstract is the paper abstract, or "N/A" when the source has none.
	Abstract string `json:"abstract" yaml:"abstract"`

	// PrimaryAuthor is the first listed author, or the source name when
	// the source lists none.
	PrimaryAuthor string `json:"primary_author" yaml:"primary_author"`

	// Categories holds the subject labels in the source's own vocabulary.
	Categories []string `json:"categories" yaml:"categories"`

	// SourceID is the identifier assigned by the source, unique within it.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Source names the collector that produced the record ("arxiv", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// Analysis is set once the analyzer has accepted a well-formed model response.
	Analysis *Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Key returns the title key used for cross-source dedup and for matching
// against titles already stored in the knowledge base.
func (p Paper) Key() string {
	return NormalizeTitle(p.Title)
}

// CollapseSpace trims s and replaces each run of whitespace with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTitle case-folds a title and collapses its whitespace.
func NormalizeTitle(title string) string {
	return strings.ToLower(CollapseSpace(title))
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

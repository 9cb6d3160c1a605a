// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language)
// format. Field names follow the CSL-YAML schema so the output is
// consumable by Pandoc and reference managers.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
	Note     string    `yaml:"note,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// WriteBibliography writes the recorded papers as a CSL-YAML list to path.
func WriteBibliography(path string, papers []types.Paper) error {
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(p)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bibliography directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bibliography %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding bibliography: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding bibliography: %w", err)
	}
	return f.Close()
}

func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:       p.Source + ":" + p.SourceID,
		Type:     "article",
		Title:    p.Title,
		Abstract: p.Abstract,
		URL:      p.CanonicalLink,
	}
	if item.Abstract == types.NotAvailable {
		item.Abstract = ""
	}

	if name := parseAuthorName(p.PrimaryAuthor); name != (CSLName{}) {
		item.Author = []CSLName{name}
	}

	if !p.PublishedAt.IsZero() {
		d := p.PublishedAt.UTC()
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	}

	if doi, ok := strings.CutPrefix(p.CanonicalLink, "https://doi.org/"); ok {
		item.DOI = doi
	}
	if p.Analysis != nil {
		item.Note = string(p.Analysis.Relevance)
	}
	return item
}

// parseAuthorName splits a full name into CSL family/given parts on the
// last space. Single-token names and source placeholders use the literal
// field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

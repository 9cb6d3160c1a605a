// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API for title or abstract matches,
// newest submissions first.
type ArxivBackend struct {
	Client    *http.Client
	UserAgent string
	Logger    zerolog.Logger
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return types.SourceArxiv }

// Search queries arXiv for the literal keyword in titles or abstracts.
func (b *ArxivBackend) Search(ctx context.Context, keyword string, limit int) ([]types.Paper, error) {
	params := url.Values{
		"search_query": {buildArxivQuery(keyword)},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []types.Paper
	for _, entry := range feed.Entries {
		p, ok := b.toPaper(entry)
		if !ok {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func (b *ArxivBackend) toPaper(entry arxivEntry) (types.Paper, bool) {
	arxivID := extractArxivID(entry.ID)
	if arxivID == "" {
		return types.Paper{}, false
	}

	updated, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Updated))
	if err != nil {
		b.Logger.Debug().Str("source_id", arxivID).Str("updated", entry.Updated).Msg("unparseable date, skipping entry")
		return types.Paper{}, false
	}

	author := "arXiv"
	if len(entry.Authors) > 0 {
		if name := types.CollapseSpace(entry.Authors[0].Name); name != "" {
			author = name
		}
	}

	var categories []string
	for _, c := range entry.Categories {
		if c.Term != "" {
			categories = append(categories, c.Term)
		}
	}

	canonical := strings.Replace(strings.TrimSpace(entry.ID), "http://", "https://", 1)

	return types.Paper{
		Title:         types.CollapseSpace(entry.Title),
		CanonicalLink: canonical,
		DocumentLink:  arxivPDFLink(entry),
		PublishedAt:   types.CalendarDate(updated),
		Abstract:      types.CollapseSpace(entry.Summary),
		PrimaryAuthor: author,
		Categories:    categories,
		SourceID:      arxivID,
		Source:        types.SourceArxiv,
	}, true
}

// buildArxivQuery matches the keyword as a quoted phrase in the title or
// the abstract.
func buildArxivQuery(keyword string) string {
	return fmt.Sprintf(`ti:"%s" OR abs:"%s"`, keyword, keyword)
}

// arxivPDFLink returns the entry's explicit PDF link, or derives one from
// the abstract page URL ("http://arxiv.org/abs/2401.00001v1" becomes
// "https://arxiv.org/pdf/2401.00001v1.pdf").
func arxivPDFLink(entry arxivEntry) string {
	for _, l := range entry.Links {
		if l.Title == "pdf" && l.Href != "" {
			return l.Href
		}
	}
	return derivePDFLink(strings.TrimSpace(entry.ID))
}

func derivePDFLink(absURL string) string {
	u := strings.Replace(absURL, "http://", "https://", 1)
	u = strings.Replace(u, "/abs/", "/pdf/", 1)
	if !strings.HasSuffix(u, ".pdf") {
		u += ".pdf"
	}
	return u
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Updated    string          `xml:"updated"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

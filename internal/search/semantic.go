// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,url,title,abstract,authors,publicationDate,openAccessPdf,fieldsOfStudy"

// SemanticScholarBackend queries the Semantic Scholar Graph API, newest
// publications first. Only the first page is read.
type SemanticScholarBackend struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Logger    zerolog.Logger
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return types.SourceSemanticScholar }

// Search queries Semantic Scholar for the keyword.
func (b *SemanticScholarBackend) Search(ctx context.Context, keyword string, limit int) ([]types.Paper, error) {
	params := url.Values{
		"query":  {keyword},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
		"sort":   {"publicationDate:desc"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0, b.Logger)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var papers []types.Paper
	for _, sp := range sr.Data {
		p, ok := b.toPaper(sp)
		if !ok {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func (b *SemanticScholarBackend) toPaper(sp semanticPaper) (types.Paper, bool) {
	if sp.PaperID == "" {
		return types.Paper{}, false
	}
	if sp.PublicationDate == nil {
		b.Logger.Debug().Str("source_id", sp.PaperID).Msg("no publication date, skipping entry")
		return types.Paper{}, false
	}
	published, err := time.Parse("2006-01-02", *sp.PublicationDate)
	if err != nil {
		b.Logger.Debug().Str("source_id", sp.PaperID).Str("date", *sp.PublicationDate).Msg("unparseable date, skipping entry")
		return types.Paper{}, false
	}

	title := "No Title"
	if sp.Title != nil {
		title = types.CollapseSpace(*sp.Title)
	}
	abstract := types.NotAvailable
	if sp.Abstract != nil {
		abstract = types.CollapseSpace(*sp.Abstract)
	}

	author := "S2"
	if len(sp.Authors) > 0 && sp.Authors[0].Name != "" {
		author = types.CollapseSpace(sp.Authors[0].Name)
	}

	// Papers without an open-access PDF fall back to the landing page.
	doc := sp.URL
	if sp.OpenAccessPDF != nil && sp.OpenAccessPDF.URL != "" {
		doc = sp.OpenAccessPDF.URL
	}

	return types.Paper{
		Title:         title,
		CanonicalLink: sp.URL,
		DocumentLink:  doc,
		PublishedAt:   types.CalendarDate(published),
		Abstract:      abstract,
		PrimaryAuthor: author,
		Categories:    sp.FieldsOfStudy,
		SourceID:      sp.PaperID,
		Source:        types.SourceSemanticScholar,
	}, true
}

// Semantic Scholar API JSON structures. Nullable fields are pointers.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Next   int             `json:"next"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string           `json:"paperId"`
	URL             string           `json:"url"`
	Title           *string          `json:"title"`
	Abstract        *string          `json:"abstract"`
	PublicationDate *string          `json:"publicationDate"`
	Authors         []semanticAuthor `json:"authors"`
	OpenAccessPDF   *semanticPDF     `json:"openAccessPdf"`
	FieldsOfStudy   []string         `json:"fieldsOfStudy"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexMaxPerPage is the API's page size limit.
const openAlexMaxPerPage = 200

// OpenAlexBackend queries the OpenAlex Works API over titles and
// abstracts, newest publications first. Categories are the fields of the
// work's topics (e.g. "Computer Science").
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as the mailto parameter for polite pool access.
	Email     string
	UserAgent string
	Logger    zerolog.Logger
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return types.SourceOpenAlex }

// Search queries OpenAlex for the keyword.
func (b *OpenAlexBackend) Search(ctx context.Context, keyword string, limit int) ([]types.Paper, error) {
	if limit > openAlexMaxPerPage {
		limit = openAlexMaxPerPage
	}

	params := url.Values{
		"filter":   {"title_and_abstract.search:" + strings.ReplaceAll(keyword, ",", " ")},
		"sort":     {"publication_date:desc"},
		"per_page": {strconv.Itoa(limit)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0, b.Logger)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var papers []types.Paper
	for _, work := range oar.Results {
		p, ok := b.toPaper(work)
		if !ok {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func (b *OpenAlexBackend) toPaper(w openAlexWork) (types.Paper, bool) {
	id := strings.TrimPrefix(w.ID, "https://openalex.org/")
	if id == "" {
		return types.Paper{}, false
	}
	published, err := time.Parse(time.DateOnly, w.PublicationDate)
	if err != nil {
		b.Logger.Debug().Str("source_id", id).Str("date", w.PublicationDate).Msg("unparseable date, skipping entry")
		return types.Paper{}, false
	}

	title := "No Title"
	if w.Title != nil && *w.Title != "" {
		title = types.CollapseSpace(*w.Title)
	}
	abstract := reconstructAbstract(w.AbstractInvertedIndex)
	if abstract == "" {
		abstract = types.NotAvailable
	}

	author := "OpenAlex"
	if len(w.Authorships) > 0 && w.Authorships[0].Author.DisplayName != "" {
		author = types.CollapseSpace(w.Authorships[0].Author.DisplayName)
	}

	canonical := w.ID
	if w.DOI != "" {
		canonical = w.DOI
	}
	doc := canonical
	switch {
	case w.BestOALocation != nil && w.BestOALocation.PDFURL != "":
		doc = w.BestOALocation.PDFURL
	case w.OpenAccess.OAURL != "":
		doc = w.OpenAccess.OAURL
	}

	return types.Paper{
		Title:         title,
		CanonicalLink: canonical,
		DocumentLink:  doc,
		PublishedAt:   types.CalendarDate(published),
		Abstract:      abstract,
		PrimaryAuthor: author,
		Categories:    topicFields(w.Topics),
		SourceID:      id,
		Source:        types.SourceOpenAlex,
	}, true
}

// topicFields returns the distinct field names of the work's topics in
// first-seen order.
func topicFields(topics []openAlexTopic) []string {
	seen := make(map[string]struct{}, len(topics))
	var fields []string
	for _, t := range topics {
		name := t.Field.DisplayName
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	return fields
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where it
// appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 *string              `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	BestOALocation        *openAlexLocation    `json:"best_oa_location"`
	Topics                []openAlexTopic      `json:"topics"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

type openAlexLocation struct {
	PDFURL         string `json:"pdf_url"`
	LandingPageURL string `json:"landing_page_url"`
}

type openAlexTopic struct {
	DisplayName string          `json:"display_name"`
	Field       openAlexConcept `json:"field"`
}

type openAlexConcept struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

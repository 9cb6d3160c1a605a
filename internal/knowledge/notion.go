// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// notionAPIBase is the Notion REST API root. Declared as a var so tests
// can substitute an httptest server.
var notionAPIBase = "https://api.notion.com/v1"

const (
	notionVersion  = "2022-06-28"
	notionTimeout  = 15 * time.Second
	abstractLimit  = 1999
	titleProperty  = "Paper"
	errBodyPreview = 512
)

// sectionProperties maps summary sections to their Notion property names.
var sectionProperties = map[types.Section]string{
	types.SectionMotivation:    "Motivation",
	types.SectionDifferences:   "Differences from Prior Work",
	types.SectionContributions: "Contributions and Novelty",
	types.SectionMethod:        "Proposed Method",
	types.SectionResults:       "Results",
}

// NotionBase stores papers as pages of one Notion database.
type NotionBase struct {
	client     *http.Client
	token      string
	databaseID string
	userAgent  string
	logger     zerolog.Logger
}

// NewNotionBase creates a Notion-backed Base from cfg.
func NewNotionBase(cfg types.KnowledgeBaseConfig, logger zerolog.Logger) *NotionBase {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = notionTimeout
	}
	return &NotionBase{
		client:     &http.Client{Timeout: timeout},
		token:      cfg.NotionToken,
		databaseID: cfg.DatabaseID,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// --- listing ---

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type notionPage struct {
	Properties map[string]notionProperty `json:"properties"`
}

type notionProperty struct {
	Title []notionRichText `json:"title"`
}

type notionRichText struct {
	Text notionText `json:"text"`
}

type notionText struct {
	Content string `json:"content"`
}

// ExistingTitles pages through the database query endpoint until the
// cursor runs out. Pages without a title are skipped.
func (n *NotionBase) ExistingTitles(ctx context.Context) ([]string, error) {
	var titles []string
	cursor := ""

	for {
		body := map[string]string{}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var page notionQueryResponse
		if err := n.post(ctx, "/databases/"+n.databaseID+"/query", body, &page); err != nil {
			return titles, fmt.Errorf("querying database: %w", err)
		}

		for _, r := range page.Results {
			prop, ok := r.Properties[titleProperty]
			if !ok || len(prop.Title) == 0 {
				continue
			}
			titles = append(titles, types.CollapseSpace(prop.Title[0].Text.Content))
		}

		if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
			return titles, nil
		}
		cursor = *page.NextCursor
	}
}

// --- creation ---

// CreateRecord adds one page holding the paper's metadata, verdict and
// the five summary sections.
func (n *NotionBase) CreateRecord(ctx context.Context, p types.Paper) error {
	if p.Analysis == nil {
		return fmt.Errorf("paper %q has no analysis", p.Title)
	}

	body := map[string]any{
		"parent":     map[string]string{"database_id": n.databaseID},
		"properties": pageProperties(p),
	}
	if err := n.post(ctx, "/pages", body, nil); err != nil {
		return fmt.Errorf("creating page: %w", err)
	}
	return nil
}

func pageProperties(p types.Paper) map[string]any {
	props := map[string]any{
		titleProperty: map[string]any{"title": richText(p.Title)},
		"Abstract":    map[string]any{"rich_text": richText(truncateRunes(p.Abstract, abstractLimit))},
		"Author":      map[string]any{"rich_text": richText(p.PrimaryAuthor)},
		"Relatedness": map[string]any{"select": map[string]string{"name": string(p.Analysis.Relevance)}},
		"URL":         map[string]any{"url": p.CanonicalLink},
		"Date":        map[string]any{"date": map[string]string{"start": p.PublishedAt.UTC().Format(time.DateOnly)}},
	}
	for _, s := range types.Sections {
		props[sectionProperties[s]] = map[string]any{"rich_text": richText(p.Analysis.Section(s))}
	}
	return props
}

func richText(s string) []notionRichText {
	return []notionRichText{{Text: notionText{Content: s}}}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// --- transport ---

// post sends a JSON request and decodes a 2xx response into out when out
// is non-nil.
func (n *NotionBase) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notionAPIBase+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, n.client, req, 0, n.logger)
	if err != nil {
		return fmt.Errorf("Notion API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyPreview))
		return fmt.Errorf("Notion API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(preview))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Notion response: %w", err)
	}
	return nil
}

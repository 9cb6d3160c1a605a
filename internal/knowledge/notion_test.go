// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func withNotionServer(t *testing.T, handler http.HandlerFunc) *NotionBase {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	orig := notionAPIBase
	notionAPIBase = ts.URL + "/v1"
	t.Cleanup(func() { notionAPIBase = orig })

	return NewNotionBase(types.KnowledgeBaseConfig{
		NotionToken: "secret_abc",
		DatabaseID:  "db123",
		HTTPConfig:  types.HTTPConfig{UserAgent: "paper-digest-test"},
	}, zerolog.Nop())
}

func titlePage(title string) string {
	return fmt.Sprintf(`{"properties": {"Paper": {"title": [{"text": {"content": %q}}]}}}`, title)
}

func TestNotionExistingTitlesPaginates(t *testing.T) {
	var cursors []string
	base := withNotionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db123/query", r.URL.Path)
		assert.Equal(t, "Bearer secret_abc", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "paper-digest-test", r.Header.Get("User-Agent"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cursors = append(cursors, body["start_cursor"])

		switch body["start_cursor"] {
		case "":
			fmt.Fprintf(w, `{"results": [%s, %s], "has_more": true, "next_cursor": "c2"}`,
				titlePage("Foo  Bar"), `{"properties": {"Paper": {"title": []}}}`)
		case "c2":
			fmt.Fprintf(w, `{"results": [%s], "has_more": false, "next_cursor": null}`, titlePage("Baz"))
		default:
			t.Errorf("unexpected cursor %q", body["start_cursor"])
		}
	})

	titles, err := base.ExistingTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo Bar", "Baz"}, titles)
	assert.Equal(t, []string{"", "c2"}, cursors)
}

func TestNotionExistingTitlesStopsOnPageFailure(t *testing.T) {
	calls := 0
	base := withNotionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprintf(w, `{"results": [%s], "has_more": true, "next_cursor": "c2"}`, titlePage("Foo"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	titles, err := base.ExistingTitles(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"Foo"}, titles)
	assert.Equal(t, 2, calls)
}

func TestNotionExistingTitlesRetriesRateLimit(t *testing.T) {
	calls := 0
	base := withNotionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"results": [%s], "has_more": false}`, titlePage("Foo"))
	})

	titles, err := base.ExistingTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo"}, titles)
	assert.Equal(t, 2, calls)
}

func TestNotionCreateRecord(t *testing.T) {
	var got struct {
		Parent     map[string]string          `json:"parent"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	base := withNotionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"object": "page", "id": "p1"}`)
	})

	p := analyzedPaper("Multi-Party Dialogue Modeling")
	p.Abstract = strings.Repeat("a", 2500)
	require.NoError(t, base.CreateRecord(context.Background(), p))

	assert.Equal(t, "db123", got.Parent["database_id"])
	assert.Len(t, got.Properties, 11)

	assert.JSONEq(t, `{"title": [{"text": {"content": "Multi-Party Dialogue Modeling"}}]}`, string(got.Properties["Paper"]))
	assert.JSONEq(t, `{"select": {"name": "Related"}}`, string(got.Properties["Relatedness"]))
	assert.JSONEq(t, `{"url": "https://arxiv.org/abs/2501.00001"}`, string(got.Properties["URL"]))
	assert.JSONEq(t, `{"date": {"start": "2025-03-14"}}`, string(got.Properties["Date"]))
	assert.JSONEq(t, `{"rich_text": [{"text": {"content": "Ada Lovelace"}}]}`, string(got.Properties["Author"]))
	assert.JSONEq(t, `{"rich_text": [{"text": {"content": "why"}}]}`, string(got.Properties["Motivation"]))
	assert.JSONEq(t, `{"rich_text": [{"text": {"content": "N/A"}}]}`, string(got.Properties["Differences from Prior Work"]))
	assert.JSONEq(t, `{"rich_text": [{"text": {"content": "how"}}]}`, string(got.Properties["Proposed Method"]))
	assert.Contains(t, got.Properties, "Contributions and Novelty")
	assert.Contains(t, got.Properties, "Results")

	var abstract struct {
		RichText []notionRichText `json:"rich_text"`
	}
	require.NoError(t, json.Unmarshal(got.Properties["Abstract"], &abstract))
	assert.Len(t, abstract.RichText[0].Text.Content, abstractLimit)
}

func TestNotionCreateRecordFailure(t *testing.T) {
	base := withNotionServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"object": "error", "code": "validation_error", "message": "Relatedness is not a property"}`)
	})

	err := base.CreateRecord(context.Background(), analyzedPaper("Foo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Contains(t, err.Error(), "validation_error")
}

func TestNotionCreateRecordRequiresAnalysis(t *testing.T) {
	base := withNotionServer(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	p := analyzedPaper("Foo")
	p.Analysis = nil
	assert.Error(t, base.CreateRecord(context.Background(), p))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "안녕", truncateRunes("안녕하세요", 2))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"empty map", map[string][]int{}, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{
			name:  "ordered words",
			index: map[string][]int{"We": {0}, "study": {1}, "meetings": {2}},
			want:  "We study meetings",
		},
		{
			name:  "repeated word",
			index: map[string][]int{"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5}},
			want:  "the cat sat on the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconstructAbstract(tt.index))
		})
	}
}

func TestTopicFields(t *testing.T) {
	topics := []openAlexTopic{
		{DisplayName: "Speech Recognition", Field: openAlexConcept{DisplayName: "Computer Science"}},
		{DisplayName: "Dialogue Systems", Field: openAlexConcept{DisplayName: "Computer Science"}},
		{DisplayName: "Conversation Analysis", Field: openAlexConcept{DisplayName: "Linguistics"}},
		{DisplayName: "Unfielded"},
	}
	assert.Equal(t, []string{"Computer Science", "Linguistics"}, topicFields(topics))
	assert.Nil(t, topicFields(nil))
}

// --- OpenAlexBackend.Search ---

const openAlexFixture = `{
  "meta": {"count": 3, "per_page": 50, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W4400000001",
      "title": "Multi-Party  Turn Taking",
      "doi": "https://doi.org/10.1000/mp.1",
      "publication_date": "2025-05-30",
      "authorships": [{"author": {"id": "A1", "display_name": "Grace Hopper"}}],
      "abstract_inverted_index": {"Who": [0], "speaks": [1], "next": [2]},
      "open_access": {"is_oa": true, "oa_url": "https://example.org/landing"},
      "best_oa_location": {"pdf_url": "https://example.org/mp1.pdf", "landing_page_url": "https://example.org/landing"},
      "topics": [{"display_name": "Dialogue", "field": {"id": "F17", "display_name": "Computer Science"}}]
    },
    {
      "id": "https://openalex.org/W4400000002",
      "title": null,
      "doi": "",
      "publication_date": "2025-05-29",
      "authorships": [],
      "abstract_inverted_index": null,
      "open_access": {"is_oa": false, "oa_url": ""},
      "best_oa_location": null,
      "topics": []
    },
    {
      "id": "https://openalex.org/W4400000003",
      "title": "Undated",
      "publication_date": "",
      "open_access": {"is_oa": false}
    }
  ]
}`

func withOpenAlexServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	t.Cleanup(func() {
		openAlexSearchBase = old
		ts.Close()
	})
	return ts
}

func TestOpenAlexBackendSearch(t *testing.T) {
	var query map[string][]string
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		assert.Equal(t, "paper-digest-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, openAlexFixture)
	})

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.org", UserAgent: "paper-digest-test", Logger: zerolog.Nop()}
	papers, err := b.Search(context.Background(), "Multi-Party", 50)
	require.NoError(t, err)

	assert.Equal(t, []string{"title_and_abstract.search:Multi-Party"}, query["filter"])
	assert.Equal(t, []string{"publication_date:desc"}, query["sort"])
	assert.Equal(t, []string{"50"}, query["per_page"])
	assert.Equal(t, []string{"me@example.org"}, query["mailto"])

	require.Len(t, papers, 2)

	p := papers[0]
	assert.Equal(t, "Multi-Party Turn Taking", p.Title)
	assert.Equal(t, "https://doi.org/10.1000/mp.1", p.CanonicalLink)
	assert.Equal(t, "https://example.org/mp1.pdf", p.DocumentLink)
	assert.Equal(t, time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), p.PublishedAt)
	assert.Equal(t, "Who speaks next", p.Abstract)
	assert.Equal(t, "Grace Hopper", p.PrimaryAuthor)
	assert.Equal(t, []string{"Computer Science"}, p.Categories)
	assert.Equal(t, "W4400000001", p.SourceID)
	assert.Equal(t, types.SourceOpenAlex, p.Source)

	bare := papers[1]
	assert.Equal(t, "No Title", bare.Title)
	assert.Equal(t, types.NotAvailable, bare.Abstract)
	assert.Equal(t, "OpenAlex", bare.PrimaryAuthor)
	assert.Equal(t, "https://openalex.org/W4400000002", bare.CanonicalLink)
	assert.Equal(t, bare.CanonicalLink, bare.DocumentLink)
	assert.Empty(t, bare.Categories)
}

func TestOpenAlexBackendCapsPageSize(t *testing.T) {
	var perPage string
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		fmt.Fprint(w, `{"meta": {}, "results": []}`)
	})

	b := &OpenAlexBackend{Client: ts.Client(), Logger: zerolog.Nop()}
	papers, err := b.Search(context.Background(), "x", 500)
	require.NoError(t, err)
	assert.Empty(t, papers)
	assert.Equal(t, "200", perPage)
}

func TestOpenAlexBackendHTTPError(t *testing.T) {
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	b := &OpenAlexBackend{Client: ts.Client(), Logger: zerolog.Nop()}
	_, err := b.Search(context.Background(), "x", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestOpenAlexBackendMalformedJSON(t *testing.T) {
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	})

	b := &OpenAlexBackend{Client: ts.Client(), Logger: zerolog.Nop()}
	_, err := b.Search(context.Background(), "x", 10)
	assert.Error(t, err)
}

func TestOpenAlexBackendName(t *testing.T) {
	assert.Equal(t, "openalex", (&OpenAlexBackend{}).Name())
}

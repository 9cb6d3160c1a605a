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
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2506.01234v2</id>
    <updated>2025-06-03T12:30:00Z</updated>
    <published>2025-06-01T09:00:00Z</published>
    <title>Full-Duplex   Spoken Dialogue
      with Multiple Speakers</title>
    <summary>  We study turn taking
  in multi-party   conversation.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2506.01234v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2506.01234v2" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="eess.AS" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2506.05555v1</id>
    <updated>2025-06-04T08:00:00Z</updated>
    <title>No Links Or Authors</title>
    <summary>Derived link.</summary>
    <category term="cs.SD"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2506.09999v1</id>
    <updated>not a date</updated>
    <title>Bad Date</title>
    <summary>Skipped.</summary>
    <category term="cs.CL"/>
  </entry>
</feed>`

func withArxivServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() {
		arxivAPIBase = old
		ts.Close()
	})
	return ts
}

func TestArxivSearchRequestParams(t *testing.T) {
	var captured *http.Request
	ts := withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	})

	b := &ArxivBackend{Client: ts.Client(), UserAgent: "test/0.1", Logger: zerolog.Nop()}
	_, err := b.Search(context.Background(), "Multi-Party", 50)
	require.NoError(t, err)

	q := captured.URL.Query()
	assert.Equal(t, `ti:"Multi-Party" OR abs:"Multi-Party"`, q.Get("search_query"))
	assert.Equal(t, "50", q.Get("max_results"))
	assert.Equal(t, "submittedDate", q.Get("sortBy"))
	assert.Equal(t, "descending", q.Get("sortOrder"))
	assert.Equal(t, "test/0.1", captured.Header.Get("User-Agent"))
}

func TestArxivSearchParsesEntries(t *testing.T) {
	ts := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivFixture)
	})

	b := &ArxivBackend{Client: ts.Client(), Logger: zerolog.Nop()}
	papers, err := b.Search(context.Background(), "multi-party", 50)
	require.NoError(t, err)
	require.Len(t, papers, 2, "entry with unparseable date must be skipped")

	p := papers[0]
	assert.Equal(t, "2506.01234", p.SourceID)
	assert.Equal(t, "Full-Duplex Spoken Dialogue with Multiple Speakers", p.Title)
	assert.Equal(t, "We study turn taking in multi-party conversation.", p.Abstract)
	assert.Equal(t, "Ada Lovelace", p.PrimaryAuthor)
	assert.Equal(t, "https://arxiv.org/abs/2506.01234v2", p.CanonicalLink)
	assert.Equal(t, "http://arxiv.org/pdf/2506.01234v2", p.DocumentLink)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), p.PublishedAt)
	assert.Equal(t, []string{"cs.CL", "eess.AS"}, p.Categories)
	assert.Equal(t, "arxiv", p.Source)

	q := papers[1]
	assert.Equal(t, "arXiv", q.PrimaryAuthor)
	assert.Equal(t, "https://arxiv.org/pdf/2506.05555v1.pdf", q.DocumentLink)
	assert.Equal(t, []string{"cs.SD"}, q.Categories)
}

func TestArxivSearchHTTPError(t *testing.T) {
	ts := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	b := &ArxivBackend{Client: ts.Client(), Logger: zerolog.Nop()}
	_, err := b.Search(context.Background(), "kw", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestArxivSearchMalformedXML(t *testing.T) {
	ts := withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<feed><entry><id>`)
	})

	b := &ArxivBackend{Client: ts.Client(), Logger: zerolog.Nop()}
	_, err := b.Search(context.Background(), "kw", 50)
	assert.Error(t, err)
}

func TestDerivePDFLink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2401.00001v1", "https://arxiv.org/pdf/2401.00001v1.pdf"},
		{"https://arxiv.org/abs/2401.00001", "https://arxiv.org/pdf/2401.00001.pdf"},
		{"http://arxiv.org/abs/2401.00001.pdf", "https://arxiv.org/pdf/2401.00001.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, derivePDFLink(tt.in))
		})
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/cs/0112017v1", "cs/0112017"},
		{"http://example.com/2301.07041", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArxivID(tt.in))
		})
	}
}

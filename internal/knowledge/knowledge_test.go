// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// --- test helpers ---

type stubBase struct {
	titles []string
	err    error
	calls  int
}

func (s *stubBase) ExistingTitles(context.Context) ([]string, error) {
	s.calls++
	return s.titles, s.err
}

func (s *stubBase) CreateRecord(context.Context, types.Paper) error { return nil }

func analyzedPaper(title string) types.Paper {
	return types.Paper{
		Title:         title,
		CanonicalLink: "https://arxiv.org/abs/2501.00001",
		DocumentLink:  "https://arxiv.org/pdf/2501.00001",
		PublishedAt:   time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Abstract:      "We study multi-party dialogue.",
		PrimaryAuthor: "Ada Lovelace",
		SourceID:      "2501.00001",
		Source:        types.SourceArxiv,
		Analysis: &types.Analysis{
			Relevance: types.RelevanceRelated,
			Model:     "gemini-2.5-pro",
			Sections: map[types.Section]string{
				types.SectionMotivation: "why",
				types.SectionMethod:     "how",
			},
		},
	}
}

// --- KnownTitles / FilterNew ---

func TestKnownTitlesNormalizes(t *testing.T) {
	base := &stubBase{titles: []string{"Foo Bar", "  Multi-Party   Dialogue "}}
	known := KnownTitles(context.Background(), base, zerolog.Nop())

	assert.Len(t, known, 2)
	assert.Contains(t, known, "foo bar")
	assert.Contains(t, known, "multi-party dialogue")
}

func TestKnownTitlesPartialOnError(t *testing.T) {
	base := &stubBase{titles: []string{"Foo Bar"}, err: errors.New("page 2 failed")}
	known := KnownTitles(context.Background(), base, zerolog.Nop())

	assert.Len(t, known, 1)
	assert.Contains(t, known, "foo bar")
}

func TestKnownTitlesQueriesEachCall(t *testing.T) {
	base := &stubBase{titles: []string{"A"}}
	KnownTitles(context.Background(), base, zerolog.Nop())
	base.titles = append(base.titles, "B")
	known := KnownTitles(context.Background(), base, zerolog.Nop())

	assert.Equal(t, 2, base.calls)
	assert.Contains(t, known, "b")
}

func TestFilterNewCaseAndWhitespaceInsensitive(t *testing.T) {
	known := map[string]struct{}{"foo bar": {}}
	candidates := []types.Paper{
		{Title: "foo   bar"},
		{Title: "FOO BAR"},
		{Title: "Baz"},
		{Title: "Qux"},
	}

	got := FilterNew(candidates, known)
	require.Len(t, got, 2)
	assert.Equal(t, "Baz", got[0].Title)
	assert.Equal(t, "Qux", got[1].Title)
}

func TestFilterNewEmptyKnown(t *testing.T) {
	candidates := []types.Paper{{Title: "A"}, {Title: "B"}}
	assert.Equal(t, candidates, FilterNew(candidates, nil))
}

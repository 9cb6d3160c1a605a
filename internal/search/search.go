// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search collects recent papers from bibliographic sources and
// merges them into one candidate set keyed by normalized title.
package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// defaultMaxResults caps results per keyword per source.
const defaultMaxResults = 50

// Backend runs one keyword query against a single bibliographic source.
// Implementations return records with normalized whitespace, a derived
// document link, and a calendar PublishedAt. Entries whose date cannot be
// parsed are dropped by the backend.
type Backend interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]types.Paper, error)
}

// Collector runs a Backend over a keyword set and applies the source's
// date window and category allow-list.
type Collector struct {
	Backend    Backend
	Allowed    []string
	MaxResults int

	// Pacer spaces successive queries to the same source.
	Pacer *rate.Limiter

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewCollector builds a Collector for b using the search settings.
func NewCollector(b Backend, allowed []string, cfg types.SearchConfig, logger zerolog.Logger, m *observability.Metrics) *Collector {
	return &Collector{
		Backend:    b,
		Allowed:    allowed,
		MaxResults: cfg.MaxResults,
		Pacer:      httputil.NewPacer(cfg.KeywordDelay),
		Logger:     logger,
		Metrics:    m,
	}
}

// Collect queries every keyword and returns the papers dated within
// [from, to] (inclusive, compared as calendar dates) whose categories
// intersect the allow-list. Records repeating an earlier SourceID are
// dropped. A failing keyword is logged and skipped; Collect never fails,
// and returns what it has gathered if ctx is cancelled.
func (c *Collector) Collect(ctx context.Context, keywords []string, from, to time.Time) []types.Paper {
	limit := c.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	pacer := c.Pacer
	if pacer == nil {
		pacer = httputil.NewPacer(0)
	}

	from, to = types.CalendarDate(from), types.CalendarDate(to)
	allowed := make(map[string]struct{}, len(c.Allowed))
	for _, a := range c.Allowed {
		allowed[a] = struct{}{}
	}

	source := c.Backend.Name()
	seen := make(map[string]struct{})
	var out []types.Paper

	for _, kw := range keywords {
		if err := pacer.Wait(ctx); err != nil {
			c.Logger.Warn().Err(err).Str("source", source).Msg("collection interrupted")
			break
		}

		log := observability.WithSearchContext(c.Logger, source, kw)
		papers, err := c.Backend.Search(ctx, kw, limit)
		if err != nil {
			log.Warn().Err(err).Msg("keyword query failed, skipping")
			if c.Metrics != nil {
				c.Metrics.KeywordFailures.WithLabelValues(source).Inc()
			}
			continue
		}

		kept := 0
		for _, p := range papers {
			if !InWindow(p.PublishedAt, from, to) {
				continue
			}
			if !intersects(p.Categories, allowed) {
				continue
			}
			if _, dup := seen[p.SourceID]; dup {
				continue
			}
			seen[p.SourceID] = struct{}{}
			out = append(out, p)
			kept++
		}
		log.Debug().Int("returned", len(papers)).Int("kept", kept).Msg("keyword queried")
	}

	if c.Metrics != nil {
		c.Metrics.PapersCollected.WithLabelValues(source).Add(float64(len(out)))
	}
	c.Logger.Info().Str("source", source).Int("papers", len(out)).Int("keywords", len(keywords)).Msg("collection finished")
	return out
}

// InWindow reports whether d falls within [from, to], both ends included,
// comparing calendar dates only.
func InWindow(d, from, to time.Time) bool {
	d = types.CalendarDate(d)
	return !d.Before(types.CalendarDate(from)) && !d.After(types.CalendarDate(to))
}

func intersects(categories []string, allowed map[string]struct{}) bool {
	for _, c := range categories {
		if _, ok := allowed[c]; ok {
			return true
		}
	}
	return false
}

// Merge combines collector outputs into one candidate list keyed by
// normalized title. Lists are consumed in argument order and the first
// record seen for a title is kept, so callers pass the preferred source first.
func Merge(lists ...[]types.Paper) []types.Paper {
	seen := make(map[string]struct{})
	var merged []types.Paper
	for _, list := range lists {
		for _, p := range list {
			key := p.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

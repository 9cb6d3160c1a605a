// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge reads and writes the external store of recorded papers.
// A Base lists the titles it already holds and accepts one record per
// analyzed paper. Notion and a local SQLite file are the two backends.
package knowledge

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Base is a knowledge base of recorded papers.
type Base interface {
	// ExistingTitles lists every stored title. On a mid-listing failure it
	// returns the titles gathered so far together with the error.
	ExistingTitles(ctx context.Context) ([]string, error)

	// CreateRecord stores one analyzed paper. The paper's Analysis must be set.
	CreateRecord(ctx context.Context, p types.Paper) error
}

// KnownTitles returns the normalized set of titles already in the base.
// Listing is best-effort: a failure is logged and the partial set is
// returned. Each call queries the base afresh.
func KnownTitles(ctx context.Context, base Base, logger zerolog.Logger) map[string]struct{} {
	titles, err := base.ExistingTitles(ctx)
	if err != nil {
		logger.Warn().Err(err).Int("titles", len(titles)).Msg("listing existing titles stopped early")
	}

	known := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		known[types.NormalizeTitle(t)] = struct{}{}
	}
	return known
}

// FilterNew drops candidates whose normalized title is in known. Order is
// preserved.
func FilterNew(candidates []types.Paper, known map[string]struct{}) []types.Paper {
	var out []types.Paper
	for _, p := range candidates {
		if _, ok := known[p.Key()]; ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

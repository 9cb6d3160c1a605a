// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze asks a generative model for a structured summary and a
// relevance verdict for each candidate paper, falling back along a model
// roster when quota runs out.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/acquire"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	defaultOverloadBackoff  = 30 * time.Second
	defaultQuotaSwitchDelay = 2 * time.Second
)

// Model generates text from a document and an instruction. Implementations
// wrap ErrOverloaded or ErrQuotaExhausted when they can recognize those
// conditions.
type Model interface {
	Generate(ctx context.Context, model string, doc []byte, mimeType, prompt string) (string, error)
}

// DocumentFetcher downloads a paper's full text.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (acquire.Document, error)
}

// Analyzer drives one paper at a time through fetch, prompt, model call
// with fallback, and response parsing.
type Analyzer struct {
	Model   Model
	Fetcher DocumentFetcher

	ResearchArea string

	// OverloadBackoff is the wait before retrying an overloaded model.
	OverloadBackoff time.Duration

	// MaxOverloadRetries bounds same-model retries on overload. Zero means
	// no bound; once a positive bound is spent the roster advances.
	MaxOverloadRetries int

	// QuotaSwitchDelay is the pause after advancing past an exhausted model.
	QuotaSwitchDelay time.Duration

	// FieldLimit is the per-section character capacity.
	FieldLimit int

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewAnalyzer builds an Analyzer from the analysis settings.
func NewAnalyzer(model Model, fetcher DocumentFetcher, cfg types.AIConfig, logger zerolog.Logger, m *observability.Metrics) *Analyzer {
	a := &Analyzer{
		Model:              model,
		Fetcher:            fetcher,
		ResearchArea:       cfg.ResearchArea,
		OverloadBackoff:    cfg.OverloadBackoff,
		MaxOverloadRetries: cfg.MaxOverloadRetries,
		QuotaSwitchDelay:   cfg.QuotaSwitchDelay,
		FieldLimit:         cfg.FieldLimit,
		Logger:             logger,
		Metrics:            m,
	}
	if a.OverloadBackoff <= 0 {
		a.OverloadBackoff = defaultOverloadBackoff
	}
	if a.QuotaSwitchDelay <= 0 {
		a.QuotaSwitchDelay = defaultQuotaSwitchDelay
	}
	if a.FieldLimit <= 0 {
		a.FieldLimit = DefaultFieldLimit
	}
	return a
}

// Analyze produces the analysis for p. It returns the roster to use for
// the next paper, advanced past any model whose quota ran out here.
//
// An exhausted roster fails with ErrRosterExhausted before any network
// call. A fetch failure wraps ErrDocumentFetch and no model is called. On
// the model call, an overload waits OverloadBackoff and retries the same
// model, a quota error advances the roster and tries the next model, and
// any other error wraps ErrModelCall. An answer without the delimiter
// wraps ErrMalformedResponse and is not retried.
func (a *Analyzer) Analyze(ctx context.Context, p types.Paper, roster Roster) (*types.Analysis, Roster, error) {
	log := observability.WithPaperContext(a.Logger, p.Title, p.SourceID)

	if roster.Exhausted() {
		a.count(observability.OutcomeRosterExhausted)
		return nil, roster, ErrRosterExhausted
	}

	doc, err := a.Fetcher.Fetch(ctx, p.DocumentLink)
	if err != nil {
		a.count(observability.OutcomeFetchFailed)
		return nil, roster, fmt.Errorf("%w: %s: %v", ErrDocumentFetch, p.DocumentLink, err)
	}
	log.Debug().Int("bytes", len(doc.Data)).Str("mime_type", doc.MIMEType).Msg("document fetched")

	prompt, err := renderPrompt(a.ResearchArea)
	if err != nil {
		a.count(observability.OutcomeModelFailed)
		return nil, roster, fmt.Errorf("rendering prompt: %w", err)
	}

	overloads := 0
	for {
		model, ok := roster.Current()
		if !ok {
			log.Error().Msg("all models in the roster have run out of quota")
			a.count(observability.OutcomeRosterExhausted)
			return nil, roster, ErrRosterExhausted
		}
		mlog := log.With().Str("model", model).Logger()
		mlog.Debug().Msg("calling model")

		text, err := a.Model.Generate(ctx, model, doc.Data, doc.MIMEType, prompt)
		if err == nil {
			analysis, perr := ParseResponse(text, a.FieldLimit)
			if perr != nil {
				mlog.Warn().Str("response_head", head(text, 200)).Msg("unexpected response format")
				a.count(observability.OutcomeMalformed)
				return nil, roster, perr
			}
			analysis.Model = model
			a.count(outcomeFor(analysis.Relevance))
			return analysis, roster, nil
		}

		switch classify(err) {
		case failureOverload:
			overloads++
			if a.MaxOverloadRetries > 0 && overloads > a.MaxOverloadRetries {
				mlog.Warn().Int("retries", a.MaxOverloadRetries).Msg("model still overloaded, moving to next model")
				roster = a.advance(roster)
				overloads = 0
				continue
			}
			mlog.Warn().Dur("backoff", a.OverloadBackoff).Msg("model overloaded, retrying")
			if a.Metrics != nil {
				a.Metrics.OverloadRetries.Inc()
			}
			if werr := wait(ctx, a.OverloadBackoff); werr != nil {
				a.count(observability.OutcomeModelFailed)
				return nil, roster, fmt.Errorf("%w: %v", ErrModelCall, werr)
			}

		case failureQuota:
			mlog.Warn().Err(err).Msg("model quota exhausted, switching to next model")
			roster = a.advance(roster)
			if roster.Exhausted() {
				continue
			}
			if werr := wait(ctx, a.QuotaSwitchDelay); werr != nil {
				a.count(observability.OutcomeModelFailed)
				return nil, roster, fmt.Errorf("%w: %v", ErrModelCall, werr)
			}

		default:
			a.count(observability.OutcomeModelFailed)
			return nil, roster, fmt.Errorf("%w: %s: %v", ErrModelCall, model, err)
		}
	}
}

func (a *Analyzer) advance(r Roster) Roster {
	if a.Metrics != nil {
		a.Metrics.RosterAdvances.Inc()
	}
	return r.Advance()
}

func (a *Analyzer) count(outcome string) {
	if a.Metrics != nil {
		a.Metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	}
}

func outcomeFor(r types.Relevance) string {
	if r == types.RelevanceRelated {
		return observability.OutcomeRelated
	}
	return observability.OutcomeUnrelated
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// IsTerminal reports whether err means no later paper in this run can be
// analyzed either.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrRosterExhausted)
}

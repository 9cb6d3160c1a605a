// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/acquire"
	"github.com/pdiddy/paper-digest/internal/analyze"
	"github.com/pdiddy/paper-digest/internal/knowledge"
	"github.com/pdiddy/paper-digest/internal/notify"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/search"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Build wires the production stages from cfg: arXiv, Semantic Scholar
// and optionally OpenAlex, the selected model provider, the selected
// knowledge base and the optional Telegram digest. The caller must Close
// the pipeline.
func Build(ctx context.Context, cfg types.PipelineConfig, logger zerolog.Logger, m *observability.Metrics) (*Pipeline, error) {
	p := &Pipeline{
		Keywords:         cfg.Search.Keywords,
		LookbackDays:     cfg.Search.LookbackDays,
		Models:           cfg.Analysis.Models,
		PaperDelay:       cfg.Analysis.PaperDelay,
		WriteDelay:       cfg.KnowledgeBase.WriteDelay,
		ReportPath:       cfg.ReportPath,
		MetricsTextfile:  cfg.MetricsTextfile,
		BibliographyPath: cfg.BibliographyPath,
		Logger:           logger,
		Metrics:          m,
	}

	searchClient := &http.Client{Timeout: cfg.Search.Timeout}
	arxiv := &search.ArxivBackend{Client: searchClient, UserAgent: cfg.Search.UserAgent, Logger: logger}
	s2 := &search.SemanticScholarBackend{
		Client:    searchClient,
		APIKey:    cfg.Search.SemanticScholarAPIKey,
		UserAgent: cfg.Search.UserAgent,
		Logger:    logger,
	}
	p.Collectors = []*search.Collector{
		search.NewCollector(arxiv, cfg.Search.ArxivCategories, cfg.Search, logger, m),
		search.NewCollector(s2, cfg.Search.SemanticScholarFields, cfg.Search, logger, m),
	}
	if cfg.Search.OpenAlex {
		oa := &search.OpenAlexBackend{
			Client:    searchClient,
			Email:     cfg.Search.OpenAlexEmail,
			UserAgent: cfg.Search.UserAgent,
			Logger:    logger,
		}
		p.Collectors = append(p.Collectors, search.NewCollector(oa, cfg.Search.OpenAlexFields, cfg.Search, logger, m))
	}

	model, err := newModel(ctx, cfg.Analysis)
	if err != nil {
		return nil, err
	}
	fetcher := acquire.NewFetcher(cfg.Acquisition, nil)
	p.Analyzer = analyze.NewAnalyzer(model, fetcher, cfg.Analysis, logger, m)

	switch cfg.KnowledgeBase.Backend {
	case types.KnowledgeNotion:
		p.Base = knowledge.NewNotionBase(cfg.KnowledgeBase, logger)
	case types.KnowledgeSQLite:
		store, err := knowledge.NewStore(cfg.KnowledgeBase)
		if err != nil {
			return nil, fmt.Errorf("opening knowledge base: %w", err)
		}
		p.Base = store
		p.closers = append(p.closers, store.Close)
	default:
		return nil, fmt.Errorf("unknown knowledge base backend %q", cfg.KnowledgeBase.Backend)
	}

	tg, err := notify.NewTelegram(cfg.Notify)
	if err != nil {
		p.Close()
		return nil, err
	}
	if tg != nil {
		p.Notifier = tg
	}

	return p, nil
}

func newModel(ctx context.Context, cfg types.AIConfig) (analyze.Model, error) {
	switch cfg.Provider {
	case types.ProviderGemini:
		m, err := analyze.NewGeminiModel(ctx, cfg.GoogleAPIKey, "", nil)
		if err != nil {
			return nil, err
		}
		return m, nil
	case types.ProviderOpenAI:
		return analyze.NewOpenAIModel(cfg.OpenAIAPIKey, "", nil), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

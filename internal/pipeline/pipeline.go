// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one digest: collect recent papers from every
// source, drop those already recorded, analyze the rest one at a time,
// and record the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/analyze"
	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/internal/keywords"
	"github.com/pdiddy/paper-digest/internal/knowledge"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/search"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Notifier announces the papers recorded in a run.
type Notifier interface {
	SendDigest(recorded []types.Paper) (int, error)
}

// Pipeline holds the wired stages of a digest run. Collectors are queried
// in order; on a title collision the earlier source's record wins.
type Pipeline struct {
	Collectors []*search.Collector
	Analyzer   *analyze.Analyzer
	Base       knowledge.Base
	Notifier   Notifier

	Keywords     []string
	LookbackDays int
	Models       []string

	PaperDelay time.Duration
	WriteDelay time.Duration

	ReportPath       string
	MetricsTextfile  string
	BibliographyPath string

	Logger  zerolog.Logger
	Metrics *observability.Metrics

	// Now returns the run's reference time. Defaults to time.Now.
	Now func() time.Time

	closers []func() error
}

// Close releases resources opened by Build.
func (p *Pipeline) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Run executes the digest. Per-keyword, per-paper and per-write failures
// are logged and recorded in the report; they never fail the run. Run
// returns an error only when ctx is cancelled, together with the partial
// report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	started := now()

	runID := uuid.NewString()
	log := observability.WithRun(p.Logger, runID)

	to := types.CalendarDate(started)
	from := to.AddDate(0, 0, -p.LookbackDays)
	kws := keywords.Expand(p.Keywords)

	rep := &Report{
		RunID:     runID,
		StartedAt: started.UTC(),
		From:      from.Format(time.DateOnly),
		To:        to.Format(time.DateOnly),
		Keywords:  len(kws),
		Collected: make(map[string]int, len(p.Collectors)),
	}
	defer p.finish(rep, log, now)

	log.Info().Str("stage", "filter").Msg("listing existing titles")
	known := knowledge.KnownTitles(ctx, p.Base, log)
	log.Info().Int("known", len(known)).Msg("existing titles loaded")

	lists := make([][]types.Paper, 0, len(p.Collectors))
	for _, c := range p.Collectors {
		name := c.Backend.Name()
		log.Info().Str("stage", "collect").Str("source", name).
			Int("keywords", len(kws)).Str("from", rep.From).Str("to", rep.To).Msg("collecting papers")
		papers := c.Collect(ctx, kws, from, to)
		rep.Collected[name] = len(papers)
		lists = append(lists, papers)
		log.Info().Str("source", name).Int("papers", len(papers)).Msg("collection finished")
	}
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("run cancelled: %w", err)
	}

	candidates := search.Merge(lists...)
	rep.Candidates = len(candidates)
	if p.Metrics != nil {
		p.Metrics.Candidates.Add(float64(len(candidates)))
	}
	log.Info().Str("stage", "dedup").Int("candidates", len(candidates)).Msg("sources merged")

	fresh := knowledge.FilterNew(candidates, known)
	rep.KnownBeforeAnalysis = len(candidates) - len(fresh)
	p.countKnown("pre_analysis", rep.KnownBeforeAnalysis)
	log.Info().Str("stage", "filter").Int("new", len(fresh)).
		Int("known", rep.KnownBeforeAnalysis).Msg("dropped already recorded papers")

	analyzed, err := p.analyzeAll(ctx, fresh, rep, log)
	if err != nil {
		return rep, err
	}
	if len(analyzed) == 0 {
		log.Info().Msg("no papers analyzed; nothing to record")
		return rep, nil
	}

	// Another run may have recorded some of these while we were analyzing.
	known = knowledge.KnownTitles(ctx, p.Base, log)
	pending := knowledge.FilterNew(analyzed, known)
	rep.KnownBeforeWrite = len(analyzed) - len(pending)
	p.countKnown("pre_write", rep.KnownBeforeWrite)

	recorded, err := p.writeAll(ctx, pending, rep, log)
	if err != nil {
		return rep, err
	}

	if p.BibliographyPath != "" && len(recorded) > 0 {
		if err := WriteBibliography(p.BibliographyPath, recorded); err != nil {
			log.Warn().Err(err).Msg("writing bibliography")
		}
	}

	if p.Notifier != nil && len(recorded) > 0 {
		n, err := p.Notifier.SendDigest(recorded)
		rep.Notified = n
		if err != nil {
			log.Warn().Err(err).Msg("digest notification failed")
		}
	}
	return rep, nil
}

func (p *Pipeline) analyzeAll(ctx context.Context, papers []types.Paper, rep *Report, log zerolog.Logger) ([]types.Paper, error) {
	log.Info().Str("stage", "analyze").Int("papers", len(papers)).Msg("analyzing papers")

	roster := analyze.NewRoster(p.Models)
	pacer := httputil.NewPacer(p.PaperDelay)
	var analyzed []types.Paper

	for i, paper := range papers {
		if !roster.Exhausted() {
			if err := pacer.Wait(ctx); err != nil {
				return analyzed, fmt.Errorf("run cancelled: %w", err)
			}
		}
		plog := observability.WithPaperContext(log, paper.Title, paper.SourceID)
		plog.Info().Int("index", i+1).Int("total", len(papers)).Msg("analyzing")

		var (
			analysis *types.Analysis
			err      error
		)
		analysis, roster, err = p.Analyzer.Analyze(ctx, paper, roster)

		entry := AnalysisEntry{Title: paper.Title, Source: paper.Source, SourceID: paper.SourceID}
		if err != nil {
			entry.Error = err.Error()
			rep.Analyses = append(rep.Analyses, entry)
			if errors.Is(err, analyze.ErrRosterExhausted) {
				rep.RosterExhausted = true
				plog.Debug().Msg("skipped, no models left")
			} else {
				plog.Warn().Err(err).Msg("analysis failed, paper dropped")
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return analyzed, fmt.Errorf("run cancelled: %w", ctxErr)
			}
			continue
		}

		entry.Model = analysis.Model
		entry.Relevance = analysis.Relevance
		rep.Analyses = append(rep.Analyses, entry)
		plog.Info().Str("model", analysis.Model).Str("relevance", string(analysis.Relevance)).Msg("analyzed")

		paper.Analysis = analysis
		analyzed = append(analyzed, paper)
	}

	if rep.RosterExhausted {
		log.Error().Int("analyzed", len(analyzed)).Int("papers", len(papers)).
			Msg("model roster exhausted; remaining papers were skipped")
	}
	return analyzed, nil
}

func (p *Pipeline) writeAll(ctx context.Context, papers []types.Paper, rep *Report, log zerolog.Logger) ([]types.Paper, error) {
	log.Info().Str("stage", "write").Int("papers", len(papers)).
		Int("known", rep.KnownBeforeWrite).Msg("recording papers")

	pacer := httputil.NewPacer(p.WriteDelay)
	var recorded []types.Paper

	for _, paper := range papers {
		if err := pacer.Wait(ctx); err != nil {
			return recorded, fmt.Errorf("run cancelled: %w", err)
		}
		plog := observability.WithPaperContext(log, paper.Title, paper.SourceID)

		if err := p.Base.CreateRecord(ctx, paper); err != nil {
			plog.Warn().Err(err).Msg("recording failed")
			rep.WriteFailures = append(rep.WriteFailures, Failure{Title: paper.Title, Error: err.Error()})
			if p.Metrics != nil {
				p.Metrics.RecordsFailed.Inc()
			}
			continue
		}

		plog.Info().Str("relevance", string(paper.Analysis.Relevance)).Msg("recorded")
		rep.Created = append(rep.Created, paper.Title)
		if p.Metrics != nil {
			p.Metrics.RecordsCreated.Inc()
		}
		recorded = append(recorded, paper)
	}
	return recorded, nil
}

func (p *Pipeline) countKnown(pass string, n int) {
	if p.Metrics != nil {
		p.Metrics.PapersKnown.WithLabelValues(pass).Add(float64(n))
	}
}

// finish stamps the report and writes the report and metrics files when
// configured. Failures are logged.
func (p *Pipeline) finish(rep *Report, log zerolog.Logger, now func() time.Time) {
	rep.FinishedAt = now().UTC()
	elapsed := rep.FinishedAt.Sub(rep.StartedAt)

	if p.Metrics != nil {
		p.Metrics.RunDuration.Set(elapsed.Seconds())
	}

	if p.ReportPath != "" {
		if err := WriteReport(p.ReportPath, rep); err != nil {
			log.Warn().Err(err).Msg("writing run report")
		}
	}
	if p.MetricsTextfile != "" && p.Metrics != nil {
		if err := p.Metrics.WriteTextfile(p.MetricsTextfile); err != nil {
			log.Warn().Err(err).Msg("writing metrics")
		}
	}

	log.Info().Dur("elapsed", elapsed).Int("candidates", rep.Candidates).
		Int("analyzed", rep.analyzedCount()).Int("created", len(rep.Created)).
		Int("write_failures", len(rep.WriteFailures)).Msg("run finished")
}

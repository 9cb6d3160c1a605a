// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-digest CLI. Running it
// with no arguments performs one full digest run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/config"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/pipeline"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the paper-digest CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-digest",
	Short: "Collect, summarize and record recent papers on a research topic",
	Long: `paper-digest searches arXiv and Semantic Scholar for recent papers matching
the configured keywords, skips papers already in the knowledge base, asks a
generative model to summarize each new paper and judge its relevance, and
records the results in Notion (or a local SQLite file).

Configuration comes from paper-digest.yaml (./ or ~/.config/paper-digest/),
PAPER_DIGEST_* environment variables, the conventional credential variables
(NOTION_TOKEN, DATABASE_ID, GOOGLE_API_KEY, SEMANTICSCHOLAR_API_KEY, ...)
and files in .secrets/.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDigest,
}

func runDigest(cmd *cobra.Command, _ []string) error {
	boot := observability.NewLogger(observability.DefaultLoggingConfig())

	cfg, err := config.Load(boot)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Logging)
	logger.Info().Str("version", version).Str("provider", string(cfg.Analysis.Provider)).
		Str("knowledge_base", string(cfg.KnowledgeBase.Backend)).Msg("starting digest run")

	metrics := observability.NewMetrics("paper_digest")
	p, err := pipeline.Build(cmd.Context(), cfg.PipelineConfig, logger, metrics)
	if err != nil {
		return err
	}
	defer p.Close()

	_, err = p.Run(cmd.Context())
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

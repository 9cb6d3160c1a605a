// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Report summarizes one digest run.
type Report struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`

	// From and To bound the publication window (inclusive, YYYY-MM-DD).
	From string `yaml:"from"`
	To   string `yaml:"to"`

	// Keywords is the number of expanded search phrases.
	Keywords int `yaml:"keywords"`

	// Collected counts filtered papers per source before dedup.
	Collected map[string]int `yaml:"collected"`

	Candidates          int `yaml:"candidates"`
	KnownBeforeAnalysis int `yaml:"known_before_analysis"`
	KnownBeforeWrite    int `yaml:"known_before_write"`

	Analyses        []AnalysisEntry `yaml:"analyses,omitempty"`
	RosterExhausted bool            `yaml:"roster_exhausted"`

	Created       []string  `yaml:"created,omitempty"`
	WriteFailures []Failure `yaml:"write_failures,omitempty"`

	// Notified is the number of digest messages sent.
	Notified int `yaml:"notified"`
}

// AnalysisEntry is the outcome of analyzing one paper. Error is set when
// the paper was dropped.
type AnalysisEntry struct {
	Title     string          `yaml:"title"`
	Source    string          `yaml:"source"`
	SourceID  string          `yaml:"source_id"`
	Model     string          `yaml:"model,omitempty"`
	Relevance types.Relevance `yaml:"relevance,omitempty"`
	Error     string          `yaml:"error,omitempty"`
}

// Failure records a paper that could not be written.
type Failure struct {
	Title string `yaml:"title"`
	Error string `yaml:"error"`
}

func (r *Report) analyzedCount() int {
	n := 0
	for _, a := range r.Analyses {
		if a.Error == "" {
			n++
		}
	}
	return n
}

// WriteReport marshals the report as YAML to path, creating parent
// directories as needed.
func WriteReport(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}

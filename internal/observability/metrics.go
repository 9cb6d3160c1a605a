// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis outcomes recorded by AnalysesTotal.
const (
	OutcomeRelated         = "related"
	OutcomeUnrelated       = "unrelated"
	OutcomeFetchFailed     = "fetch_failed"
	OutcomeModelFailed     = "model_failed"
	OutcomeMalformed       = "malformed"
	OutcomeRosterExhausted = "roster_exhausted"
)

// Metrics holds the counters for one digest run. Each Metrics owns its
// registry so a run's numbers can be written out as a textfile without
// touching the process-wide default registry.
type Metrics struct {
	registry *prometheus.Registry

	// PapersCollected counts papers returned by a collector after filtering, labeled by source.
	PapersCollected *prometheus.CounterVec

	// KeywordFailures counts keyword queries that failed and were skipped, labeled by source.
	KeywordFailures *prometheus.CounterVec

	// Candidates counts papers left after cross-source dedup.
	Candidates prometheus.Counter

	// PapersKnown counts candidates dropped as already recorded, labeled by pass ("pre_analysis", "pre_write").
	PapersKnown *prometheus.CounterVec

	// AnalysesTotal counts analysis attempts, labeled by outcome.
	AnalysesTotal *prometheus.CounterVec

	// RosterAdvances counts permanent moves to the next model.
	RosterAdvances prometheus.Counter

	// OverloadRetries counts same-model retries after an overload.
	OverloadRetries prometheus.Counter

	// RecordsCreated counts successful knowledge base writes.
	RecordsCreated prometheus.Counter

	// RecordsFailed counts failed knowledge base writes.
	RecordsFailed prometheus.Counter

	// RunDuration is the wall-clock duration of the run in seconds.
	RunDuration prometheus.Gauge
}

// NewMetrics creates the run metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PapersCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collect",
			Name:      "papers_total",
			Help:      "Papers returned by a collector after date and category filtering.",
		}, []string{"source"}),
		KeywordFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collect",
			Name:      "keyword_failures_total",
			Help:      "Keyword queries that failed and were skipped.",
		}, []string{"source"}),
		Candidates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "candidates_total",
			Help:      "Papers left after cross-source title dedup.",
		}),
		PapersKnown: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "known_total",
			Help:      "Candidates dropped because the knowledge base already has the title.",
		}, []string{"pass"}),
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyze",
			Name:      "papers_total",
			Help:      "Paper analyses by outcome.",
		}, []string{"outcome"}),
		RosterAdvances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyze",
			Name:      "roster_advances_total",
			Help:      "Permanent moves to the next model after quota exhaustion.",
		}),
		OverloadRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analyze",
			Name:      "overload_retries_total",
			Help:      "Same-model retries after an overload response.",
		}),
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "write",
			Name:      "records_created_total",
			Help:      "Knowledge base records created.",
		}),
		RecordsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "write",
			Name:      "records_failed_total",
			Help:      "Knowledge base writes that failed.",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the digest run.",
		}),
	}
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in Prometheus text format to path,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

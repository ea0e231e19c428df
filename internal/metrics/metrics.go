// Package metrics holds the Prometheus collectors of the pipeline. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"gidi_ingest/internal/domain"
)

type Metrics struct {
	sourceCandidates *prometheus.CounterVec
	sourceFailures   *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	committed        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	feedResponses    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sourceCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gidi_source_candidates_total",
			Help: "Candidates yielded per source.",
		}, []string{"job", "source"}),
		sourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gidi_source_failures_total",
			Help: "Source fetches that failed.",
		}, []string{"job", "source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gidi_candidates_rejected_total",
			Help: "Candidates dropped by validation or normalization.",
		}, []string{"kind"}),
		committed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gidi_rows_committed_total",
			Help: "Rows written to the store by outcome.",
		}, []string{"kind", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gidi_run_duration_seconds",
			Help:    "Wall time of ingestion runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"job"}),
		feedResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gidi_feed_responses_total",
			Help: "Feed responses served, by data origin.",
		}, []string{"kind", "source"}),
	}
	reg.MustRegister(
		m.sourceCandidates,
		m.sourceFailures,
		m.rejected,
		m.committed,
		m.runDuration,
		m.feedResponses,
	)
	return m
}

// ObserveRun records the counters of one finished run.
func (m *Metrics) ObserveRun(s *domain.RunSummary) {
	if m == nil || s == nil {
		return
	}
	for _, src := range s.Sources {
		m.sourceCandidates.WithLabelValues(s.Job, src.SourceID).Add(float64(src.Candidates))
		if src.Error != "" {
			m.sourceFailures.WithLabelValues(s.Job, src.SourceID).Inc()
		}
	}
	kind := string(s.Kind)
	m.rejected.WithLabelValues(kind).Add(float64(s.Rejected))
	m.committed.WithLabelValues(kind, "inserted").Add(float64(s.Inserted))
	m.committed.WithLabelValues(kind, "updated").Add(float64(s.Updated))
	m.committed.WithLabelValues(kind, "skipped").Add(float64(s.Skipped))
	m.committed.WithLabelValues(kind, "failed").Add(float64(len(s.Failures)))
	m.runDuration.WithLabelValues(s.Job).Observe(s.Duration.Seconds())
}

func (m *Metrics) ObserveFeed(kind domain.Kind, source string) {
	if m == nil {
		return
	}
	m.feedResponses.WithLabelValues(string(kind), source).Inc()
}

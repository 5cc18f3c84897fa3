package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobsweep/linkedin-crawler/internal/progress"
)

// PrometheusSink exports crawl progress metrics via Prometheus. It owns all
// collectors derived from the event stream: page fetches, emitted jobs,
// duplicate suppressions, challenges, retries, and run completions.
type PrometheusSink struct {
	pagesFetched   *prometheus.CounterVec
	pagesAbandoned *prometheus.CounterVec
	fetchBytes     *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec

	jobsEmitted prometheus.Counter
	duplicates  prometheus.Counter

	challenges *prometheus.CounterVec
	retries    *prometheus.CounterVec
	backoff    prometheus.Histogram

	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Fetch completions partitioned by page kind and status class.",
		}, []string{"kind", "status_class"}),
		pagesAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_pages_abandoned_total",
			Help: "Pages given up after the retry attempt cap, by page kind.",
		}, []string{"kind"}),
		fetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_fetch_bytes_total",
			Help: "Bytes downloaded per page kind.",
		}, []string{"kind"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Fetch duration partitioned by page kind and status class.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"kind", "status_class"}),
		jobsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_jobs_emitted_total",
			Help: "Job records emitted to sinks.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_duplicates_suppressed_total",
			Help: "Job records suppressed by the dedup registry.",
		}),
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_challenges_total",
			Help: "Challenge responses partitioned by classification.",
		}, []string{"kind"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_retries_total",
			Help: "Retry attempts partitioned by page kind.",
		}, []string{"kind"}),
		backoff: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_backoff_seconds",
			Help:    "Backoff delays observed before retries.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_runs_completed_total",
			Help: "Completed crawl runs partitioned by stop reason.",
		}, []string{"reason"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_run_duration_seconds",
			Help:    "Wall time per completed crawl run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"reason"}),
	}
	for _, collector := range []prometheus.Collector{
		s.pagesFetched,
		s.pagesAbandoned,
		s.fetchBytes,
		s.fetchDuration,
		s.jobsEmitted,
		s.duplicates,
		s.challenges,
		s.retries,
		s.backoff,
		s.runsCompleted,
		s.runDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageFetch:
		s.handleFetch(evt)
	case progress.StageEmit:
		s.handleEmit(evt)
	case progress.StageChallenge:
		s.challenges.WithLabelValues(evt.Challenge).Inc()
	case progress.StageRetry:
		s.handleRetry(evt)
	case progress.StageComplete:
		s.handleComplete(evt)
	}
}

func (s *PrometheusSink) handleFetch(evt progress.Event) {
	kind := kindLabel(evt.Kind)
	statusClass := string(evt.StatusClass)
	if statusClass == "" {
		statusClass = string(progress.StatusOther)
	}
	s.pagesFetched.WithLabelValues(kind, statusClass).Inc()
	if evt.Outcome == progress.OutcomeAbandoned {
		s.pagesAbandoned.WithLabelValues(kind).Inc()
	}
	if evt.Bytes > 0 {
		s.fetchBytes.WithLabelValues(kind).Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.fetchDuration.WithLabelValues(kind, statusClass).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) handleEmit(evt progress.Event) {
	if evt.Outcome == progress.OutcomeDuplicate {
		s.duplicates.Inc()
		return
	}
	s.jobsEmitted.Inc()
}

func (s *PrometheusSink) handleRetry(evt progress.Event) {
	s.retries.WithLabelValues(kindLabel(evt.Kind)).Inc()
	if evt.Dur > 0 {
		s.backoff.Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) handleComplete(evt progress.Event) {
	reason := evt.Note
	if reason == "" {
		reason = "unknown"
	}
	s.runsCompleted.WithLabelValues(reason).Inc()
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(reason).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

func kindLabel(kind progress.PageKind) string {
	if kind == "" {
		return "unknown"
	}
	return string(kind)
}

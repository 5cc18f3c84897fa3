package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jobsweep/linkedin-crawler/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := "0190f8a2-0000-7000-8000-0000000000aa"
	now := time.Now()
	batch := []progress.Event{
		{
			RunID:       runID,
			TS:          now,
			Stage:       progress.StageFetch,
			Kind:        progress.KindListing,
			Page:        1,
			Bytes:       2048,
			StatusClass: progress.Status2xx,
			Dur:         200 * time.Millisecond,
		},
		{RunID: runID, TS: now, Stage: progress.StageEmit, JobKey: "4012345678"},
		{RunID: runID, TS: now, Stage: progress.StageEmit, JobKey: "4012345678", Outcome: progress.OutcomeDuplicate},
		{RunID: runID, TS: now, Stage: progress.StageChallenge, Challenge: "rate_limited", Kind: progress.KindDetail},
		{RunID: runID, TS: now, Stage: progress.StageRetry, Kind: progress.KindDetail, Attempt: 2, Dur: 90 * time.Second},
		{
			RunID:       runID,
			TS:          now,
			Stage:       progress.StageFetch,
			Kind:        progress.KindDetail,
			StatusClass: progress.Status4xx,
			Outcome:     progress.OutcomeAbandoned,
		},
		{RunID: runID, TS: now, Stage: progress.StageComplete, Note: "max_jobs_reached", Dur: 15 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.pagesFetched.WithLabelValues("listing", "2xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.pagesFetched.WithLabelValues("detail", "4xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.pagesAbandoned.WithLabelValues("detail")))
	require.Equal(t, 2048.0, testutil.ToFloat64(sink.fetchBytes.WithLabelValues("listing")))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.jobsEmitted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.duplicates))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.challenges.WithLabelValues("rate_limited")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.retries.WithLabelValues("detail")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("max_jobs_reached")))

	require.Equal(t, 1, testutil.CollectAndCount(sink.fetchDuration, "crawler_fetch_duration_seconds"))
	require.Equal(t, 1, testutil.CollectAndCount(sink.backoff, "crawler_backoff_seconds"))
	require.Equal(t, 1, testutil.CollectAndCount(sink.runDuration, "crawler_run_duration_seconds"))
}

// TestPrometheusSinkDuplicateRegistration ensures a second registration on the same registry fails cleanly.
func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	_, err = NewPrometheusSink(reg)
	require.ErrorContains(t, err, "register progress collector")
}

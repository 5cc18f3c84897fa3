package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
	"github.com/jobsweep/linkedin-crawler/internal/metrics"
)

type fakeSource struct {
	state   crawler.CrawlState
	summary crawler.CrawlSummary
	done    bool
}

func (f *fakeSource) State() crawler.CrawlState { return f.state }

func (f *fakeSource) LastSummary() (crawler.CrawlSummary, bool) { return f.summary, f.done }

func newTestServer(t *testing.T, source StatusSource, cfg Config) *httptest.Server {
	t.Helper()
	metrics.Init()
	srv := NewServer(source, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeSource{}, Config{})

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		resp.Body.Close()
	}
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		state: crawler.CrawlState{
			RunID:     "run-1",
			Phase:     crawler.PhaseRunning,
			PageCount: 2,
			JobCount:  17,
			StartedAt: time.Now().UTC(),
		},
	}
	ts := newTestServer(t, source, Config{})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state crawler.CrawlState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, "run-1", state.RunID)
	assert.Equal(t, crawler.PhaseRunning, state.Phase)
	assert.Equal(t, 17, state.JobCount)
}

func TestSummaryNotFoundBeforeCompletion(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeSource{}, Config{})

	resp, err := http.Get(ts.URL + "/api/v1/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSummaryAfterCompletion(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		summary: crawler.CrawlSummary{
			RunID:      "run-2",
			PageCount:  3,
			JobCount:   40,
			StopReason: crawler.StopReasonMaxJobs,
		},
		done: true,
	}
	ts := newTestServer(t, source, Config{})

	resp, err := http.Get(ts.URL + "/api/v1/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary crawler.CrawlSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, "run-2", summary.RunID)
	assert.Equal(t, crawler.StopReasonMaxJobs, summary.StopReason)
}

func TestAPIKeyAuth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeSource{}, Config{AuthEnabled: true, APIKey: "secret"})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/status", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/status?api_key=secret")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

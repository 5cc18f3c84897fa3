package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://www.linkedin.com/jobs", "www.linkedin.com"},
		{"standard https", "https://WWW.LinkedIn.com/jobs", "www.linkedin.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	httpRequestsTotal = nil
	httpRequestDurationSeconds = nil
	crawlerRunsActive = nil
	crawlerPaceDelaySeconds = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil ||
		crawlerRunsActive == nil || crawlerPaceDelaySeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// A simple check to see if a metric can be used.
	IncActiveRuns()
	if val := testutil.ToFloat64(crawlerRunsActive); val != 1 {
		t.Errorf("Expected crawlerRunsActive to be 1, got %f", val)
	}
	DecActiveRuns()
	if val := testutil.ToFloat64(crawlerRunsActive); val != 0 {
		t.Errorf("Expected crawlerRunsActive to be 0, got %f", val)
	}

	ObservePaceDelay("https://www.linkedin.com/jobs/view/1", 750*time.Millisecond)
	if val := testutil.CollectAndCount(crawlerPaceDelaySeconds); val <= 0 {
		t.Errorf("Expected crawlerPaceDelaySeconds to be observed, got %d", val)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://www.linkedin.com", "https://example.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}

// Package security implements the anti-detection posture for one crawl run:
// rotating browser identities, adaptive request pacing, and classification of
// hostile responses into retryable challenges.
package security

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// jobsReferer is presented from the second request on so navigation looks
// like it originated inside the jobs product.
const jobsReferer = "https://www.linkedin.com/jobs/"

// sanitizeMaxLen caps operator-supplied search terms.
const sanitizeMaxLen = 200

// userAgents is the fixed identity pool the manager rotates through.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:90.0) Gecko/20100101 Firefox/90.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36 Edg/91.0.864.59",
}

// Clock is the time source the manager consults for pacing decisions.
type Clock interface {
	Now() time.Time
}

// Kind labels a challenge classification.
type Kind string

// Challenge kinds, ordered roughly by hostility.
const (
	KindCheckpoint    Kind = "checkpoint"
	KindRateLimited   Kind = "rate_limited"
	KindAntiScraping  Kind = "anti_scraping"
	KindClientBlocked Kind = "client_blocked"
	KindServerError   Kind = "server_error"
	KindCaptcha       Kind = "captcha"
)

// Challenge describes a hostile response and the recommended backoff before
// the next attempt. All challenges are retryable up to the caller's cap.
type Challenge struct {
	Kind    Kind
	Backoff time.Duration
}

// backoffRange is a half-open interval of seconds.
type backoffRange struct {
	min, max int
}

var backoffRanges = map[Kind]backoffRange{
	KindCheckpoint:    {60, 120},
	KindRateLimited:   {300, 600},
	KindAntiScraping:  {120, 240},
	KindClientBlocked: {30, 60},
	KindServerError:   {60, 120},
	KindCaptcha:       {60, 120},
}

// State is a snapshot of the manager's run-scoped counters.
type State struct {
	RequestCount  int
	LastRequestAt time.Time
	BackoffUntil  time.Time
}

// Manager owns the SecurityState for one crawl run. All methods are safe for
// concurrent use, though the crawl loop drives them from a single goroutine.
type Manager struct {
	mu       sync.Mutex
	clock    Clock
	rng      *rand.Rand
	logger   *zap.Logger
	detector *ChallengeDetector

	requestCount  int
	lastRequestAt time.Time
	backoffUntil  time.Time
}

// New builds a Manager. A nil rng seeds one from the clock so production
// callers need not care; tests pass a fixed seed for determinism.
func New(clock Clock, rng *rand.Rand, logger *zap.Logger) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano())) //nolint:gosec // pacing jitter, not security
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		clock:    clock,
		rng:      rng,
		logger:   logger,
		detector: NewChallengeDetector(nil, nil),
	}
}

// NextHeaders builds the header set for the upcoming request: a rotated
// user agent, a browser-shaped Accept stanza, and the jobs referer once at
// least one request has gone out.
func (m *Manager) NextHeaders() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := http.Header{}
	h.Set("User-Agent", userAgents[m.rng.Intn(len(userAgents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Cache-Control", "max-age=0")
	h.Set("TE", "Trailers")
	if m.requestCount > 0 {
		h.Set("Referer", jobsReferer)
	}
	return h
}

// PaceDelay returns how long to wait before the next request. The tier grows
// with the number of requests already issued, and a burst penalty applies
// when the previous request went out less than a second ago.
func (m *Manager) PaceDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	var delay time.Duration
	switch {
	case m.requestCount < 5:
		delay = m.uniform(1, 3)
	case m.requestCount < 15:
		delay = m.uniform(3, 5)
	default:
		delay = m.uniform(5, 8)
	}
	if !m.lastRequestAt.IsZero() && m.clock.Now().Sub(m.lastRequestAt) < time.Second {
		delay += m.uniform(2, 4)
	}
	return delay
}

// RecordRequest notes that a request has been issued.
func (m *Manager) RecordRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount++
	m.lastRequestAt = m.clock.Now()
}

// MarkBackoff records that the run is pausing for d.
func (m *Manager) MarkBackoff(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backoffUntil = m.clock.Now().Add(d)
}

// Snapshot returns the current SecurityState.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		RequestCount:  m.requestCount,
		LastRequestAt: m.lastRequestAt,
		BackoffUntil:  m.backoffUntil,
	}
}

// Classify inspects a response and reports the challenge it represents, or
// nil for a clean response. finalURL is the post-redirect URL.
func (m *Manager) Classify(statusCode int, finalURL string, body []byte) *Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.Contains(finalURL, "checkpoint") {
		return m.challenge(KindCheckpoint)
	}
	switch {
	case statusCode == http.StatusTooManyRequests:
		return m.challenge(KindRateLimited)
	case statusCode == 999:
		return m.challenge(KindAntiScraping)
	case statusCode >= 500:
		return m.challenge(KindServerError)
	case statusCode >= 400:
		return m.challenge(KindClientBlocked)
	}
	if m.detector.Detect(body) {
		return m.challenge(KindCaptcha)
	}
	return nil
}

// SessionValid reports whether a session-verification redirect landed on an
// authenticated page. Landing on login or checkpoint means the cookies were
// rejected.
func (m *Manager) SessionValid(finalURL string) bool {
	lower := strings.ToLower(finalURL)
	return !strings.Contains(lower, "login") && !strings.Contains(lower, "checkpoint")
}

// Sanitize strips characters with HTML/JS significance from operator input
// and caps its length, so search terms can be embedded in URLs safely.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<', '>', '\'', '"', ';':
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	runes := []rune(out)
	if len(runes) > sanitizeMaxLen {
		return string(runes[:sanitizeMaxLen])
	}
	return out
}

func (m *Manager) challenge(kind Kind) *Challenge {
	r := backoffRanges[kind]
	return &Challenge{Kind: kind, Backoff: m.uniform(r.min, r.max)}
}

// uniform draws from [min, max) seconds. Callers hold m.mu.
func (m *Manager) uniform(min, max int) time.Duration {
	span := float64(max - min)
	sec := float64(min) + m.rng.Float64()*span
	return time.Duration(sec * float64(time.Second))
}

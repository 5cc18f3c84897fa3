package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/hash"
	"github.com/jobsweep/linkedin-crawler/internal/metrics"
	"github.com/jobsweep/linkedin-crawler/internal/progress"
	"github.com/jobsweep/linkedin-crawler/internal/security"
)

// SecurityAdvisor is the slice of the security manager the engine drives:
// header rotation, pacing, and challenge classification.
type SecurityAdvisor interface {
	NextHeaders() http.Header
	PaceDelay() time.Duration
	RecordRequest()
	MarkBackoff(time.Duration)
	Classify(statusCode int, finalURL string, body []byte) *security.Challenge
	SessionValid(finalURL string) bool
}

// Options configures one crawl run. Exactly one of Keywords(+Location),
// Company, or URLs selects the start mode; config validation upstream
// guarantees that.
type Options struct {
	Keywords   string
	Location   string
	Company    string
	URLs       []string
	MaxPages   int
	MaxJobs    int
	TimeFilter string
	Cookies    []*http.Cookie
	// SnapshotChallenges uploads challenge response bodies to the blob
	// store for postmortems.
	SnapshotChallenges bool
}

// Deps bundles the engine's collaborators. Progress and Blobs may be nil.
type Deps struct {
	Fetcher   Fetcher
	Extractor PageExtractor
	Security  SecurityAdvisor
	Sink      RecordSink
	Blobs     BlobStore
	Clock     Clock
	IDs       IDGenerator
	Retry     *ExponentialRetryPolicy
	Progress  progress.Emitter
	Logger    *zap.Logger
}

// Engine drives one crawl run: listing pages in ascending order, one
// in-flight request at a time, every card through the dedup and governor
// gates before its detail fetch and again before emission.
type Engine struct {
	opts Options
	deps Deps

	mu          sync.Mutex
	runID       string
	gov         *Governor
	lastSummary *CrawlSummary
}

// NewEngine constructs an Engine. Nil optional deps degrade to no-ops.
func NewEngine(opts Options, deps Deps) (*Engine, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case deps.Extractor == nil:
		return nil, errors.New("extractor is required")
	case deps.Security == nil:
		return nil, errors.New("security advisor is required")
	case deps.Sink == nil:
		return nil, errors.New("record sink is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	case deps.IDs == nil:
		return nil, errors.New("id generator is required")
	}
	if deps.Retry == nil {
		deps.Retry = NewExponentialRetryPolicy(3)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Engine{opts: opts, deps: deps}, nil
}

// State returns the current crawl snapshot for monitoring. Before the first
// run it reports an empty state.
func (e *Engine) State() CrawlState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gov == nil {
		return CrawlState{}
	}
	return e.gov.Snapshot()
}

// LastSummary returns the terminal summary of the most recent run.
func (e *Engine) LastSummary() (CrawlSummary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastSummary == nil {
		return CrawlSummary{}, false
	}
	return *e.lastSummary, true
}

// Run executes one crawl to completion and returns the terminal summary.
// Cancellation stops request issuance immediately; the record being
// extracted still flushes to the sink before Run returns.
func (e *Engine) Run(ctx context.Context) (CrawlSummary, error) {
	runID, err := e.deps.IDs.NewID()
	if err != nil {
		return CrawlSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	gov := NewGovernor(runID, e.opts.MaxPages, e.opts.MaxJobs, e.deps.Clock.Now())

	e.mu.Lock()
	e.runID = runID
	e.gov = gov
	e.mu.Unlock()

	metrics.IncActiveRuns()
	defer metrics.DecActiveRuns()

	logger := e.deps.Logger.With(zap.String("run_id", runID))
	logger.Info("crawl starting",
		zap.Int("max_pages", e.opts.MaxPages),
		zap.Int("max_jobs", e.opts.MaxJobs),
	)

	e.verifySession(ctx, logger)

	frontier := NewFrontier()
	if len(e.opts.URLs) > 0 {
		e.seedExplicit(gov, frontier, logger)
		e.drainFrontier(ctx, gov, frontier, logger)
	} else {
		e.crawlListings(ctx, gov, frontier, logger)
	}

	if ctx.Err() != nil {
		gov.Stop(StopReasonCancelled)
	}
	gov.Stop(StopReasonExhausted)

	summary := gov.Summary(e.deps.Clock.Now())
	e.mu.Lock()
	e.lastSummary = &summary
	e.mu.Unlock()

	e.emitEvent(progress.Event{
		RunID: runID,
		Stage: progress.StageComplete,
		Note:  string(summary.StopReason),
		Dur:   summary.FinishedAt.Sub(summary.StartedAt),
	})
	logger.Info("crawl complete",
		zap.Int("page_count", summary.PageCount),
		zap.Int("job_count", summary.JobCount),
		zap.String("stop_reason", string(summary.StopReason)),
	)
	return summary, nil
}

// verifySession probes the feed URL once when session cookies are present.
// Invalid cookies log a warning; the crawl continues unauthenticated.
func (e *Engine) verifySession(ctx context.Context, logger *zap.Logger) {
	if len(e.opts.Cookies) == 0 {
		return
	}
	delay := e.deps.Security.PaceDelay()
	metrics.ObservePaceDelay(SessionProbeURL, delay)
	e.deps.Clock.Sleep(ctx, delay)
	if ctx.Err() != nil {
		return
	}
	resp, err := e.deps.Fetcher.Fetch(ctx, FetchRequest{
		URL:     SessionProbeURL,
		Headers: e.deps.Security.NextHeaders(),
		Cookies: e.opts.Cookies,
	})
	e.deps.Security.RecordRequest()
	if err != nil {
		logger.Warn("session verification fetch failed", zap.Error(err))
		return
	}
	if !e.deps.Security.SessionValid(resp.URL) {
		logger.Warn("session cookies rejected, continuing unauthenticated",
			zap.String("final_url", resp.URL))
		return
	}
	logger.Info("session cookies verified")
}

// seedExplicit loads the configured URL list, keeping only job detail links
// and deduplicating by synthetic id.
func (e *Engine) seedExplicit(gov *Governor, frontier *Frontier, logger *zap.Logger) {
	for _, raw := range e.opts.URLs {
		if !IsJobViewURL(raw) {
			logger.Warn("skipping non-detail url", zap.String("url", raw))
			continue
		}
		key := e.deps.Extractor.FallbackID(raw)
		if !gov.Dedup().MarkIfNew(key) {
			continue
		}
		frontier.Push(DetailTarget{URL: raw, Key: key})
	}
}

// crawlListings walks search-result pages in ascending order. Page N+1 is
// requested only after page N's cards have been fully processed, which keeps
// the counters monotonic and the output ordered by discovery.
func (e *Engine) crawlListings(ctx context.Context, gov *Governor, frontier *Frontier, logger *zap.Logger) {
	keyword := e.opts.Keywords
	if keyword == "" {
		keyword = e.opts.Company
	}
	pageURL := BuildSearchURL(security.Sanitize(keyword), security.Sanitize(e.opts.Location), e.opts.TimeFilter)

	for page := 1; pageURL != "" && gov.AllowListing() && ctx.Err() == nil; page++ {
		resp, err := e.fetchPaced(ctx, gov, pageURL, progress.KindListing, page, "")
		if err != nil {
			logger.Warn("listing page abandoned", zap.Int("page", page), zap.Error(err))
			return
		}
		gov.RecordPage()

		listing, err := e.deps.Extractor.ParseListing(resp.Body, pageURL, page)
		if err != nil {
			logger.Warn("listing parse failed", zap.Int("page", page), zap.Error(err))
			return
		}
		if listing.UsedFallback {
			logger.Warn("card selectors missed, using anchor fallback", zap.Int("page", page))
		}
		e.emitEvent(progress.Event{
			RunID: gov.runID,
			Stage: progress.StageExtract,
			Kind:  progress.KindListing,
			Page:  page,
			URL:   pageURL,
			Count: len(listing.Cards),
		})

		e.enqueueCards(gov, frontier, listing.Cards)
		e.emitEvent(progress.Event{
			RunID: gov.runID,
			Stage: progress.StagePaginate,
			Page:  page,
			URL:   pageURL,
			Count: frontier.Len(),
		})

		e.drainFrontier(ctx, gov, frontier, logger)
		pageURL = listing.NextPage
	}
}

// enqueueCards applies the enqueue-time dedup gate. A card whose id was
// already seen, through any discovery path, never costs a fetch.
func (e *Engine) enqueueCards(gov *Governor, frontier *Frontier, cards []DetailTarget) {
	for _, card := range cards {
		key := card.Meta.JobID
		if key == "" {
			key = e.deps.Extractor.FallbackID(card.URL)
		}
		if !gov.Dedup().MarkIfNew(key) {
			e.emitEvent(progress.Event{
				RunID:   gov.runID,
				Stage:   progress.StageEmit,
				Kind:    progress.KindDetail,
				JobKey:  key,
				URL:     card.URL,
				Outcome: progress.OutcomeDuplicate,
			})
			continue
		}
		card.Key = key
		frontier.Push(card)
	}
}

// drainFrontier fetches queued detail pages until the frontier empties, the
// governor closes the gate, or the run is cancelled.
func (e *Engine) drainFrontier(ctx context.Context, gov *Governor, frontier *Frontier, logger *zap.Logger) {
	for ctx.Err() == nil && gov.AllowDetail() {
		target, ok := frontier.Pop()
		if !ok {
			return
		}
		e.processDetail(ctx, gov, target, logger)
	}
}

func (e *Engine) processDetail(ctx context.Context, gov *Governor, target DetailTarget, logger *zap.Logger) {
	resp, err := e.fetchPaced(ctx, gov, target.URL, progress.KindDetail, target.Meta.SourcePage, target.Key)
	if err != nil {
		logger.Warn("detail page abandoned", zap.String("url", target.URL), zap.Error(err))
		return
	}

	pageURL := resp.URL
	if pageURL == "" {
		pageURL = target.URL
	}
	record := e.deps.Extractor.BuildRecord(target.Meta, pageURL, resp.Body)

	// Emission gate: the resolved id can differ from the enqueue key when
	// the page revealed the real id behind a synthetic one. A record never
	// blocks on its own enqueue mark.
	if record.ID != target.Key && !gov.Dedup().MarkIfNew(record.ID) {
		e.emitEvent(progress.Event{
			RunID:   gov.runID,
			Stage:   progress.StageEmit,
			Kind:    progress.KindDetail,
			JobKey:  record.ID,
			URL:     target.URL,
			Outcome: progress.OutcomeDuplicate,
		})
		return
	}

	if err := e.deps.Sink.Emit(ctx, record); err != nil {
		logger.Error("record emit failed", zap.String("job_id", record.ID), zap.Error(err))
		return
	}
	gov.RecordJob()
	e.emitEvent(progress.Event{
		RunID:  gov.runID,
		Stage:  progress.StageEmit,
		Kind:   progress.KindDetail,
		JobKey: record.ID,
		URL:    record.Link,
	})
}

// fetchPaced issues one logical request: pacing delay, rotated headers, then
// classification. Challenges and network errors retry with their respective
// backoffs up to the shared attempt cap; past the cap the page is abandoned.
func (e *Engine) fetchPaced(
	ctx context.Context,
	gov *Governor,
	url string,
	kind progress.PageKind,
	page int,
	jobKey string,
) (FetchResponse, error) {
	maxAttempts := e.deps.Retry.MaxAttempts()
	var lastStatus progress.StatusClass = progress.StatusOther

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return FetchResponse{}, err
		}

		delay := e.deps.Security.PaceDelay()
		metrics.ObservePaceDelay(url, delay)
		e.deps.Clock.Sleep(ctx, delay)
		if err := ctx.Err(); err != nil {
			return FetchResponse{}, err
		}

		resp, err := e.deps.Fetcher.Fetch(ctx, FetchRequest{
			URL:     url,
			Headers: e.deps.Security.NextHeaders(),
			Cookies: e.opts.Cookies,
		})
		e.deps.Security.RecordRequest()

		if err != nil {
			if !e.deps.Retry.ShouldRetry(err, attempt) {
				break
			}
			backoff := e.deps.Retry.Backoff(attempt)
			e.emitEvent(progress.Event{
				RunID:   gov.runID,
				Stage:   progress.StageRetry,
				Kind:    kind,
				Page:    page,
				URL:     url,
				JobKey:  jobKey,
				Attempt: attempt,
				Dur:     backoff,
				Note:    err.Error(),
			})
			e.deps.Clock.Sleep(ctx, backoff)
			continue
		}

		lastStatus = progress.ClassifyStatus(resp.StatusCode)
		e.emitEvent(progress.Event{
			RunID:       gov.runID,
			Stage:       progress.StageFetch,
			Kind:        kind,
			Page:        page,
			URL:         url,
			JobKey:      jobKey,
			Bytes:       int64(len(resp.Body)),
			StatusClass: lastStatus,
			Dur:         resp.Duration,
		})

		challenge := e.deps.Security.Classify(resp.StatusCode, resp.URL, resp.Body)
		if challenge == nil {
			return resp, nil
		}

		e.emitEvent(progress.Event{
			RunID:     gov.runID,
			Stage:     progress.StageChallenge,
			Kind:      kind,
			Page:      page,
			URL:       url,
			Challenge: string(challenge.Kind),
			Dur:       challenge.Backoff,
		})
		e.snapshotChallenge(ctx, gov.runID, resp)

		if attempt >= maxAttempts {
			break
		}
		e.deps.Security.MarkBackoff(challenge.Backoff)
		e.emitEvent(progress.Event{
			RunID:   gov.runID,
			Stage:   progress.StageRetry,
			Kind:    kind,
			Page:    page,
			URL:     url,
			JobKey:  jobKey,
			Attempt: attempt,
			Dur:     challenge.Backoff,
			Note:    string(challenge.Kind),
		})
		e.deps.Clock.Sleep(ctx, challenge.Backoff)
	}

	e.emitEvent(progress.Event{
		RunID:       gov.runID,
		Stage:       progress.StageFetch,
		Kind:        kind,
		Page:        page,
		URL:         url,
		JobKey:      jobKey,
		StatusClass: lastStatus,
		Outcome:     progress.OutcomeAbandoned,
	})
	return FetchResponse{}, fmt.Errorf("abandoned %s after %d attempts", url, maxAttempts)
}

// snapshotChallenge uploads the hostile response body for postmortems.
func (e *Engine) snapshotChallenge(ctx context.Context, runID string, resp FetchResponse) {
	if !e.opts.SnapshotChallenges || e.deps.Blobs == nil || len(resp.Body) == 0 {
		return
	}
	path := fmt.Sprintf("snapshots/%s/%s.html", runID, hash.SHA256Hex(resp.Body)[:16])
	if _, err := e.deps.Blobs.PutObject(ctx, path, "text/html; charset=utf-8", resp.Body); err != nil {
		e.deps.Logger.Warn("challenge snapshot upload failed", zap.Error(err))
	}
}

func (e *Engine) emitEvent(evt progress.Event) {
	if e.deps.Progress == nil {
		return
	}
	if evt.TS.IsZero() {
		evt.TS = e.deps.Clock.Now()
	}
	e.deps.Progress.Emit(evt)
}

package crawler

import (
	"sync"
	"time"
)

// Governor enforces the page and job ceilings and owns the crawl state
// machine for one run. The crawl loop is its single writer; the mutex exists
// for readers like the status API.
//
// A ceiling of 0 means unlimited for that dimension. The record that crosses
// the job ceiling is kept: the governor flips to LimitReached only after the
// crossing emission has been counted.
type Governor struct {
	mu         sync.Mutex
	runID      string
	maxPages   int
	maxJobs    int
	phase      Phase
	pageCount  int
	jobCount   int
	startedAt  time.Time
	stopReason StopReason
	dedup      *DedupTracker
}

// NewGovernor creates a running governor with zeroed counters.
func NewGovernor(runID string, maxPages, maxJobs int, startedAt time.Time) *Governor {
	return &Governor{
		runID:     runID,
		maxPages:  maxPages,
		maxJobs:   maxJobs,
		phase:     PhaseRunning,
		startedAt: startedAt,
		dedup:     NewDedupTracker(),
	}
}

// Dedup returns the run's processed-id tracker.
func (g *Governor) Dedup() *DedupTracker {
	return g.dedup
}

// AllowListing reports whether another listing page may be fetched.
// Pagination requires headroom on both ceilings.
func (g *Governor) AllowListing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseStopped {
		return false
	}
	if g.maxPages > 0 && g.pageCount >= g.maxPages {
		return false
	}
	return g.jobHeadroomLocked()
}

// AllowDetail reports whether another detail page may be fetched.
func (g *Governor) AllowDetail() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseStopped {
		return false
	}
	return g.jobHeadroomLocked()
}

// RecordPage counts a fetched listing page and flips to LimitReached when
// the page ceiling is hit. Cards already enumerated on the final page are
// still processed.
func (g *Governor) RecordPage() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseStopped {
		return
	}
	g.pageCount++
	if g.maxPages > 0 && g.pageCount >= g.maxPages {
		g.limitLocked(StopReasonMaxPages)
	}
}

// RecordJob counts an emitted record and flips to LimitReached when the job
// ceiling is hit.
func (g *Governor) RecordJob() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseStopped {
		return
	}
	g.jobCount++
	if g.maxJobs > 0 && g.jobCount >= g.maxJobs {
		g.limitLocked(StopReasonMaxJobs)
	}
}

// Stop transitions the run to Stopped. The first reason recorded wins;
// cancellation overrides a limit reason because it ends the run earlier
// than the limit alone would have.
func (g *Governor) Stop(reason StopReason) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseStopped {
		return
	}
	g.phase = PhaseStopped
	if g.stopReason == "" || reason == StopReasonCancelled {
		g.stopReason = reason
	}
}

// Phase returns the current lifecycle phase.
func (g *Governor) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Snapshot returns the current CrawlState for monitoring.
func (g *Governor) Snapshot() CrawlState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return CrawlState{
		RunID:      g.runID,
		Phase:      g.phase,
		PageCount:  g.pageCount,
		JobCount:   g.jobCount,
		Processed:  g.dedup.Len(),
		StartedAt:  g.startedAt,
		StopReason: g.stopReason,
	}
}

// Summary assembles the terminal crawl-complete signal.
func (g *Governor) Summary(finishedAt time.Time) CrawlSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	reason := g.stopReason
	if reason == "" {
		reason = StopReasonExhausted
	}
	return CrawlSummary{
		RunID:      g.runID,
		PageCount:  g.pageCount,
		JobCount:   g.jobCount,
		StopReason: reason,
		StartedAt:  g.startedAt,
		FinishedAt: finishedAt,
	}
}

func (g *Governor) jobHeadroomLocked() bool {
	return g.maxJobs == 0 || g.jobCount < g.maxJobs
}

func (g *Governor) limitLocked(reason StopReason) {
	if g.phase == PhaseRunning {
		g.phase = PhaseLimitReached
	}
	if g.stopReason == "" {
		g.stopReason = reason
	}
}

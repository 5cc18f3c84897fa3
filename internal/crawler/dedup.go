package crawler

import "sync"

// DedupTracker records the job ids already enqueued or emitted during one
// run. It is consulted twice per record: once before a detail fetch is
// queued and again before emission, because the same job can surface via a
// search card and a company listing independently.
type DedupTracker struct {
	seen sync.Map
}

// NewDedupTracker returns an empty tracker.
func NewDedupTracker() *DedupTracker {
	return &DedupTracker{}
}

// MarkIfNew stores the id if it has not been seen before and returns true.
func (t *DedupTracker) MarkIfNew(id string) bool {
	if id == "" {
		return false
	}
	_, loaded := t.seen.LoadOrStore(id, struct{}{})
	return !loaded
}

// Seen reports whether the id was already tracked.
func (t *DedupTracker) Seen(id string) bool {
	if id == "" {
		return false
	}
	_, ok := t.seen.Load(id)
	return ok
}

// MarkSeen records the id. Marking an already-seen id is a no-op.
func (t *DedupTracker) MarkSeen(id string) {
	if id == "" {
		return
	}
	t.seen.LoadOrStore(id, struct{}{})
}

// Len returns the number of tracked ids.
func (t *DedupTracker) Len() int {
	n := 0
	t.seen.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

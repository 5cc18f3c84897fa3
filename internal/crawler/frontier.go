package crawler

import "sync"

// Frontier is the ordered queue of detail pages discovered but not yet
// fetched. Order in equals order out, which is what keeps emission order
// equal to discovery order.
type Frontier struct {
	mu    sync.Mutex
	items []DetailTarget
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{}
}

// Push appends a target.
func (f *Frontier) Push(t DetailTarget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, t)
}

// Pop removes and returns the oldest target. The second value is false when
// the frontier is empty.
func (f *Frontier) Pop() (DetailTarget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return DetailTarget{}, false
	}
	t := f.items[0]
	f.items = f.items[1:]
	return t, true
}

// Len returns the number of queued targets.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Package memory provides an in-memory RecordSink for tests.
package memory

import (
	"context"
	"sync"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// Sink records emitted JobRecords for inspection.
type Sink struct {
	mu      sync.RWMutex
	records []crawler.JobRecord
	closed  bool
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{}
}

// Emit appends the record.
func (s *Sink) Emit(_ context.Context, record crawler.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Close marks the sink closed.
func (s *Sink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Records returns a copy of the emitted records in arrival order.
func (s *Sink) Records() []crawler.JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]crawler.JobRecord(nil), s.records...)
}

// Closed reports whether Close was called.
func (s *Sink) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

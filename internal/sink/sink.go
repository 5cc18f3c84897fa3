// Package sink contains the RecordSink implementations that consume the
// ordered JobRecord sequence produced by a crawl run.
package sink

import (
	"context"
	"errors"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// Multi fans every record out to each child sink in order. An error from one
// child does not stop delivery to the rest; the errors are joined.
type Multi struct {
	sinks []crawler.RecordSink
}

// NewMulti builds a fan-out sink.
func NewMulti(sinks ...crawler.RecordSink) *Multi {
	return &Multi{sinks: sinks}
}

// Emit delivers the record to every child.
func (m *Multi) Emit(ctx context.Context, record crawler.JobRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every child.
func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

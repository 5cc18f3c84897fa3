package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// PageExtractor turns fetched documents into structured results. ParseListing
// enumerates cards and the pagination link; BuildRecord reconciles a detail
// page into a JobRecord and never fails; FallbackID derives the synthetic
// dedup id for a link whose card carried no real id.
type PageExtractor interface {
	ParseListing(body []byte, pageURL string, page int) (*ListingPage, error)
	BuildRecord(meta ReferrerMeta, pageURL string, body []byte) JobRecord
	FallbackID(link string) string
}

// RecordSink consumes the ordered JobRecord sequence. Emit is called in
// discovery order; Close flushes whatever the sink buffers.
type RecordSink interface {
	Emit(ctx context.Context, record JobRecord) error
	Close(ctx context.Context) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock supplies time and cancellable sleeps (injectable for testing).
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

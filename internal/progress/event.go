// Package progress defines the event structures emitted over the life of a
// crawl run.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageFetch     Stage = "fetch"
	StageExtract   Stage = "extract"
	StageEmit      Stage = "emit"
	StagePaginate  Stage = "paginate"
	StageChallenge Stage = "challenge"
	StageRetry     Stage = "retry"
	StageComplete  Stage = "complete"
)

// PageKind distinguishes search-result listing pages from job detail pages.
type PageKind string

// Supported page kinds.
const (
	KindListing PageKind = "listing"
	KindDetail  PageKind = "detail"
)

// Outcome values refine emit and fetch stages beyond plain success.
const (
	OutcomeDuplicate = "duplicate"
	OutcomeAbandoned = "abandoned"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for fetch completions.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of a crawl run.
type Event struct {
	// RunID identifies the crawl run that produced the event.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Kind scopes fetch, extract, and retry events to a page kind.
	Kind PageKind
	// Page is the 1-based listing page ordinal, where applicable.
	Page int
	// URL is the optional page URL; it should not contain credentials.
	URL string
	// JobKey is the dedup identity of the job a detail event concerns.
	JobKey string
	// Bytes carries the response size for fetch events.
	Bytes int64
	// Count carries the number of units produced, e.g. cards per listing.
	Count int
	// StatusClass groups HTTP response codes (2xx, 3xx, etc).
	StatusClass StatusClass
	// Attempt is the 1-based attempt number for retry events.
	Attempt int
	// Challenge names the challenge classification for challenge events.
	Challenge string
	// Outcome refines the result: OutcomeDuplicate for suppressed emits,
	// OutcomeAbandoned for fetches given up after the attempt cap.
	Outcome string
	// Dur captures fetch latency, retry backoff, or total run wall time.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageFetch:
		if e.Kind == "" {
			return errors.New("fetch requires page kind")
		}
		if e.StatusClass == "" {
			return errors.New("fetch requires status class")
		}
	case StageExtract:
		if e.Kind == "" {
			return errors.New("extract requires page kind")
		}
	case StageEmit:
		if e.JobKey == "" {
			return errors.New("emit requires job key")
		}
	case StagePaginate:
		if e.Page < 1 {
			return errors.New("paginate requires page ordinal")
		}
	case StageChallenge:
		if e.Challenge == "" {
			return errors.New("challenge requires challenge kind")
		}
	case StageRetry:
		if e.Attempt < 1 {
			return errors.New("retry requires attempt number")
		}
	case StageComplete:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// ClassifyStatus groups HTTP status codes for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}

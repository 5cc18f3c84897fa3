// Package crawler defines core types shared across subsystems.
package crawler

import (
	"encoding/json"
	"net/http"
	"time"
)

// TimeLayout is the wall-clock layout job records carry on the wire.
const TimeLayout = "2006-01-02T15:04:05"

// Source identifies where every record originates.
const Source = "linkedin"

// Phase is the governor-owned crawl lifecycle state.
type Phase string

// Crawl phases. A run is never resurrected once stopped.
const (
	PhaseRunning      Phase = "running"
	PhaseLimitReached Phase = "limit_reached"
	PhaseStopped      Phase = "stopped"
)

// StopReason explains why a run ended.
type StopReason string

// Stop reasons carried on the crawl-complete signal.
const (
	StopReasonMaxJobs   StopReason = "max_jobs_reached"
	StopReasonMaxPages  StopReason = "max_pages_reached"
	StopReasonExhausted StopReason = "frontier_exhausted"
	StopReasonCancelled StopReason = "cancelled"
)

// JobRecord is one normalized job listing. The canonical names and their
// legacy aliases are both populated on the wire so downstream consumers of
// either generation keep working; Extra carries optional enrichment fields
// and is flattened into the same JSON object.
type JobRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title,omitempty"`
	CompanyName     string `json:"companyName,omitempty"`
	Location        string `json:"location,omitempty"`
	Link            string `json:"link,omitempty"`
	DescriptionText string `json:"descriptionText,omitempty"`
	EmploymentType  string `json:"employment_type,omitempty"`
	SeniorityLevel  string `json:"seniority_level,omitempty"`
	PostedAt        string `json:"postedAt,omitempty"`
	ScrapedAt       string `json:"scraped_at"`
	Source          string `json:"source,omitempty"`
	SourceID        string `json:"sourceId,omitempty"`

	// Legacy aliases, kept in lockstep with the canonical fields above.
	LegacyJobID       string `json:"job_id,omitempty"`
	LegacyTitle       string `json:"job_title,omitempty"`
	LegacyCompany     string `json:"company_name,omitempty"`
	LegacyURL         string `json:"job_url,omitempty"`
	LegacyDescription string `json:"job_description,omitempty"`
	LegacyPostedAt    string `json:"date_posted,omitempty"`

	Extra map[string]any `json:"-"`
}

// jobRecordAlias sidesteps MarshalJSON recursion.
type jobRecordAlias JobRecord

// MarshalJSON flattens Extra into the record object. Named fields win on
// key collisions.
func (r JobRecord) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(jobRecordAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// SetExtra records an enrichment field, allocating the map on first use.
// Empty-string and nil values are dropped.
func (r *JobRecord) SetExtra(key string, value any) {
	if value == nil {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]any)
	}
	r.Extra[key] = value
}

// ReferrerMeta carries listing-card values forward to the detail fetch, to
// be used as fallbacks when detail extraction misses. PostedAt holds the
// card's machine-readable datetime attribute; RelativeTime holds the human
// text ("2 days ago") for when the attribute was absent.
type ReferrerMeta struct {
	JobID        string
	Title        string
	CompanyName  string
	Location     string
	PostedAt     string
	RelativeTime string
	CompanyLogo  string
	SourcePage   int
}

// DetailTarget is one queued detail-page fetch with its carried meta. Key is
// the dedup identity the target was enqueued under: the card's job id when
// one was visible, else the synthetic link id.
type DetailTarget struct {
	URL  string
	Key  string
	Meta ReferrerMeta
}

// ListingPage is the parsed form of one search-results document. Cards keep
// document order; NextPage is empty on the last page. UsedFallback reports
// that every card selector missed and discovery degraded to bare anchors.
type ListingPage struct {
	Cards        []DetailTarget
	NextPage     string
	UsedFallback bool
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
	Cookies []*http.Cookie
}

// FetchResponse is the result returned by a Fetcher implementation. URL is
// the final URL after redirects, which challenge classification inspects.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// CrawlState is the monitoring snapshot of one run.
type CrawlState struct {
	RunID      string     `json:"runId"`
	Phase      Phase      `json:"phase"`
	PageCount  int        `json:"pageCount"`
	JobCount   int        `json:"jobCount"`
	Processed  int        `json:"processedIds"`
	StartedAt  time.Time  `json:"startedAt"`
	StopReason StopReason `json:"stopReason,omitempty"`
}

// CrawlSummary is the terminal crawl-complete signal.
type CrawlSummary struct {
	RunID        string     `json:"runId"`
	PageCount    int        `json:"pageCount"`
	JobCount     int        `json:"jobCount"`
	StopReason   StopReason `json:"stopReason"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   time.Time  `json:"finishedAt"`
	DatasetFiles []string   `json:"datasetFiles,omitempty"`
}

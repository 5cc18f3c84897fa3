package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
	"github.com/jobsweep/linkedin-crawler/internal/hash"
)

// FallbackIDPrefix marks ids synthesized from the URL hash so downstream
// consumers can tell them from real posting ids.
const FallbackIDPrefix = "gen-"

// urlIDPatterns are tried in order against the page URL and again against
// the canonical link. The long-digit suffix heuristic covers slug URLs
// where the id trails the title.
var urlIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`view/(\d+)`),
	regexp.MustCompile(`currentJobId=(\d+)`),
	regexp.MustCompile(`jobId=(\d+)`),
	regexp.MustCompile(`jobs/(\d+)`),
	regexp.MustCompile(`-(\d{10,})`),
	regexp.MustCompile(`linkedin\.com/jobs/search/.*?(?:viewJob=|jobId=)(\d+)`),
}

// jsonIDPaths are probed against the embedded JSON in order.
var jsonIDPaths = []string{
	"data.jobPostingInfo.jobPostingId",
	"jobPostingInfo.jobPostingId",
	"data.jobPostingId",
	"jobPostingId",
	"data.jobData.jobPostingId",
	"jobData.jobPostingId",
	"entityUrn",
}

var (
	reInlineJobID = regexp.MustCompile(`"jobPostingId"\s*:\s*"?(\d+)`)
	reDigitRun    = regexp.MustCompile(`\d+`)
)

// ResolveJobID derives a stable id for a detail page. The strategy chain is
// ordered by trustworthiness; the URL-hash fallback at the end makes it
// total, so two fetches of the same page always agree on the id even when
// every real source misses.
func ResolveJobID(meta crawler.ReferrerMeta, pageURL string, doc *goquery.Document, embedded map[string]any) string {
	if meta.JobID != "" {
		return meta.JobID
	}
	if id := matchURLID(pageURL); id != "" {
		return id
	}
	if doc != nil {
		if id := attributeID(doc); id != "" {
			return id
		}
		if canonical, ok := doc.Find(canonicalLinkSelector).Attr("href"); ok {
			if id := matchURLID(canonical); id != "" {
				return id
			}
		}
	}
	if id := jsonID(embedded); id != "" {
		return id
	}
	if doc != nil {
		if id := inlineScriptID(doc); id != "" {
			return id
		}
	}
	return FallbackID(pageURL)
}

// FallbackID hashes the normalized URL into a synthetic id. Deterministic:
// the same URL always yields the same id, which keeps deduplication correct
// for postings that never expose a real one.
func FallbackID(pageURL string) string {
	normalized, err := crawler.NormalizeURL(pageURL)
	if err != nil || normalized == "" {
		normalized = pageURL
	}
	return FallbackIDPrefix + hash.ShortMD5Hex(normalized, 10)
}

// matchURLID runs the URL patterns in order and returns the first capture.
func matchURLID(u string) string {
	if u == "" {
		return ""
	}
	for _, pat := range urlIDPatterns {
		if m := pat.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}
	return ""
}

// attributeID reads the structural id markers some page generations stamp
// on the job root element.
func attributeID(doc *goquery.Document) string {
	if v, ok := doc.Find("[data-job-id]").First().Attr("data-job-id"); ok {
		if id := reDigitRun.FindString(v); id != "" {
			return id
		}
	}
	if v, ok := doc.Find("[data-entity-urn]").First().Attr("data-entity-urn"); ok {
		if id := trailingURNSegment(v); id != "" {
			return id
		}
	}
	return ""
}

func jsonID(embedded map[string]any) string {
	for _, path := range jsonIDPaths {
		v, ok := LookupPath(embedded, path)
		if !ok {
			continue
		}
		if id := idFromValue(v); id != "" {
			return id
		}
	}
	return ""
}

// idFromValue renders a JSON value as an id. URN-style strings like
// "urn:li:jobPosting:12345" keep only the trailing segment.
func idFromValue(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case string:
		if t == "" || !reDigitRun.MatchString(t) {
			return ""
		}
		if strings.Contains(t, ":") {
			return trailingURNSegment(t)
		}
		return t
	}
	return ""
}

func trailingURNSegment(urn string) string {
	seg := urn[strings.LastIndex(urn, ":")+1:]
	if !reDigitRun.MatchString(seg) {
		return ""
	}
	return seg
}

// inlineScriptID scans raw script text for an id token when every
// structured source missed.
func inlineScriptID(doc *goquery.Document) string {
	var id string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := reInlineJobID.FindStringSubmatch(sel.Text()); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id
}

package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// searchBase is the public jobs search endpoint.
const searchBase = "https://www.linkedin.com/jobs/search/"

// SessionProbeURL is fetched once at startup to verify session cookies; an
// invalid session redirects it to login or checkpoint.
const SessionProbeURL = "https://www.linkedin.com/feed/"

// NormalizeURL standardizes a URL to avoid duplicates.
// It lowercases the scheme and host, removes default ports, and sorts query parameters.
// It also removes fragments.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	// Lowercase scheme and host
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	// Remove fragment
	u.Fragment = ""

	// Sort query parameters
	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// BuildSearchURL assembles the listing URL for a keyword/location search.
// timeFilter is the f_TPR code (r86400 = posted in the past 24 hours).
func BuildSearchURL(keywords, location, timeFilter string) string {
	q := url.Values{}
	q.Set("keywords", keywords)
	if location != "" {
		q.Set("location", location)
	}
	if timeFilter != "" {
		q.Set("f_TPR", timeFilter)
	}
	q.Set("position", "1")
	q.Set("pageNum", "0")
	return searchBase + "?" + q.Encode()
}

// IsJobViewURL reports whether u points at a job detail page. Explicit URL
// lists are filtered through this before seeding the frontier.
func IsJobViewURL(u string) bool {
	return strings.Contains(u, "linkedin.com/jobs/view")
}

// AbsoluteURL resolves href against base. Unparsable input returns "".
func AbsoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}

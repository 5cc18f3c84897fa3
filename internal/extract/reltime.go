package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// Relative-time vocabulary. Singular stems match the plural forms too.
var (
	reMinutesAgo = regexp.MustCompile(`(\d+)\s+minute`)
	reHoursAgo   = regexp.MustCompile(`(\d+)\s+hour`)
	reDaysAgo    = regexp.MustCompile(`(\d+)\s+day`)
	reWeeksAgo   = regexp.MustCompile(`(\d+)\s+week`)
	reMonthsAgo  = regexp.MustCompile(`(\d+)\s+month`)
)

// ParseRelativeTime estimates a posting timestamp from text like
// "5 hours ago" or "2 days ago". A month approximates to 30 days.
// Unrecognized input returns ok=false so the caller falls through to the
// next source instead of inheriting a wrong guess.
func ParseRelativeTime(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}
	if m := reMinutesAgo.FindStringSubmatch(text); m != nil {
		return now.Add(-durationOf(m[1], time.Minute)), true
	}
	if m := reHoursAgo.FindStringSubmatch(text); m != nil {
		return now.Add(-durationOf(m[1], time.Hour)), true
	}
	if m := reDaysAgo.FindStringSubmatch(text); m != nil {
		return now.Add(-durationOf(m[1], 24*time.Hour)), true
	}
	if m := reWeeksAgo.FindStringSubmatch(text); m != nil {
		return now.Add(-durationOf(m[1], 7*24*time.Hour)), true
	}
	if m := reMonthsAgo.FindStringSubmatch(text); m != nil {
		return now.Add(-durationOf(m[1], 30*24*time.Hour)), true
	}
	switch {
	case strings.Contains(text, "just now"), strings.Contains(text, "just posted"):
		return now, true
	case strings.Contains(text, "yesterday"):
		return now.Add(-24 * time.Hour), true
	}
	return time.Time{}, false
}

func durationOf(digits string, unit time.Duration) time.Duration {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return time.Duration(n) * unit
}

// FormatTimestamp coerces a date value found in markup or embedded JSON to
// the wire layout. It accepts ISO-8601 strings with or without a zone,
// bare dates, and epoch-millisecond numbers. Bare relative text falls back
// to now; unusable values come back empty.
func FormatTimestamp(value any, now time.Time) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(crawler.TimeLayout)
	case string:
		if v == "" {
			return ""
		}
		if t, ok := parseTimestampString(v); ok {
			return t.Format(crawler.TimeLayout)
		}
		if strings.Contains(v, "T") {
			// Looked like ISO but did not parse; better absent than wrong.
			return ""
		}
		return now.Format(crawler.TimeLayout)
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			return time.UnixMilli(ms).UTC().Format(crawler.TimeLayout)
		}
		if f, err := v.Float64(); err == nil {
			return time.UnixMilli(int64(f)).UTC().Format(crawler.TimeLayout)
		}
		return ""
	case int64:
		return time.UnixMilli(v).UTC().Format(crawler.TimeLayout)
	case int:
		return time.UnixMilli(int64(v)).UTC().Format(crawler.TimeLayout)
	case float64:
		return time.UnixMilli(int64(v)).UTC().Format(crawler.TimeLayout)
	}
	return ""
}

func parseTimestampString(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, crawler.TimeLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

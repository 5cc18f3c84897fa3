package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// islandPatterns locate JSON objects inlined into script and code blocks.
// The capture group is the object literal; a trailing semicolon anchors the
// end of the statement so lazy matching stops at the right brace.
var islandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)(\{"data":\{"jobPostingInfo":.*?\});`),
	regexp.MustCompile(`(?s)(\{"data":\{"companyInfo":.*?\});`),
	regexp.MustCompile(`(?s)(\{"data":\{"jobData":.*?\});`),
	regexp.MustCompile(`(?s)window\.INITIAL_STATE\s*=\s*(\{.*?\});`),
	regexp.MustCompile(`(?s)(\{[^{}]*?"jobPostingId":.*?\});`),
	regexp.MustCompile(`(?s)(\{[^{}]*?"companyId":.*?\});`),
}

// EmbeddedJSON collects the JSON islands found in a document's script and
// code blocks and shallow-merges them, later patterns overriding keys set
// by earlier ones. Malformed islands are skipped. The result may be empty
// but is never nil.
func EmbeddedJSON(doc *goquery.Document) map[string]any {
	merged := make(map[string]any)
	if doc == nil {
		return merged
	}
	doc.Find("script, code").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if text == "" {
			return
		}
		for _, pat := range islandPatterns {
			m := pat.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			island, err := decodeIsland(m[1])
			if err != nil {
				continue
			}
			for k, v := range island {
				merged[k] = v
			}
		}
	})
	return merged
}

// decodeIsland parses one object keeping numbers as json.Number, so ids
// never pick up exponent or decimal artifacts on the way through.
func decodeIsland(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var island map[string]any
	if err := dec.Decode(&island); err != nil {
		return nil, err
	}
	return island, nil
}

// LookupPath walks a dotted path through nested objects. ok is false when
// any segment is missing or not an object.
func LookupPath(data map[string]any, path string) (any, bool) {
	if len(data) == 0 || path == "" {
		return nil, false
	}
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, isMap := current.(map[string]any)
		if !isMap {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}

// jobDataPaths are the locations pages embed the posting object under,
// probed in order.
var jobDataPaths = []string{
	"data.jobPostingInfo",
	"jobPostingInfo",
	"data.jobData",
	"jobData",
}

// JobData returns the posting object from whichever path the page embedded
// it under, or nil when none is present.
func JobData(embedded map[string]any) map[string]any {
	for _, path := range jobDataPaths {
		v, ok := LookupPath(embedded, path)
		if !ok {
			continue
		}
		if m, isMap := v.(map[string]any); isMap {
			return m
		}
	}
	return nil
}

// jsonString reads a string field out of a JSON object, empty on any miss.
func jsonString(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

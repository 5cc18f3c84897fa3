package security

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// defaultMarkers are the text fragments that betray a verification wall even
// when it arrives with a 200.
var defaultMarkers = []string{
	"captcha",
	"security verification",
	"verify you are a human",
	"unusual activity",
	"automated access",
	"prove you're not a robot",
}

// defaultSelectors are structural signals of the checkpoint interstitial.
var defaultSelectors = []string{
	"#captcha-internal",
	"form[action*='checkpoint']",
	"input[name='captcha']",
}

// ChallengeDetector inspects response bodies for CAPTCHA and verification
// walls using cheap text markers first and DOM selectors second.
type ChallengeDetector struct {
	markers   [][]byte
	selectors []string
}

// NewChallengeDetector builds a detector. Nil slices select the defaults.
func NewChallengeDetector(markers, selectors []string) *ChallengeDetector {
	if markers == nil {
		markers = defaultMarkers
	}
	if selectors == nil {
		selectors = defaultSelectors
	}
	lowered := make([][]byte, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(m)))
	}
	return &ChallengeDetector{markers: lowered, selectors: selectors}
}

// Detect reports whether the body looks like a verification wall. A body
// that fails to parse is not treated as a challenge; the status-code path
// already covers hard failures.
func (d *ChallengeDetector) Detect(body []byte) bool {
	if d == nil || len(body) == 0 {
		return false
	}
	if d.containsMarker(body) {
		return true
	}
	return d.matchesSelector(body)
}

func (d *ChallengeDetector) containsMarker(body []byte) bool {
	if len(d.markers) == 0 {
		return false
	}
	lowerBody := bytes.ToLower(body)
	for _, m := range d.markers {
		if bytes.Contains(lowerBody, m) {
			return true
		}
	}
	return false
}

func (d *ChallengeDetector) matchesSelector(body []byte) bool {
	if len(d.selectors) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	for _, sel := range d.selectors {
		if sel == "" {
			continue
		}
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

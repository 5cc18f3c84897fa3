package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectorTextMarkers(t *testing.T) {
	t.Parallel()

	d := NewChallengeDetector(nil, nil)
	require.True(t, d.Detect([]byte("<p>We detected unusual activity from your network.</p>")))
	require.True(t, d.Detect([]byte("<p>VERIFY YOU ARE A HUMAN</p>")), "marker match is case-insensitive")
	require.False(t, d.Detect([]byte("<p>Senior Backend Engineer (Go)</p>")))
	require.False(t, d.Detect(nil))
}

func TestDetectorSelectors(t *testing.T) {
	t.Parallel()

	d := NewChallengeDetector([]string{}, nil)
	page := `<html><body><form action="/checkpoint/challenge?x=1"><input type="text"></form></body></html>`
	require.True(t, d.Detect([]byte(page)))
	require.False(t, d.Detect([]byte("<html><body><div class='job'>ok</div></body></html>")))
}

func TestDetectorCustomMarkers(t *testing.T) {
	t.Parallel()

	d := NewChallengeDetector([]string{"access denied", "  "}, []string{})
	require.True(t, d.Detect([]byte("Access Denied by policy")))
	require.False(t, d.Detect([]byte("granted")))
}

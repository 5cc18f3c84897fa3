package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

func TestResolveJobIDPrefersReferrer(t *testing.T) {
	t.Parallel()

	meta := crawler.ReferrerMeta{JobID: "111"}
	got := ResolveJobID(meta, "https://www.linkedin.com/jobs/view/222", nil, nil)
	require.Equal(t, "111", got)
}

func TestResolveJobIDFromURLPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "view path",
			url:  "https://www.linkedin.com/jobs/view/4012345678",
			want: "4012345678",
		},
		{
			name: "currentJobId query",
			url:  "https://www.linkedin.com/jobs/collections/recommended/?currentJobId=3987654321",
			want: "3987654321",
		},
		{
			name: "jobId query",
			url:  "https://www.linkedin.com/comm/jobs/something?jobId=123456",
			want: "123456",
		},
		{
			name: "bare jobs path",
			url:  "https://www.linkedin.com/jobs/987654321",
			want: "987654321",
		},
		{
			name: "slug with trailing id",
			url:  "https://www.linkedin.com/jobs/view/senior-go-engineer-at-acme-4012345678",
			want: "4012345678",
		},
		{
			name: "search viewJob param",
			url:  "https://www.linkedin.com/jobs/search/?keywords=go&viewJob=555666777",
			want: "555666777",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveJobID(crawler.ReferrerMeta{}, tt.url, nil, nil)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveJobIDFromDataAttribute(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<div class="job-view-layout" data-job-id="314159265">x</div>`)
	got := ResolveJobID(crawler.ReferrerMeta{}, "https://example.com/posting", doc, nil)
	require.Equal(t, "314159265", got)
}

func TestResolveJobIDFromEntityURN(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<li data-entity-urn="urn:li:jobPosting:271828182">x</li>`)
	got := ResolveJobID(crawler.ReferrerMeta{}, "https://example.com/posting", doc, nil)
	require.Equal(t, "271828182", got)
}

func TestResolveJobIDFromCanonicalLink(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<head><link rel="canonical" href="https://www.linkedin.com/jobs/view/161803398"></head>`)
	got := ResolveJobID(crawler.ReferrerMeta{}, "https://lnkd.in/shortened", doc, nil)
	require.Equal(t, "161803398", got)
}

func TestResolveJobIDFromEmbeddedJSON(t *testing.T) {
	t.Parallel()

	embedded := map[string]any{
		"data": map[string]any{
			"jobPostingInfo": map[string]any{"jobPostingId": "577215664"},
		},
	}
	got := ResolveJobID(crawler.ReferrerMeta{}, "https://example.com/posting", nil, embedded)
	require.Equal(t, "577215664", got)
}

func TestResolveJobIDFromURNValue(t *testing.T) {
	t.Parallel()

	embedded := map[string]any{"entityUrn": "urn:li:jobPosting:141421356"}
	got := ResolveJobID(crawler.ReferrerMeta{}, "https://example.com/posting", nil, embedded)
	require.Equal(t, "141421356", got)
}

func TestResolveJobIDFromInlineScript(t *testing.T) {
	t.Parallel()

	// The script carries no decodable island, only a raw token.
	doc := parseDoc(t, `<script>config.push("jobPostingId" : "173205080")</script>`)
	got := ResolveJobID(crawler.ReferrerMeta{}, "https://example.com/posting", doc, nil)
	require.Equal(t, "173205080", got)
}

func TestResolveJobIDFallbackIsDeterministic(t *testing.T) {
	t.Parallel()

	url := "https://example.com/no-id-here"
	first := ResolveJobID(crawler.ReferrerMeta{}, url, nil, nil)
	second := ResolveJobID(crawler.ReferrerMeta{}, url, nil, nil)
	require.Equal(t, first, second)
	require.True(t, strings.HasPrefix(first, FallbackIDPrefix))
	require.Len(t, first, len(FallbackIDPrefix)+10)
}

func TestFallbackIDNormalizesURL(t *testing.T) {
	t.Parallel()

	a := FallbackID("https://example.com/posting?b=2&a=1")
	b := FallbackID("HTTPS://EXAMPLE.COM:443/posting?a=1&b=2#frag")
	require.Equal(t, a, b)
}

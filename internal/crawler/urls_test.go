package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://WWW.LinkedIn.com/jobs/view/123",
			want: "https://www.linkedin.com/jobs/view/123",
		},
		{
			name: "strips default https port",
			in:   "https://www.linkedin.com:443/jobs/view/123",
			want: "https://www.linkedin.com/jobs/view/123",
		},
		{
			name: "strips fragment",
			in:   "https://www.linkedin.com/jobs/view/123#apply",
			want: "https://www.linkedin.com/jobs/view/123",
		},
		{
			name: "sorts query parameters",
			in:   "https://www.linkedin.com/jobs/search/?location=Remote&keywords=go",
			want: "https://www.linkedin.com/jobs/search/?keywords=go&location=Remote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURLEquivalentFormsCollide(t *testing.T) {
	t.Parallel()

	a, err := NormalizeURL("https://www.linkedin.com/jobs/view/999?b=2&a=1")
	require.NoError(t, err)
	b, err := NormalizeURL("HTTPS://WWW.LINKEDIN.COM:443/jobs/view/999?a=1&b=2#x")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestBuildSearchURL(t *testing.T) {
	t.Parallel()

	u := BuildSearchURL("golang developer", "San Francisco", "r86400")
	require.Contains(t, u, "https://www.linkedin.com/jobs/search/?")
	require.Contains(t, u, "keywords=golang+developer")
	require.Contains(t, u, "location=San+Francisco")
	require.Contains(t, u, "f_TPR=r86400")
	require.Contains(t, u, "position=1")
	require.Contains(t, u, "pageNum=0")
}

func TestBuildSearchURLOmitsEmptyFilters(t *testing.T) {
	t.Parallel()

	u := BuildSearchURL("golang", "", "")
	require.NotContains(t, u, "location=")
	require.NotContains(t, u, "f_TPR=")
}

func TestIsJobViewURL(t *testing.T) {
	t.Parallel()

	require.True(t, IsJobViewURL("https://www.linkedin.com/jobs/view/4012345678"))
	require.False(t, IsJobViewURL("https://www.linkedin.com/jobs/search/?keywords=go"))
	require.False(t, IsJobViewURL("https://example.com/jobs/view/1"))
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	base := "https://www.linkedin.com/jobs/search/?keywords=go"
	require.Equal(t,
		"https://www.linkedin.com/jobs/view/123",
		AbsoluteURL(base, "/jobs/view/123"))
	require.Equal(t,
		"https://www.linkedin.com/jobs/view/123",
		AbsoluteURL(base, "https://www.linkedin.com/jobs/view/123"))
	require.Empty(t, AbsoluteURL(base, ""))
}

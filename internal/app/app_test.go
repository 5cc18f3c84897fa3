package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsweep/linkedin-crawler/internal/config"
)

func TestNewWiresConfiguredProviders(t *testing.T) {
	cfg := config.Config{
		Crawl: config.CrawlConfig{
			URLs:     []string{"https://www.linkedin.com/jobs/view/123"},
			MaxPages: 1,
		},
		Security:  config.SecurityConfig{MaxAttempts: 3},
		HTTP:      config.HTTPConfig{TimeoutSeconds: 10},
		Output:    config.OutputConfig{Dir: t.TempDir()},
		Storage:   config.StorageConfig{Provider: "local", LocalDir: t.TempDir()},
		DB:        config.DBConfig{Provider: "noop"},
		Publisher: config.PublisherConfig{Provider: "memory"},
		Server:    config.ServerConfig{Enabled: true, Port: 8099},
		Logging:   config.LoggingConfig{Development: true},
	}
	require.NoError(t, cfg.Validate())

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.NotEmpty(t, a.RunID())
	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Engine())
	assert.NotNil(t, a.Records())
	assert.NotNil(t, a.Dataset())
	assert.Nil(t, a.Jobs())
	assert.NotNil(t, a.Publisher())
	assert.NotNil(t, a.Blobs())
	assert.NotNil(t, a.Server())
	assert.Equal(t, cfg.Crawl.URLs, a.Config().Crawl.URLs)
}

func TestSessionCookies(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sessionCookies(config.SessionConfig{}))

	cookies := sessionCookies(config.SessionConfig{LiAt: "tok", JSessionID: "sess"})
	require.Len(t, cookies, 2)
	assert.Equal(t, &http.Cookie{Name: "li_at", Value: "tok", Domain: ".linkedin.com"}, cookies[0])
	assert.Equal(t, "JSESSIONID", cookies[1].Name)
}

func TestStaticIDs(t *testing.T) {
	t.Parallel()

	ids := staticIDs{id: "run-7"}
	got, err := ids.NewID()
	require.NoError(t, err)
	assert.Equal(t, "run-7", got)
}

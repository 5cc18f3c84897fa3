// Package app initializes and holds the long-lived services for one crawl
// run, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/api"
	"github.com/jobsweep/linkedin-crawler/internal/clock/system"
	"github.com/jobsweep/linkedin-crawler/internal/config"
	"github.com/jobsweep/linkedin-crawler/internal/crawler"
	"github.com/jobsweep/linkedin-crawler/internal/extract"
	collyfetcher "github.com/jobsweep/linkedin-crawler/internal/fetcher/colly"
	"github.com/jobsweep/linkedin-crawler/internal/id/uuid"
	"github.com/jobsweep/linkedin-crawler/internal/logging"
	"github.com/jobsweep/linkedin-crawler/internal/metrics"
	"github.com/jobsweep/linkedin-crawler/internal/progress"
	progresssinks "github.com/jobsweep/linkedin-crawler/internal/progress/sinks"
	"github.com/jobsweep/linkedin-crawler/internal/publisher/memory"
	"github.com/jobsweep/linkedin-crawler/internal/publisher/pubsub"
	"github.com/jobsweep/linkedin-crawler/internal/security"
	"github.com/jobsweep/linkedin-crawler/internal/sink"
	"github.com/jobsweep/linkedin-crawler/internal/sink/fs"
	"github.com/jobsweep/linkedin-crawler/internal/sink/postgres"
	"github.com/jobsweep/linkedin-crawler/internal/storage"
	"github.com/jobsweep/linkedin-crawler/internal/storage/gcs"
	"github.com/jobsweep/linkedin-crawler/internal/storage/local"
	memorystorage "github.com/jobsweep/linkedin-crawler/internal/storage/memory"
)

// App wires config into concrete services: logger, blob store, job store,
// publisher, progress hub, and the crawl engine. One App serves one run.
type App struct {
	cfg    config.Config
	runID  string
	logger *zap.Logger

	hub     *progress.Hub
	blobs   crawler.BlobStore
	dataset *fs.DatasetSink
	jobs    *postgres.JobStore
	pub     crawler.Publisher
	records crawler.RecordSink
	engine  *crawler.Engine
	server  *api.Server
}

// staticIDs pins the engine's run id to the one the App allocated, so the
// dataset files and the job store rows share it.
type staticIDs struct{ id string }

func (s staticIDs) NewID() (string, error) { return s.id, nil }

// New builds every service the configuration asks for, failing fast when a
// backing system cannot be reached.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.NewWithFile(cfg.Logging.Development, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	metrics.Init()

	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("allocate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))

	a := &App{cfg: cfg, runID: runID, logger: logger}
	if err := a.initStorage(ctx); err != nil {
		return nil, err
	}
	if err := a.initJobStore(ctx); err != nil {
		a.closeQuiet()
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		a.closeQuiet()
		return nil, err
	}
	if err := a.initProgress(); err != nil {
		a.closeQuiet()
		return nil, err
	}
	if err := a.initEngine(); err != nil {
		a.closeQuiet()
		return nil, err
	}
	if cfg.Server.Enabled {
		a.server = api.NewServer(a.engine, api.Config{
			Port:        cfg.Server.Port,
			AuthEnabled: cfg.Auth.Enabled,
			APIKey:      cfg.Auth.APIKey,
		}, logger)
	}
	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.cfg.Storage.Provider {
	case "gcs":
		a.logger.Info("using GCS blob store", zap.String("bucket", a.cfg.Storage.GCSBucket))
		store, err := gcs.New(ctx, gcs.Config{
			Bucket: a.cfg.Storage.GCSBucket,
			Prefix: a.cfg.Storage.Prefix,
		})
		if err != nil {
			return fmt.Errorf("initialize gcs storage: %w", err)
		}
		a.blobs = store
	case "local":
		a.logger.Info("using local blob store", zap.String("dir", a.cfg.Storage.LocalDir))
		store, err := local.New(local.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return fmt.Errorf("initialize local storage: %w", err)
		}
		a.blobs = store
	case "memory":
		a.blobs = memorystorage.NewBlobStore()
	default:
		a.logger.Info("blob storage disabled, artifacts will be discarded")
		a.blobs = storage.NoOp{}
	}
	return nil
}

func (a *App) initJobStore(ctx context.Context) error {
	if a.cfg.DB.Provider != "postgres" {
		a.logger.Info("job store disabled, records go to dataset files only")
		return nil
	}
	a.logger.Info("connecting to PostgreSQL job store")
	store, err := postgres.NewJobStore(ctx, a.runID, postgres.Config{
		DSN:   a.cfg.DB.DSN,
		Table: a.cfg.DB.Table,
	})
	if err != nil {
		return fmt.Errorf("initialize job store: %w", err)
	}
	a.jobs = store
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	switch a.cfg.Publisher.Provider {
	case "pubsub":
		a.logger.Info("connecting to Pub/Sub",
			zap.String("project", a.cfg.Publisher.ProjectID),
			zap.String("topic", a.cfg.Publisher.TopicName))
		pub, err := pubsub.New(ctx, a.cfg.Publisher.ProjectID, a.cfg.Publisher.TopicName)
		if err != nil {
			return fmt.Errorf("initialize publisher: %w", err)
		}
		a.pub = pub
	case "memory":
		a.pub = memory.New()
	default:
		a.logger.Info("publisher disabled, completion events will not be sent")
	}
	return nil
}

func (a *App) initProgress() error {
	promSink, err := progresssinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("initialize prometheus sink: %w", err)
	}
	a.hub = progress.NewHub(
		progress.Config{Logger: a.logger},
		progresssinks.NewLogSink(a.logger),
		promSink,
	)
	return nil
}

func (a *App) initEngine() error {
	dataset, err := fs.NewDatasetSink(a.cfg.Output.Dir, a.runID)
	if err != nil {
		return fmt.Errorf("initialize dataset sink: %w", err)
	}
	a.dataset = dataset

	records := []crawler.RecordSink{crawler.RecordSink(dataset)}
	if a.jobs != nil {
		records = append(records, a.jobs)
	}
	a.records = sink.NewMulti(records...)

	clk := system.New()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	engine, err := crawler.NewEngine(
		crawler.Options{
			Keywords:           a.cfg.Crawl.Keywords,
			Location:           a.cfg.Crawl.Location,
			Company:            a.cfg.Crawl.Company,
			URLs:               a.cfg.Crawl.URLs,
			MaxPages:           a.cfg.Crawl.MaxPages,
			MaxJobs:            a.cfg.Crawl.MaxJobs,
			TimeFilter:         a.cfg.Crawl.TimeFilter,
			Cookies:            sessionCookies(a.cfg.Session),
			SnapshotChallenges: a.cfg.Storage.Snapshots,
		},
		crawler.Deps{
			Fetcher: collyfetcher.New(collyfetcher.Config{
				Timeout:  a.cfg.RequestTimeout(),
				FloorRPS: a.cfg.HTTP.FloorPerHost,
			}),
			Extractor: extract.New(clk, a.logger),
			Security:  security.New(clk, rng, a.logger),
			Sink:      a.records,
			Blobs:     a.blobs,
			Clock:     clk,
			IDs:       staticIDs{id: a.runID},
			Retry:     crawler.NewExponentialRetryPolicy(a.cfg.Security.MaxAttempts),
			Progress:  a.hub,
			Logger:    a.logger,
		},
	)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	a.engine = engine
	return nil
}

// sessionCookies converts configured session tokens into linkedin.com
// cookies. Missing tokens simply produce fewer cookies.
func sessionCookies(s config.SessionConfig) []*http.Cookie {
	var cookies []*http.Cookie
	if s.LiAt != "" {
		cookies = append(cookies, &http.Cookie{Name: "li_at", Value: s.LiAt, Domain: ".linkedin.com"})
	}
	if s.JSessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: "JSESSIONID", Value: s.JSessionID, Domain: ".linkedin.com"})
	}
	return cookies
}

// RunID returns the identifier allocated for this run.
func (a *App) RunID() string { return a.runID }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Engine returns the crawl engine.
func (a *App) Engine() *crawler.Engine { return a.engine }

// Records returns the fan-out record sink; the crawl command closes it once
// the run finishes so the dataset files get written.
func (a *App) Records() crawler.RecordSink { return a.records }

// Dataset returns the file-backed sink, for locating the written artifacts.
func (a *App) Dataset() *fs.DatasetSink { return a.dataset }

// Jobs returns the relational job store, or nil when disabled.
func (a *App) Jobs() *postgres.JobStore { return a.jobs }

// Publisher returns the completion-event publisher, or nil when disabled.
func (a *App) Publisher() crawler.Publisher { return a.pub }

// Blobs returns the artifact blob store.
func (a *App) Blobs() crawler.BlobStore { return a.blobs }

// Server returns the status HTTP server, or nil when disabled.
func (a *App) Server() *api.Server { return a.server }

// Close tears services down in reverse initialization order.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close progress hub: %w", err)
		}
	}
	if closer, ok := a.pub.(io.Closer); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close publisher: %w", err)
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Close(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close job store: %w", err)
		}
	}
	if closer, ok := a.blobs.(io.Closer); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close blob store: %w", err)
		}
	}
	_ = a.logger.Sync()
	return firstErr
}

func (a *App) closeQuiet() {
	_ = a.Close(context.Background())
}

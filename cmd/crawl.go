package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

const finishTimeout = 30 * time.Second

// newCrawlCmd creates and configures the 'crawl' subcommand, the entry point
// for a single crawl run.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Starts a crawl run",
		Long: `Runs one crawl: pages through the configured search (or visits the
configured job URLs), emits the deduplicated job records in discovery order,
and finishes by writing the dataset files and publishing the run summary.`,

		RunE: runCrawlCommand,
	}

	flags := cmd.Flags()
	flags.String("keywords", "", "search keywords (keyword mode)")
	flags.String("location", "", "search location (keyword mode)")
	flags.String("company", "", "company name (company mode)")
	flags.StringSlice("urls", nil, "explicit job URLs (url mode)")
	flags.Int("max-pages", 0, "listing page ceiling (0 = unlimited)")
	flags.Int("max-jobs", 0, "emitted record ceiling (0 = unlimited)")
	flags.String("time-filter", "", "posted-time filter, e.g. r86400 for the last day")

	for flag, key := range map[string]string{
		"keywords":    "crawl.keywords",
		"location":    "crawl.location",
		"company":     "crawl.company",
		"urls":        "crawl.urls",
		"max-pages":   "crawl.max_pages",
		"max-jobs":    "crawl.max_jobs",
		"time-filter": "crawl.time_filter",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if srv := appInstance.Server(); srv != nil {
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("Status server failed", zap.Error(err))
			}
		}()
	}

	summary, runErr := appInstance.Engine().Run(ctx)

	// Finalization uses its own deadline so a SIGINT still gets its
	// dataset files written and the summary delivered.
	finishCtx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if err := appInstance.Records().Close(finishCtx); err != nil {
		logger.Error("Closing record sinks failed", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("close record sinks: %w", err)
		}
	}

	summary.DatasetFiles = uploadDatasets(finishCtx, appInstance)
	deliverSummary(finishCtx, appInstance, summary)

	logger.Info("Crawl finished",
		zap.String("run_id", summary.RunID),
		zap.Int("pages", summary.PageCount),
		zap.Int("jobs", summary.JobCount),
		zap.String("stop_reason", string(summary.StopReason)),
	)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run crawl: %w", runErr)
	}
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// uploadDatasets pushes the written dataset files to the blob store and
// returns their references: the upload URI when the store produced one, the
// local path otherwise.
func uploadDatasets(ctx context.Context, appInstance App) []string {
	logger := appInstance.Logger()
	var refs []string
	for _, file := range appInstance.Dataset().Files() {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Error("Reading dataset file failed", zap.String("file", file), zap.Error(err))
			continue
		}
		object := path.Join("datasets", appInstance.RunID(), filepath.Base(file))
		uri, err := appInstance.Blobs().PutObject(ctx, object, datasetContentType(file), data)
		if err != nil {
			logger.Error("Uploading dataset file failed", zap.String("file", file), zap.Error(err))
			refs = append(refs, file)
			continue
		}
		if uri == "" {
			refs = append(refs, file)
			continue
		}
		logger.Info("Dataset file uploaded", zap.String("uri", uri))
		refs = append(refs, uri)
	}
	return refs
}

func deliverSummary(ctx context.Context, appInstance App, summary crawler.CrawlSummary) {
	logger := appInstance.Logger()
	if jobs := appInstance.Jobs(); jobs != nil {
		if err := jobs.StoreSummary(ctx, summary); err != nil {
			logger.Error("Storing run summary failed", zap.Error(err))
		}
	}
	if pub := appInstance.Publisher(); pub != nil {
		topic := appInstance.Config().Publisher.TopicName
		msgID, err := pub.Publish(ctx, topic, summary)
		if err != nil {
			logger.Error("Publishing run summary failed", zap.Error(err))
			return
		}
		logger.Info("Run summary published", zap.String("message_id", msgID))
	}
}

func datasetContentType(file string) string {
	switch filepath.Ext(file) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Package cmd defines and implements the CLI commands for the
// linkedin-crawler executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/api"
	"github.com/jobsweep/linkedin-crawler/internal/app"
	internalconfig "github.com/jobsweep/linkedin-crawler/internal/config"
	"github.com/jobsweep/linkedin-crawler/internal/crawler"
	"github.com/jobsweep/linkedin-crawler/internal/logging"
	"github.com/jobsweep/linkedin-crawler/internal/sink/fs"
	"github.com/jobsweep/linkedin-crawler/internal/sink/postgres"
	pkgconfig "github.com/jobsweep/linkedin-crawler/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType struct{}

var appKey appKeyType

// App is the slice of the application container the commands use. It exists
// so tests can inject a fake container.
type App interface {
	RunID() string
	Logger() *zap.Logger
	Config() internalconfig.Config
	Engine() *crawler.Engine
	Records() crawler.RecordSink
	Dataset() *fs.DatasetSink
	Jobs() *postgres.JobStore
	Publisher() crawler.Publisher
	Blobs() crawler.BlobStore
	Server() *api.Server
	Close(ctx context.Context) error
}

// newApp is the application factory. It is a variable so tests can replace
// it with a mock factory.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := internalconfig.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func newRootCmd(bootLogger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkedin-crawler",
		Short: "A polite, deduplicating crawler for LinkedIn job listings.",
		Long: `linkedin-crawler walks LinkedIn job search results (or a fixed set of
job URLs), paces itself against anti-bot challenges, reconciles every listing
into a normalized job record, and writes the deduplicated dataset to files and
optional downstream stores.`,

		// Runs after config is loaded but before the subcommand's RunE:
		// the right moment to build and inject the service container.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				if err := appInstance.Close(cmd.Context()); err != nil {
					bootLogger.Warn("Shutdown reported an error", zap.Error(err))
				}
			}
		},
	}

	cobra.OnInitialize(func() {
		// .env values feed the LINKEDIN_* environment bindings.
		_ = godotenv.Load()
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		pkgconfig.InitConfig(bootLogger)
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	bootLogger, err := logging.New(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(bootLogger).Execute(); err != nil {
		bootLogger.Fatal("Command execution failed", zap.Error(err))
	}
}

// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/config"
)

// InitConfig initializes the global Viper instance for the CLI: search paths,
// defaults, and environment variables. Call once at startup, before any
// command unmarshals the typed Config.
func InitConfig(logger *zap.Logger) {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")                       // current working directory
	viper.AddConfigPath("/etc/linkedin-crawler/")  // system-wide configuration
	viper.AddConfigPath("$HOME/.linkedin-crawler") // user-specific configuration

	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("LINKEDIN") // e.g. LINKEDIN_CRAWL_MAX_PAGES=10
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Not fatal: defaults plus environment variables are enough.
			logger.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logger.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logger.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}

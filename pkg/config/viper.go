// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup to ensure that configuration is loaded and
// available to all other packages.
func InitConfig() {
	// Secrets such as the map API keys are commonly kept in a local .env
	// file during development. Missing files are fine.
	if err := godotenv.Load(); err == nil {
		logging.L.Debug("Loaded environment from .env file")
	}

	// --- Set Search Paths ---
	viper.SetConfigName("config")
	viper.AddConfigPath(".")                    // Current working directory
	viper.AddConfigPath("/etc/store-crawler/")  // System-wide configuration
	viper.AddConfigPath("$HOME/.store-crawler") // User-specific configuration

	// --- Set Defaults ---
	SetDefaults(viper.GetViper())

	// --- Environment Variables ---
	viper.SetEnvPrefix("CRAWLER") // e.g., CRAWLER_DATABASE_DSN=postgres://...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; this is not a fatal error if we can proceed
			// with defaults and environment variables.
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}

// SetDefaults registers every configuration default on the given Viper
// instance. Exposed separately so tests can exercise the defaults on an
// isolated instance without touching global state.
func SetDefaults(v *viper.Viper) {
	const defaultUA = "StoreCrawler/1.0 (+https://github.com/coumap/store-crawler)"

	// Scraper settings.
	v.SetDefault("crawler.listing_url", "")
	v.SetDefault("crawler.driver", "chromedp") // chromedp or static
	v.SetDefault("crawler.user_agent", defaultUA)
	v.SetDefault("crawler.navigation_timeout", "45s")
	v.SetDefault("crawler.settle_delay", "2s")
	v.SetDefault("crawler.region_timeout", "2m")

	// Geocoding providers. Keys have no defaults on purpose; a provider
	// without credentials is simply not wired into the chain.
	v.SetDefault("geocode.kakao.api_key", "")
	v.SetDefault("geocode.kakao.qps", 5)
	v.SetDefault("geocode.kakao.timeout", "10s")
	v.SetDefault("geocode.naver.client_id", "")
	v.SetDefault("geocode.naver.client_secret", "")
	v.SetDefault("geocode.naver.qps", 5)
	v.SetDefault("geocode.naver.timeout", "10s")

	// Persistence.
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "stores")
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "30m")

	// Artifact storage: gcs, local, or noop.
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("storage.gcs.bucket", "")
	v.SetDefault("storage.local.dir", "data/exports")

	// Run-summary notifications: pubsub or noop.
	v.SetDefault("queue.provider", "noop")
	v.SetDefault("queue.pubsub.project_id", "")
	v.SetDefault("queue.pubsub.topic_id", "")

	// Status API.
	v.SetDefault("api.addr", ":8080")

	// Logging.
	v.SetDefault("log.development", false)
}

// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/database"
	"github.com/coumap/store-crawler/internal/geocode"
	"github.com/coumap/store-crawler/internal/logging"
	"github.com/coumap/store-crawler/internal/metrics"
	"github.com/coumap/store-crawler/internal/queue"
	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/scraper"
	"github.com/coumap/store-crawler/internal/storage"
	"github.com/coumap/store-crawler/internal/walker"
)

// App holds all the shared, long-lived services for the application.
// It acts as a dependency injection (DI) container, holding instances of
// services like the logger, store repository, geocoding chain, scrape
// source, storage provider, and message queue. It is initialized once at
// startup and passed to the commands that need it.
type App struct {
	logger    *zap.Logger
	repo      *database.StoreRepo
	geocoder  *geocode.Chain
	source    scraper.Source
	storage   storage.Provider
	queue     queue.Provider
	hierarchy region.Hierarchy
	walkerCfg walker.Config
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetRepo provides access to the store repository.
func (a *App) GetRepo() *database.StoreRepo {
	return a.repo
}

// GetGeocoder returns the address resolution chain.
func (a *App) GetGeocoder() *geocode.Chain {
	return a.geocoder
}

// GetSource returns the configured listing scrape source.
func (a *App) GetSource() scraper.Source {
	return a.source
}

// GetStorage exposes the configured artifact storage provider.
func (a *App) GetStorage() storage.Provider {
	return a.storage
}

// GetQueue returns the queue provider used to publish run summaries.
func (a *App) GetQueue() queue.Provider {
	return a.queue
}

// GetHierarchy returns the region hierarchy walked by full crawls.
func (a *App) GetHierarchy() region.Hierarchy {
	return a.hierarchy
}

// GetWalkerConfig returns tuning for the crawl walker.
func (a *App) GetWalkerConfig() walker.Config {
	return a.walkerCfg
}

// NewApp creates and initializes a new App struct based on the application's
// configuration. It is the central point for service initialization: it
// reads configuration from Viper and instantiates the appropriate providers
// (Kakao and Naver for geocoding, chromedp or Colly for scraping, GCS or
// local disk for artifacts). It fails fast if any critical service cannot
// be initialized.
func NewApp(ctx context.Context) (*App, error) {
	l := logging.L
	l.Info("Initializing application services...")

	metrics.Init()

	// 1. Geocoding chain. A provider without credentials is skipped; the
	// chain still works with zero providers and simply leaves stores
	// without coordinates.
	var providers []geocode.Provider
	if key := viper.GetString("geocode.kakao.api_key"); key != "" {
		kakao, err := geocode.NewKakao(geocode.KakaoConfig{
			APIKey:  key,
			Timeout: viper.GetDuration("geocode.kakao.timeout"),
			QPS:     viper.GetFloat64("geocode.kakao.qps"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize kakao geocoder: %w", err)
		}
		providers = append(providers, kakao)
	}
	if id := viper.GetString("geocode.naver.client_id"); id != "" {
		naver, err := geocode.NewNaver(geocode.NaverConfig{
			ClientID:     id,
			ClientSecret: viper.GetString("geocode.naver.client_secret"),
			Timeout:      viper.GetDuration("geocode.naver.timeout"),
			QPS:          viper.GetFloat64("geocode.naver.qps"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize naver geocoder: %w", err)
		}
		providers = append(providers, naver)
	}
	if len(providers) == 0 {
		l.Warn("No geocoding providers configured; stores will be persisted without coordinates.")
	}
	chain := geocode.NewChain(l, providers...)

	// 2. Scrape source.
	var source scraper.Source
	var err error
	switch driver := viper.GetString("crawler.driver"); driver {
	case "chromedp":
		source, err = scraper.NewHeadlessSource(scraper.HeadlessConfig{
			ListingURL:        viper.GetString("crawler.listing_url"),
			UserAgent:         viper.GetString("crawler.user_agent"),
			NavigationTimeout: viper.GetDuration("crawler.navigation_timeout"),
			SettleDelay:       viper.GetDuration("crawler.settle_delay"),
		}, l)
	case "static":
		source, err = scraper.NewStaticSource(scraper.StaticConfig{
			ListingURL: viper.GetString("crawler.listing_url"),
			UserAgent:  viper.GetString("crawler.user_agent"),
			Timeout:    viper.GetDuration("crawler.navigation_timeout"),
		}, l)
	default:
		return nil, fmt.Errorf("unknown crawler driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scrape source: %w", err)
	}

	// 3. Artifact storage provider.
	var store storage.Provider
	switch providerType := viper.GetString("storage.provider"); providerType {
	case "gcs":
		bucketName := viper.GetString("storage.gcs.bucket")
		if bucketName == "" {
			return nil, fmt.Errorf("storage provider is 'gcs' but storage.gcs.bucket is not set")
		}
		l.Info("Using GCS storage provider", zap.String("bucket", bucketName))
		store, err = storage.NewGCSProvider(ctx, bucketName)
	case "local":
		dir := viper.GetString("storage.local.dir")
		l.Info("Using local storage provider", zap.String("dir", dir))
		store, err = storage.NewLocalProvider(dir)
	case "noop":
		l.Info("Using No-Op storage provider. Export artifacts will be discarded.")
		store = &storage.NoOpProvider{}
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", providerType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 4. Queue provider for run-summary notifications.
	var q queue.Provider
	switch providerType := viper.GetString("queue.provider"); providerType {
	case "pubsub":
		projectID := viper.GetString("queue.pubsub.project_id")
		topicID := viper.GetString("queue.pubsub.topic_id")
		if projectID == "" || topicID == "" {
			return nil, fmt.Errorf("queue provider is 'pubsub' but project_id or topic_id is not set")
		}
		l.Info("Connecting to GCP Pub/Sub", zap.String("topic", topicID))
		q, err = queue.NewPubSubProvider(ctx, projectID, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize queue: %w", err)
		}
	case "noop":
		l.Info("Using No-Op queue provider. No run summaries will be sent.")
		q = &queue.NoOpProvider{}
	default:
		return nil, fmt.Errorf("unknown queue provider: %s", providerType)
	}

	// 5. Store repository. Every command except maptest needs it, so a
	// missing DSN is fatal here rather than mid-run.
	dsn := viper.GetString("database.dsn")
	if dsn == "" {
		return nil, fmt.Errorf("database.dsn is not set")
	}
	l.Info("Connecting to PostgreSQL...")
	repo, err := database.NewStoreRepo(ctx, database.Config{
		DSN:             dsn,
		Table:           viper.GetString("database.table"),
		MaxConns:        viper.GetInt32("database.max_conns"),
		MinConns:        viper.GetInt32("database.min_conns"),
		MaxConnLifetime: viper.GetDuration("database.max_conn_lifetime"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	l.Info("Application services initialized successfully.")

	return &App{
		logger:    l,
		repo:      repo,
		geocoder:  chain,
		source:    source,
		storage:   store,
		queue:     q,
		hierarchy: region.Default(),
		walkerCfg: walker.Config{RegionTimeout: viper.GetDuration("crawler.region_timeout")},
	}, nil
}

// Close gracefully shuts down all services in the App container.
// It is called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.GetLogger().Info("Shutting down application services...")
	if closer, ok := a.source.(interface{ Close() }); ok {
		closer.Close()
	}
	a.repo.Close()
	if err := a.GetQueue().Close(); err != nil {
		a.GetLogger().Warn("Error closing queue client", zap.Error(err))
	}
	// The GCS storage client does not require an explicit close operation.

	if err := a.GetLogger().Sync(); err != nil {
		// Best effort; stderr sync can fail on some platforms.
		a.GetLogger().Warn("Error syncing logger on shutdown", zap.Error(err))
	}
}

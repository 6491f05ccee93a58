package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/app"
	"github.com/coumap/store-crawler/internal/database"
	"github.com/coumap/store-crawler/internal/geocode"
	"github.com/coumap/store-crawler/internal/logging"
	"github.com/coumap/store-crawler/internal/queue"
	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/scraper"
	"github.com/coumap/store-crawler/internal/storage"
	"github.com/coumap/store-crawler/internal/walker"
	"github.com/coumap/store-crawler/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use. This allows
// injecting a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetRepo() *database.StoreRepo
	GetGeocoder() *geocode.Chain
	GetSource() scraper.Source
	GetStorage() storage.Provider
	GetQueue() queue.Provider
	GetHierarchy() region.Hierarchy
	GetWalkerConfig() walker.Config
}

// newApp is the application factory. It is a variable so tests can replace
// it with a mock factory.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	return app.NewApp(ctx)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store-crawler",
		Short: "Crawls merchant store listings and geocodes them into PostgreSQL.",
		Long: `store-crawler walks a province/district/dong hierarchy, scrapes the
merchant store listing for each region, resolves store addresses to
coordinates through the Kakao and Naver map APIs, and persists the
deduplicated result set in PostgreSQL.`,

		// Runs after config is loaded but before the subcommand's RunE;
		// builds the service container and injects it into the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cobra.OnInitialize(config.InitConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.store-crawler/config.yaml)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newMapTestCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	logging.InitLogger(viper.GetBool("log.development"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.L.Error("Command execution failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

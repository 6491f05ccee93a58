// Package cmd defines and implements the CLI commands for the store-crawler executable.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/export"
	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/walker"
)

// newCrawlCmd creates and configures the 'crawl' subcommand. It walks the
// selected regions, scrapes each listing, geocodes the records, and
// persists them. After the walk it uploads a CSV snapshot and publishes a
// run summary.
func newCrawlCmd() *cobra.Command {
	var (
		mode     string
		province string
		district string
		dong     string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs a store crawl over the configured region scope",
		Long: `Runs a crawl in one of three modes: 'test' covers the fixed test
region, 'single_region' covers the regions selected by the --province,
--district and --dong flags, and 'full_crawl' covers the entire hierarchy.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := region.Descriptor{Province: province, District: district, Dong: dong}
			return runCrawlCommand(cmd, mode, filter)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(walker.ModeTest), "run mode: test, single_region, or full_crawl")
	cmd.Flags().StringVar(&province, "province", "", "province filter for single_region mode")
	cmd.Flags().StringVar(&district, "district", "", "district filter for single_region mode")
	cmd.Flags().StringVar(&dong, "dong", "", "dong filter for single_region mode (optional)")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, modeStr string, filter region.Descriptor) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()

	mode, err := walker.ParseMode(modeStr)
	if err != nil {
		return err
	}

	w := walker.New(
		appInstance.GetSource(),
		appInstance.GetGeocoder(),
		appInstance.GetRepo(),
		appInstance.GetHierarchy(),
		appInstance.GetWalkerConfig(),
		logger,
	)

	report, err := w.Run(cmd.Context(), mode, filter)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("Crawl finished",
		zap.String("run_id", report.RunID),
		zap.String("mode", string(mode)),
		zap.Int("regions_crawled", report.RegionsCrawled),
		zap.Int("regions_failed", report.RegionsFailed),
		zap.Int("records_seen", report.RecordsSeen),
		zap.Int("upserts", report.Upserts),
		zap.Int("persist_failures", report.PersistFailures),
		zap.Float64("success_rate", report.Stats.SuccessRate),
	)

	// Post-run side effects run on a fresh context so a canceled crawl
	// still leaves an artifact and a summary behind.
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 2*time.Minute)
	defer cancel()

	if err := uploadSnapshot(postCtx, appInstance, report.RunID); err != nil {
		logger.Warn("Snapshot upload failed", zap.Error(err))
	}
	if err := publishReport(postCtx, appInstance, report); err != nil {
		logger.Warn("Run summary publish failed", zap.Error(err))
	}

	if report.PersistFailures > 0 {
		return fmt.Errorf("crawl completed with %d persist failures", report.PersistFailures)
	}
	return nil
}

func uploadSnapshot(ctx context.Context, appInstance App, runID string) error {
	entities, err := appInstance.GetRepo().Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot stores: %w", err)
	}
	data, err := export.Stores(entities)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return appInstance.GetStorage().Save(ctx, export.ObjectName(runID, time.Now()), data)
}

func publishReport(ctx context.Context, appInstance App, report walker.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	return appInstance.GetQueue().Publish(ctx, payload)
}

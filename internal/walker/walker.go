// Package walker orchestrates the crawl: it walks the region hierarchy,
// pulls raw records from the scraper, geocodes them, and hands each one to
// the store repository.
package walker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/geocode"
	"github.com/coumap/store-crawler/internal/metrics"
	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/scraper"
	"github.com/coumap/store-crawler/internal/store"
)

// Mode selects which slice of the hierarchy a run covers.
type Mode string

// Run modes accepted by the crawl command.
const (
	ModeTest         Mode = "test"
	ModeSingleRegion Mode = "single_region"
	ModeFullCrawl    Mode = "full_crawl"
)

// ParseMode validates a mode string from the CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTest, ModeSingleRegion, ModeFullCrawl:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want test, single_region, or full_crawl)", s)
	}
}

// Geocoder resolves a raw address, returning geocode.ErrUnresolved when no
// provider can.
type Geocoder interface {
	Resolve(ctx context.Context, rawAddress string) (store.Coordinate, error)
}

// Repository is the slice of the store repository the walker needs.
type Repository interface {
	Upsert(ctx context.Context, rec store.RawRecord, coord *store.Coordinate) (store.Entity, error)
	Statistics(ctx context.Context) (store.RunStatistics, error)
}

// Config tunes walk behavior.
type Config struct {
	// RegionTimeout bounds one region's scrape so a hung browser page
	// cannot stall the whole run.
	RegionTimeout time.Duration
}

// Report is the outcome of one run. Stats reflect the full persisted set,
// not just this run's deltas; the counters are per-run.
type Report struct {
	RunID            string              `json:"run_id"`
	Mode             Mode                `json:"mode"`
	Stats            store.RunStatistics `json:"stats"`
	RegionsCrawled   int                 `json:"regions_crawled"`
	RegionsFailed    int                 `json:"regions_failed"`
	RecordsSeen      int                 `json:"records_seen"`
	GeocodeSucceeded int                 `json:"geocode_succeeded"`
	GeocodeFailed    int                 `json:"geocode_failed"`
	Upserts          int                 `json:"upserts"`
	PersistFailures  int                 `json:"persist_failures"`
	StartedAt        time.Time           `json:"started_at"`
	FinishedAt       time.Time           `json:"finished_at"`
}

// Walker drives the crawl pipeline region by region.
type Walker struct {
	source    scraper.Source
	geocoder  Geocoder
	repo      Repository
	hierarchy region.Hierarchy
	cfg       Config
	logger    *zap.Logger
}

// New wires the walker. The source is an exclusive resource; the walker is
// the single caller driving it, one region at a time.
func New(
	source scraper.Source,
	geocoder Geocoder,
	repo Repository,
	hierarchy region.Hierarchy,
	cfg Config,
	logger *zap.Logger,
) *Walker {
	if cfg.RegionTimeout <= 0 {
		cfg.RegionTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		source:    source,
		geocoder:  geocoder,
		repo:      repo,
		hierarchy: hierarchy,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one crawl. Record- and region-level failures are logged and
// skipped; only setup failures (bad mode, invalid region filter) abort. The
// returned report always carries cumulative statistics, even after a
// partial or canceled walk.
func (w *Walker) Run(ctx context.Context, mode Mode, filter region.Descriptor) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
	}

	regions, err := w.regionsFor(mode, filter)
	if err != nil {
		return report, err
	}

	logger := w.logger.With(zap.String("run_id", report.RunID), zap.String("mode", string(mode)))
	logger.Info("starting crawl", zap.Int("regions", len(regions)))

	var walkErr error
	for _, reg := range regions {
		// The stop signal is honored between regions so completed
		// upserts stay committed.
		if ctx.Err() != nil {
			logger.Info("crawl interrupted", zap.String("next_region", reg.String()))
			walkErr = ctx.Err()
			break
		}
		w.crawlRegion(ctx, reg, &report, logger)
	}

	// Statistics must survive cancellation: the persisted set is intact
	// even when the walk stopped early.
	statsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	stats, err := w.repo.Statistics(statsCtx)
	if err != nil {
		logger.Error("failed to compute run statistics", zap.Error(err))
	} else {
		report.Stats = stats
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("crawl finished",
		zap.Int("regions_crawled", report.RegionsCrawled),
		zap.Int("regions_failed", report.RegionsFailed),
		zap.Int("upserts", report.Upserts),
		zap.Int("persist_failures", report.PersistFailures),
		zap.Int64("total_stores", report.Stats.TotalStores),
		zap.Float64("success_rate", report.Stats.SuccessRate),
	)
	return report, walkErr
}

func (w *Walker) regionsFor(mode Mode, filter region.Descriptor) ([]region.Descriptor, error) {
	switch mode {
	case ModeTest:
		return region.TestSet(), nil
	case ModeSingleRegion:
		return w.hierarchy.Expand(filter)
	case ModeFullCrawl:
		return w.hierarchy.All(), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func (w *Walker) crawlRegion(ctx context.Context, reg region.Descriptor, report *Report, logger *zap.Logger) {
	regionCtx, cancel := context.WithTimeout(ctx, w.cfg.RegionTimeout)
	defer cancel()

	records, err := w.source.Fetch(regionCtx, reg)
	if err != nil {
		// Region-level failure: mark it and move on, the rest of the
		// walk is unaffected.
		report.RegionsFailed++
		metrics.ObserveRegion("failed")
		logger.Error("region scrape failed", zap.String("region", reg.String()), zap.Error(err))
		return
	}
	report.RegionsCrawled++
	if len(records) == 0 {
		metrics.ObserveRegion("empty")
		logger.Info("region has no stores", zap.String("region", reg.String()))
		return
	}
	metrics.ObserveRegion("ok")

	for _, rec := range records {
		report.RecordsSeen++
		w.processRecord(regionCtx, rec, report, logger)
	}
	logger.Info("region done",
		zap.String("region", reg.String()),
		zap.Int("records", len(records)),
	)
}

func (w *Walker) processRecord(ctx context.Context, rec store.RawRecord, report *Report, logger *zap.Logger) {
	var coord *store.Coordinate
	resolved, err := w.geocoder.Resolve(ctx, rec.RawAddress)
	switch {
	case err == nil:
		report.GeocodeSucceeded++
		coord = &resolved
	case errors.Is(err, geocode.ErrUnresolved):
		// The store is still persisted; only its location stays unknown.
		report.GeocodeFailed++
		logger.Debug("geocode unresolved",
			zap.String("name", rec.Name),
			zap.String("address", rec.RawAddress),
		)
	default:
		report.GeocodeFailed++
		logger.Warn("geocode error",
			zap.String("name", rec.Name),
			zap.Error(err),
		)
	}

	if _, err := w.repo.Upsert(ctx, rec, coord); err != nil {
		// Persistence failures are loud: the full record is logged so it
		// can be replayed manually.
		report.PersistFailures++
		metrics.ObserveRecord("persist_failed")
		logger.Error("store upsert failed",
			zap.String("name", rec.Name),
			zap.String("address", rec.RawAddress),
			zap.String("category", rec.Category),
			zap.String("phone", rec.Phone),
			zap.String("region", rec.Region.String()),
			zap.Error(err),
		)
		return
	}
	report.Upserts++
	metrics.ObserveRecord("persisted")
}

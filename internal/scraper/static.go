package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/store"
)

// StaticConfig controls the colly-backed source.
type StaticConfig struct {
	ListingURL string
	UserAgent  string
	Timeout    time.Duration
}

// StaticSource fetches the server-rendered listing endpoint with Colly.
// It is the cheap path for mirrors of the listing that do not require
// JavaScript; the headless source handles the real site.
type StaticSource struct {
	cfg    StaticConfig
	logger *zap.Logger
}

// NewStaticSource validates the config and returns the source.
func NewStaticSource(cfg StaticConfig, logger *zap.Logger) (*StaticSource, error) {
	if cfg.ListingURL == "" {
		return nil, fmt.Errorf("scraper: listing url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticSource{cfg: cfg, logger: logger}, nil
}

// Fetch downloads and parses the listing page for one region.
func (s *StaticSource) Fetch(ctx context.Context, reg region.Descriptor) ([]store.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	collector := colly.NewCollector(colly.UserAgent(s.cfg.UserAgent))
	collector.SetRequestTimeout(s.cfg.Timeout)

	var (
		records  []store.RawRecord
		skipped  int
		fetchErr error
	)

	collector.OnHTML("li.store-item", func(e *colly.HTMLElement) {
		rec := store.RawRecord{
			Name:       strings.TrimSpace(e.ChildText(".store-name")),
			RawAddress: strings.TrimSpace(e.ChildText(".store-addr")),
			Category:   strings.TrimSpace(e.ChildText(".store-category")),
			Phone:      strings.TrimSpace(e.ChildText(".store-tel")),
			Region:     reg,
		}
		if !rec.Valid() {
			skipped++
			return
		}
		records = append(records, rec)
	})

	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(s.listingURL(reg)); err != nil {
		return nil, fmt.Errorf("scrape region %s: %w", reg, err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("scrape region %s: %w", reg, fetchErr)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed listing rows",
			zap.String("region", reg.String()),
			zap.Int("skipped", skipped),
		)
	}
	return records, nil
}

func (s *StaticSource) listingURL(reg region.Descriptor) string {
	q := url.Values{}
	q.Set("province", reg.Province)
	q.Set("district", reg.District)
	if reg.Dong != "" {
		q.Set("dong", reg.Dong)
	}
	return s.cfg.ListingURL + "?" + q.Encode()
}

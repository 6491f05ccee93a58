package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/store"
)

// HeadlessConfig controls the chromedp-backed source.
type HeadlessConfig struct {
	ListingURL        string
	UserAgent         string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
}

// HeadlessSource scrapes the listing site with a headless browser. The
// browser session is an exclusive, stateful resource: one region holds the
// session from navigation to extraction, so Fetch serializes callers
// through a single-slot limiter.
type HeadlessSource struct {
	cfg         HeadlessConfig
	logger      *zap.Logger
	session     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadlessSource starts a browser allocator and returns the source.
func NewHeadlessSource(cfg HeadlessConfig, logger *zap.Logger) (*HeadlessSource, error) {
	if cfg.ListingURL == "" {
		return nil, fmt.Errorf("scraper: listing url is required")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &HeadlessSource{
		cfg:         cfg,
		logger:      logger,
		session:     make(chan struct{}, 1),
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context, shutting the browser down.
func (s *HeadlessSource) Close() {
	s.allocCancel()
}

// Fetch navigates to the listing page, applies the region filter, and
// extracts the rendered store list. The browser tab is always released,
// even on a region-level failure.
func (s *HeadlessSource) Fetch(ctx context.Context, reg region.Descriptor) ([]store.RawRecord, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	tabCtx, tabCancel := chromedp.NewContext(s.allocator)
	defer tabCancel()

	tabCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavigationTimeout)
	defer cancel()

	var (
		filterResult string
		listJSON     string
	)
	actions := []chromedp.Action{
		s.networkSetup(),
		chromedp.Navigate(s.cfg.ListingURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(consentScript, nil),
		chromedp.Evaluate(filterScript(reg), &filterResult),
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(extractScript, &listJSON),
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, fmt.Errorf("scrape region %s: %w", reg, err)
	}
	if filterResult != "applied" {
		return nil, fmt.Errorf("scrape region %s: filter not applied (%s)", reg, filterResult)
	}

	records, skipped, err := parseItems([]byte(listJSON), reg)
	if err != nil {
		return nil, fmt.Errorf("scrape region %s: %w", reg, err)
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed listing rows",
			zap.String("region", reg.String()),
			zap.Int("skipped", skipped),
		)
	}
	return records, nil
}

func (s *HeadlessSource) networkSetup() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if s.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (s *HeadlessSource) acquire(ctx context.Context) error {
	select {
	case s.session <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("browser session wait canceled: %w", ctx.Err())
	}
}

func (s *HeadlessSource) release() {
	select {
	case <-s.session:
	default:
	}
}

// consentScript dismisses the location-consent popup the site shows on
// first load. A missing popup is not an error.
const consentScript = `(() => {
	const popup = document.getElementById('agreePopup');
	if (!popup || popup.style.display === 'none') {
		return 'no_popup';
	}
	const checkbox = document.getElementById('chkbox2');
	if (checkbox) {
		checkbox.click();
	}
	if (typeof chkAgree === 'function') {
		chkAgree();
	}
	return 'agreed';
})()`

// filterScript fills the region filter form and submits it.
func filterScript(reg region.Descriptor) string {
	return fmt.Sprintf(`(() => {
	const set = (id, value) => {
		const el = document.getElementById(id);
		if (!el) { return false; }
		el.value = value;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	};
	if (!set('selProvince', %q)) { return 'province_select_missing'; }
	if (!set('selDistrict', %q)) { return 'district_select_missing'; }
	set('selDong', %q);
	const btn = document.getElementById('btnRegionSearch');
	if (!btn) { return 'search_button_missing'; }
	btn.click();
	return 'applied';
})()`, reg.Province, reg.District, reg.Dong)
}

// extractScript serializes the rendered store list.
const extractScript = `(() => {
	const rows = Array.from(document.querySelectorAll('#storeList li.store-item'));
	const text = (el, sel) => {
		const node = el.querySelector(sel);
		return node ? node.textContent.trim() : '';
	};
	return JSON.stringify(rows.map(el => ({
		name: text(el, '.store-name'),
		address: text(el, '.store-addr'),
		category: text(el, '.store-category'),
		phone: text(el, '.store-tel'),
	})));
})()`

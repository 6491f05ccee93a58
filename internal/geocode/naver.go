package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/coumap/store-crawler/internal/store"
)

const defaultNaverURL = "https://openapi.naver.com/v1/search/local.json"

// NaverConfig holds credentials and tuning for the Naver local search API.
type NaverConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
	QPS          float64
}

// Naver resolves addresses through the Naver local search API, used as the
// fallback when Kakao fails.
type Naver struct {
	cfg     NaverConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewNaver validates the config and builds the provider.
func NewNaver(cfg NaverConfig) (*Naver, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("naver: client id and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNaverURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QPS <= 0 {
		cfg.QPS = 5
	}
	return &Naver{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.QPS), 1),
	}, nil
}

// Name implements Provider.
func (n *Naver) Name() string { return "naver" }

type naverResponse struct {
	Items []struct {
		MapX string `json:"mapx"`
		MapY string `json:"mapy"`
	} `json:"items"`
}

// Geocode performs one rate-limited local search. Naver returns coordinates
// as integers scaled by 1e7, so both axes are divided back down.
func (n *Naver) Geocode(ctx context.Context, address string) (store.Coordinate, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return store.Coordinate{}, fmt.Errorf("naver: rate limit wait: %w", err)
	}

	endpoint := n.cfg.BaseURL + "?display=1&query=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("naver: build request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", n.cfg.ClientID)
	req.Header.Set("X-Naver-Client-Secret", n.cfg.ClientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("naver: request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return store.Coordinate{}, fmt.Errorf("naver: unexpected status %d", resp.StatusCode)
	}

	var payload naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return store.Coordinate{}, fmt.Errorf("naver: decode response: %w", err)
	}
	if len(payload.Items) == 0 {
		return store.Coordinate{}, fmt.Errorf("naver: no result for %q", address)
	}

	item := payload.Items[0]
	rawLng, err := strconv.ParseFloat(item.MapX, 64)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("naver: parse mapx %q: %w", item.MapX, err)
	}
	rawLat, err := strconv.ParseFloat(item.MapY, 64)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("naver: parse mapy %q: %w", item.MapY, err)
	}
	return store.Coordinate{Latitude: rawLat / 1e7, Longitude: rawLng / 1e7}, nil
}

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

const defaultKakaoURL = "https://dapi.kakao.com/v2/local/search/address.json"

// KakaoConfig holds credentials and tuning for the Kakao local API.
type KakaoConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	QPS     float64
}

// Kakao resolves addresses through the Kakao address search API. It is the
// primary provider: Kakao is more accurate than Naver for bare addresses.
type Kakao struct {
	cfg     KakaoConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewKakao validates the config and builds the provider.
func NewKakao(cfg KakaoConfig) (*Kakao, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("kakao: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultKakaoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QPS <= 0 {
		cfg.QPS = 5
	}
	return &Kakao{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.QPS), 1),
	}, nil
}

// Name implements Provider.
func (k *Kakao) Name() string { return "kakao" }

type kakaoResponse struct {
	Documents []struct {
		X string `json:"x"`
		Y string `json:"y"`
	} `json:"documents"`
}

// Geocode performs one rate-limited address lookup.
func (k *Kakao) Geocode(ctx context.Context, address string) (store.Coordinate, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return store.Coordinate{}, fmt.Errorf("kakao: rate limit wait: %w", err)
	}

	endpoint := k.cfg.BaseURL + "?query=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("kakao: build request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+k.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("kakao: request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return store.Coordinate{}, fmt.Errorf("kakao: unexpected status %d", resp.StatusCode)
	}

	var payload kakaoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return store.Coordinate{}, fmt.Errorf("kakao: decode response: %w", err)
	}
	if len(payload.Documents) == 0 {
		return store.Coordinate{}, fmt.Errorf("kakao: no result for %q", address)
	}

	doc := payload.Documents[0]
	lng, err := strconv.ParseFloat(doc.X, 64)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("kakao: parse longitude %q: %w", doc.X, err)
	}
	lat, err := strconv.ParseFloat(doc.Y, 64)
	if err != nil {
		return store.Coordinate{}, fmt.Errorf("kakao: parse latitude %q: %w", doc.Y, err)
	}
	return store.Coordinate{Latitude: lat, Longitude: lng}, nil
}

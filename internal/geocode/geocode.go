// Package geocode resolves street addresses to coordinates through an
// ordered chain of external map providers.
package geocode

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/metrics"
	"github.com/coumap/store-crawler/internal/store"
)

// ErrUnresolved reports that no provider could resolve the address. It is a
// result, not a pipeline failure: callers persist the record without a
// coordinate.
var ErrUnresolved = errors.New("geocode: address unresolved by all providers")

// Provider is a single external geocoding service.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (store.Coordinate, error)
}

// Chain tries each provider in order and stops at the first success.
type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

// NewChain builds a Chain. Provider order is fallback order: the first
// entry is the primary.
func NewChain(logger *zap.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{providers: providers, logger: logger}
}

// Resolve normalizes the raw address and walks the provider chain. Each
// provider gets exactly one attempt per address; rate limiting lives inside
// the providers themselves. Both providers failing yields ErrUnresolved.
func (c *Chain) Resolve(ctx context.Context, rawAddress string) (store.Coordinate, error) {
	address := NormalizeAddress(rawAddress)
	if address == "" {
		c.logger.Debug("address empty after normalization", zap.String("raw", rawAddress))
		return store.Coordinate{}, ErrUnresolved
	}

	for _, p := range c.providers {
		start := time.Now()
		coord, err := p.Geocode(ctx, address)
		if err == nil {
			metrics.ObserveGeocode(p.Name(), "ok", time.Since(start))
			return coord, nil
		}
		metrics.ObserveGeocode(p.Name(), "failed", time.Since(start))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return store.Coordinate{}, err
		}
		c.logger.Debug("provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.String("address", address),
			zap.Error(err),
		)
	}
	return store.Coordinate{}, ErrUnresolved
}

package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coumap/store-crawler/internal/store"
)

type stubProvider struct {
	name  string
	coord store.Coordinate
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Geocode(_ context.Context, _ string) (store.Coordinate, error) {
	s.calls++
	return s.coord, s.err
}

func TestResolvePrimarySuccessSkipsFallback(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", coord: store.Coordinate{Latitude: 37.48, Longitude: 127.05}}
	fallback := &stubProvider{name: "fallback"}
	chain := NewChain(zap.NewNop(), primary, fallback)

	coord, err := chain.Resolve(context.Background(), "서울 강남구 개포동 186")
	require.NoError(t, err)
	assert.Equal(t, primary.coord, coord)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestResolveFallsBackOnPrimaryFailure(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", err: errors.New("quota exceeded")}
	fallback := &stubProvider{name: "fallback", coord: store.Coordinate{Latitude: 35.16, Longitude: 129.16}}
	chain := NewChain(zap.NewNop(), primary, fallback)

	coord, err := chain.Resolve(context.Background(), "부산 해운대구 우동 1408")
	require.NoError(t, err)
	assert.Equal(t, fallback.coord, coord)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestResolveAllProvidersFail(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", err: errors.New("not found")}
	fallback := &stubProvider{name: "fallback", err: errors.New("not found")}
	chain := NewChain(zap.NewNop(), primary, fallback)

	_, err := chain.Resolve(context.Background(), "서울 강남구 개포동 999")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveEmptyAddressShortCircuits(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary"}
	chain := NewChain(zap.NewNop(), primary)

	_, err := chain.Resolve(context.Background(), "  (철거예정) ")
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Zero(t, primary.calls, "no provider call for an empty normalized address")
}

func TestResolvePropagatesCancellation(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", err: context.Canceled}
	fallback := &stubProvider{name: "fallback"}
	chain := NewChain(zap.NewNop(), primary, fallback)

	_, err := chain.Resolve(context.Background(), "서울 강남구 개포동 186")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fallback.calls, "canceled context must not reach the fallback")
}

package geodata_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/geodata"
)

// mockProvider returns configurable elements and counts fetches.
type mockProvider struct {
	elements   *geodata.Elements
	err        error
	fetchCount atomic.Int32
}

func (m *mockProvider) FetchElements(_ context.Context, _ geo.BoundingBox) (*geodata.Elements, error) {
	m.fetchCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.elements, nil
}

func (m *mockProvider) Name() string { return "mock" }

func testElements() *geodata.Elements {
	return &geodata.Elements{
		Roads: []geodata.Way{
			{ID: 1, NodeIDs: []int64{10, 11}, Tags: map[string]string{"highway": "residential"}},
		},
		Nodes: map[int64]geodata.Node{
			10: {ID: 10, Lat: 51.5072, Lng: -0.1276},
			11: {ID: 11, Lat: 51.5080, Lng: -0.1281},
		},
	}
}

func testBox() geo.BoundingBox {
	return geo.BoundingBoxOf([]geo.Coordinate{
		{Lat: 51.5072, Lng: -0.1276},
		{Lat: 51.5080, Lng: -0.1281},
	}, 300)
}

func TestService_CachesByQuantizedBox(t *testing.T) {
	provider := &mockProvider{elements: testElements()}
	svc := geodata.NewService(geodata.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.New(io.Discard),
		CacheTTL: time.Minute,
	})

	ctx := context.Background()
	box := testBox()

	first, err := svc.GetElements(ctx, box)
	require.NoError(t, err)
	assert.Len(t, first.Roads, 1)
	assert.Equal(t, int32(1), provider.fetchCount.Load())

	// A box shifted well under the quantization grid shares the entry.
	nearby := box
	nearby.South += 0.0001
	second, err := svc.GetElements(ctx, nearby)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), provider.fetchCount.Load())
}

func TestService_DistinctBoxesFetchSeparately(t *testing.T) {
	provider := &mockProvider{elements: testElements()}
	svc := geodata.NewService(geodata.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.New(io.Discard),
	})

	ctx := context.Background()
	box := testBox()

	_, err := svc.GetElements(ctx, box)
	require.NoError(t, err)

	far := box
	far.South += 0.1
	far.North += 0.1
	_, err = svc.GetElements(ctx, far)
	require.NoError(t, err)

	assert.Equal(t, int32(2), provider.fetchCount.Load())
	assert.Equal(t, 2, svc.CacheLen())
}

func TestService_ExpiredEntryRefetches(t *testing.T) {
	provider := &mockProvider{elements: testElements()}
	svc := geodata.NewService(geodata.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.New(io.Discard),
		CacheTTL: 10 * time.Millisecond,
	})

	ctx := context.Background()
	_, err := svc.GetElements(ctx, testBox())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = svc.GetElements(ctx, testBox())
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetchCount.Load())
}

func TestService_PropagatesProviderError(t *testing.T) {
	provider := &mockProvider{err: geodata.ErrUpstreamUnavailable}
	svc := geodata.NewService(geodata.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.New(io.Discard),
	})

	_, err := svc.GetElements(context.Background(), testBox())
	require.Error(t, err)
	assert.True(t, errors.Is(err, geodata.ErrUpstreamUnavailable))
}

func TestService_InvalidateCache(t *testing.T) {
	provider := &mockProvider{elements: testElements()}
	svc := geodata.NewService(geodata.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.New(io.Discard),
	})

	ctx := context.Background()
	_, err := svc.GetElements(ctx, testBox())
	require.NoError(t, err)

	svc.InvalidateCache()
	assert.Zero(t, svc.CacheLen())

	_, err = svc.GetElements(ctx, testBox())
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetchCount.Load())
}

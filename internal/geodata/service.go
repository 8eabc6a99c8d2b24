package geodata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/nightwalk/nightwalk/internal/cache"
	"github.com/nightwalk/nightwalk/internal/geo"
)

// ServiceConfig holds configuration for the geodata service.
type ServiceConfig struct {
	// Provider is the map-data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache fetched elements (default: 30 minutes).
	CacheTTL time.Duration

	// CacheGridSize quantizes bounding boxes for cache keys, in degrees
	// (default: 0.002 ~ 220m). Near-identical boxes share an entry.
	CacheGridSize float64

	// MaxCacheEntries bounds the cache size (default: 64). Eviction is an
	// unordered sweep, not strict LRU.
	MaxCacheEntries int
}

// Service provides map-data elements with caching.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	cacheTTL      time.Duration
	cacheGridSize float64
	maxEntries    int

	cache *cache.TTL[*Elements]
}

// NewService creates a new geodata service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.002
	}

	maxEntries := cfg.MaxCacheEntries
	if maxEntries == 0 {
		maxEntries = 64
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		cacheTTL:      cacheTTL,
		cacheGridSize: cacheGridSize,
		maxEntries:    maxEntries,
		cache:         cache.New[*Elements](cacheTTL, maxEntries),
	}
}

// GetElements returns categorized map elements for the bounding box, serving
// from cache when a quantized-identical box was fetched within the TTL.
func (s *Service) GetElements(ctx context.Context, bbox geo.BoundingBox) (*Elements, error) {
	key := quantizeBoxKey(bbox, s.cacheGridSize)

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().
			Str("cache_key", key).
			Msg("geodata cache hit")
		return cached, nil
	}

	start := time.Now()
	elements, err := s.provider.FetchElements(ctx, bbox)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("south", bbox.South).
			Float64("north", bbox.North).
			Float64("west", bbox.West).
			Float64("east", bbox.East).
			Dur("elapsed", time.Since(start)).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch map elements")
		return nil, err
	}

	s.cache.Put(key, elements)

	s.logger.Debug().
		Str("cache_key", key).
		Int("roads", len(elements.Roads)).
		Int("lamps", len(elements.Lamps)).
		Int("cameras", len(elements.Cameras)).
		Int("places", len(elements.Places)).
		Int("transit_stops", len(elements.TransitStops)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched and cached map elements")

	return elements, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.cache.Clear()
}

// CacheLen returns the number of cached entries.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// quantizeBoxKey rounds every box edge down to the grid so that boxes within
// one grid step of each other share a cache entry.
func quantizeBoxKey(bbox geo.BoundingBox, grid float64) string {
	q := func(v float64) float64 {
		return math.Floor(v/grid) * grid
	}
	return fmt.Sprintf("%.4f:%.4f:%.4f:%.4f", q(bbox.South), q(bbox.West), q(bbox.North), q(bbox.East))
}

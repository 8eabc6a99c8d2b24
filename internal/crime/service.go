package crime

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/nightwalk/nightwalk/internal/cache"
	"github.com/nightwalk/nightwalk/internal/geo"
)

// ServiceConfig holds configuration for the crime service.
type ServiceConfig struct {
	// Provider is the crime-data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache incidents (default: 24 hours; the
	// upstream dataset updates monthly).
	CacheTTL time.Duration

	// CacheGridSize quantizes bounding boxes for cache keys, in degrees
	// (default: 0.005 ~ 550m).
	CacheGridSize float64

	// MaxCacheEntries bounds the cache size (default: 128).
	MaxCacheEntries int
}

// Service provides crime incidents with caching.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	cacheGridSize float64

	cache *cache.TTL[[]Incident]
}

// NewService creates a new crime service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.005
	}

	maxEntries := cfg.MaxCacheEntries
	if maxEntries == 0 {
		maxEntries = 128
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		cacheGridSize: cacheGridSize,
		cache:         cache.New[[]Incident](cacheTTL, maxEntries),
	}
}

// GetIncidents returns incidents for the bounding box, serving from cache
// when possible. A provider failure is returned to the caller; the
// orchestrator decides whether to degrade to an empty list.
func (s *Service) GetIncidents(ctx context.Context, bbox geo.BoundingBox) ([]Incident, error) {
	key := s.cacheKey(bbox)

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().
			Str("cache_key", key).
			Int("incidents", len(cached)).
			Msg("crime cache hit")
		return cached, nil
	}

	start := time.Now()
	incidents, err := s.provider.FetchIncidents(ctx, bbox)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("south", bbox.South).
			Float64("north", bbox.North).
			Float64("west", bbox.West).
			Float64("east", bbox.East).
			Dur("elapsed", time.Since(start)).
			Str("provider", s.provider.Name()).
			Msg("failed to fetch crime incidents")
		return nil, err
	}

	s.cache.Put(key, incidents)

	s.logger.Debug().
		Str("cache_key", key).
		Int("incidents", len(incidents)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched and cached crime incidents")

	return incidents, nil
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

func (s *Service) cacheKey(bbox geo.BoundingBox) string {
	q := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%.3f:%.3f:%.3f:%.3f", q(bbox.South), q(bbox.West), q(bbox.North), q(bbox.East))
}

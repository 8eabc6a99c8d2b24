package routes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nightwalk/nightwalk/internal/cache"
	"github.com/nightwalk/nightwalk/internal/crime"
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/geodata"
	"github.com/nightwalk/nightwalk/internal/pathfind"
	"github.com/nightwalk/nightwalk/internal/safety"
	"github.com/nightwalk/nightwalk/pkg/polyline"
)

// walkingSpeedMetersPerSecond is the fixed pace used to derive durations.
const walkingSpeedMetersPerSecond = 1.35

// GeodataSource provides categorized map elements for a bounding box.
type GeodataSource interface {
	GetElements(ctx context.Context, bbox geo.BoundingBox) (*geodata.Elements, error)
}

// CrimeSource provides severity-weighted crime incidents for a bounding box.
type CrimeSource interface {
	GetIncidents(ctx context.Context, bbox geo.BoundingBox) ([]crime.Incident, error)
}

// ServiceConfig holds configuration for the route orchestrator.
type ServiceConfig struct {
	// Geodata is the map-data source. Required.
	Geodata GeodataSource

	// Crime is the incident source. Required.
	Crime CrimeSource

	// Logger for service operations.
	Logger zerolog.Logger

	// MaxStraightLineKm rejects endpoint pairs farther apart than this
	// (default: 20).
	MaxStraightLineKm float64

	// MaxRoutes is how many diverse alternatives to return (default: 3).
	MaxRoutes int

	// NearestNodeMaxMeters is how far an endpoint may snap to the graph
	// (default: 500).
	NearestNodeMaxMeters float64

	// BBoxBufferMeters expands the endpoint extent before fetching
	// (default: 400).
	BBoxBufferMeters float64

	// CacheTTL is how long computed results stay valid (default: 5 minutes).
	CacheTTL time.Duration

	// MaxCacheEntries triggers an eviction sweep when exceeded (default: 100).
	MaxCacheEntries int

	// Now returns the current time; injectable for tests (default: time.Now).
	Now func() time.Time
}

// Service computes safest walking routes with result caching and in-flight
// request coalescing.
type Service struct {
	geodata GeodataSource
	crime   CrimeSource
	logger  zerolog.Logger

	maxStraightLineKm    float64
	maxRoutes            int
	nearestNodeMaxMeters float64
	bboxBufferMeters     float64
	now                  func() time.Time

	results  *cache.TTL[*Response]
	inflight singleflight.Group
}

// NewService creates a new route orchestrator.
func NewService(cfg ServiceConfig) *Service {
	maxKm := cfg.MaxStraightLineKm
	if maxKm == 0 {
		maxKm = 20
	}

	maxRoutes := cfg.MaxRoutes
	if maxRoutes == 0 {
		maxRoutes = 3
	}

	nearestMax := cfg.NearestNodeMaxMeters
	if nearestMax == 0 {
		nearestMax = 500
	}

	buffer := cfg.BBoxBufferMeters
	if buffer == 0 {
		buffer = 400
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	maxEntries := cfg.MaxCacheEntries
	if maxEntries == 0 {
		maxEntries = 100
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		geodata:              cfg.Geodata,
		crime:                cfg.Crime,
		logger:               cfg.Logger,
		maxStraightLineKm:    maxKm,
		maxRoutes:            maxRoutes,
		nearestNodeMaxMeters: nearestMax,
		bboxBufferMeters:     buffer,
		now:                  now,
		results:              cache.New[*Response](cacheTTL, maxEntries),
	}
}

// MaxStraightLineKm returns the configured endpoint distance limit.
func (s *Service) MaxStraightLineKm() float64 {
	return s.maxStraightLineKm
}

// GetRoutes computes up to MaxRoutes diverse safe routes between origin and
// destination. Identical coordinate pairs (rounded to 3 decimals) share one
// cached result for the cache TTL; concurrent duplicates coalesce onto a
// single in-flight computation.
func (s *Service) GetRoutes(ctx context.Context, origin, dest geo.Coordinate) (*Response, error) {
	if !origin.Valid() || !dest.Valid() {
		return nil, ErrInvalidCoordinates
	}

	straightLine := geo.Distance(origin, dest)
	if straightLine/1000 > s.maxStraightLineKm {
		return nil, &OutOfRangeError{
			MaxDistanceKm:    s.maxStraightLineKm,
			ActualDistanceKm: straightLine / 1000,
		}
	}

	key := s.cacheKey(origin, dest)

	if cached, ok := s.results.Get(key); ok {
		s.logger.Debug().
			Str("cache_key", key).
			Msg("cache hit for route computation")
		return cached, nil
	}

	result, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		return s.compute(ctx, origin, dest, straightLine, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().
			Str("cache_key", key).
			Msg("coalesced onto in-flight route computation")
	}
	return result.(*Response), nil
}

// compute runs the full pipeline: parallel upstream fetches, graph build,
// diverse-route search, formatting, and cache store.
func (s *Service) compute(ctx context.Context, origin, dest geo.Coordinate, straightLine float64, key string) (*Response, error) {
	start := s.now()
	bbox := geo.BoundingBoxOf([]geo.Coordinate{origin, dest}, s.bboxBufferMeters)

	var (
		elements  *geodata.Elements
		incidents []crime.Incident
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		elements, err = s.geodata.GetElements(egCtx, bbox)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		incidents, err = s.crime.GetIncidents(egCtx, bbox)
		if err != nil {
			// Missing crime data degrades scoring but never blocks routing.
			s.logger.Warn().Err(err).
				Float64("south", bbox.South).
				Float64("north", bbox.North).
				Msg("crime fetch failed, routing without incident data")
			incidents = nil
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		s.logger.Error().Err(err).
			Float64("origin_lat", origin.Lat).
			Float64("origin_lng", origin.Lng).
			Float64("dest_lat", dest.Lat).
			Float64("dest_lng", dest.Lng).
			Dur("elapsed", s.now().Sub(start)).
			Msg("route computation failed")
		return nil, err
	}

	graph := safety.Build(elements, incidents, bbox, s.now())

	found, err := s.search(graph, origin, dest, straightLine)
	if err != nil && !errors.Is(err, ErrNoPath) {
		return nil, err
	}

	resp := &Response{
		Routes: make([]RouteResult, 0, len(found)),
		Meta: Meta{
			Roads:      len(elements.Roads),
			Incidents:  len(incidents),
			GraphNodes: len(graph.Nodes),
			GraphEdges: len(graph.Edges),
		},
	}
	for _, r := range found {
		resp.Routes = append(resp.Routes, formatRoute(graph, r))
	}
	resp.Meta.ElapsedMs = s.now().Sub(start).Milliseconds()

	s.results.Put(key, resp)

	s.logger.Info().
		Str("cache_key", key).
		Int("routes", len(resp.Routes)).
		Int("graph_edges", len(graph.Edges)).
		Int("incidents", len(incidents)).
		Int64("elapsed_ms", resp.Meta.ElapsedMs).
		Msg("computed safe routes")

	return resp, nil
}

// search snaps both endpoints to the graph and runs the diverse-route
// generator. Returns ErrNoPath when either endpoint cannot snap or no
// connecting route exists.
func (s *Service) search(graph *safety.Graph, origin, dest geo.Coordinate, straightLine float64) ([]*pathfind.Route, error) {
	if len(graph.Edges) == 0 {
		return nil, ErrNoPath
	}

	startID, ok := pathfind.NearestNode(graph, origin, s.nearestNodeMaxMeters)
	if !ok {
		return nil, fmt.Errorf("%w: origin too far from road network", ErrNoPath)
	}
	endID, ok := pathfind.NearestNode(graph, dest, s.nearestNodeMaxMeters)
	if !ok {
		return nil, fmt.Errorf("%w: destination too far from road network", ErrNoPath)
	}

	// The route search is bounded by twice the straight-line distance so a
	// safe detour stays possible without unbounded exploration.
	maxRouteDistance := math.Max(300, 2*straightLine)

	found := pathfind.DiverseRoutes(graph, startID, endID, s.maxRoutes, maxRouteDistance)
	if len(found) == 0 {
		return nil, ErrNoPath
	}
	return found, nil
}

// cacheKey joins both coordinates rounded to 3 decimal degrees, so requests
// within ~110 m of each other share a result.
func (s *Service) cacheKey(origin, dest geo.Coordinate) string {
	return fmt.Sprintf("%.3f,%.3f:%.3f,%.3f", origin.Lat, origin.Lng, dest.Lat, dest.Lng)
}

// formatRoute converts a search result into the response shape.
func formatRoute(graph *safety.Graph, r *pathfind.Route) RouteResult {
	path := make([]Point, len(r.Points))
	coords := make([]polyline.Coordinate, len(r.Points))
	for i, p := range r.Points {
		path[i] = Point{Lat: p.Lat, Lng: p.Lng}
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}

	score := int(math.Round(r.Safety * 100))
	label, color := safetyBucket(score)

	segments := make([]Segment, 0, len(r.EdgeIndices))
	var mainRoadMeters float64
	for i, idx := range r.EdgeIndices {
		e := graph.Edges[idx]
		if safety.IsMainRoad(e.Highway) {
			mainRoadMeters += e.Distance
		}
		_, segColor := safetyBucket(int(math.Round(e.Safety * 100)))
		segments = append(segments, Segment{
			Path:         []Point{path[i], path[i+1]},
			Color:        segColor,
			Name:         e.Name,
			Highway:      e.Highway,
			Safety:       e.Safety,
			RoadScore:    e.RoadScore,
			LightScore:   e.LightScore,
			CrimeScore:   e.CrimeScore,
			CCTVScore:    e.CCTVScore,
			PlaceScore:   e.PlaceScore,
			TrafficScore: e.TrafficScore,
		})
	}

	var mainRoadRatio float64
	if r.DistanceMeters > 0 {
		mainRoadRatio = mainRoadMeters / r.DistanceMeters
	}

	return RouteResult{
		ID:              uuid.NewString(),
		Path:            path,
		Geometry:        polyline.Encode(coords),
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: int(math.Round(r.DistanceMeters / walkingSpeedMetersPerSecond)),
		Safety: SafetyBreakdown{
			Score:         score,
			Label:         label,
			Color:         color,
			MainRoadRatio: mainRoadRatio,
		},
		Segments: segments,
	}
}

// safetyBucket maps a 0-100 score to its display label and color.
func safetyBucket(score int) (string, string) {
	switch {
	case score >= 80:
		return "very safe", "#2ECC71"
	case score >= 60:
		return "safe", "#27AE60"
	case score >= 40:
		return "moderate", "#F1C40F"
	default:
		return "caution", "#E74C3C"
	}
}

// CacheStats reports result-cache occupancy.
type CacheStats struct {
	Entries int
}

// CacheStats returns statistics about the result cache.
func (s *Service) CacheStats() CacheStats {
	return CacheStats{Entries: s.results.Len()}
}

// InvalidateCache clears all cached results.
func (s *Service) InvalidateCache() {
	s.results.Clear()
}

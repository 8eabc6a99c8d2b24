// Package pathfind runs the safety-cost search over the walking graph:
// nearest-node lookup, an A* search minimizing distance-over-safety, and a
// diverse-route generator producing up to k materially different paths.
package pathfind

import (
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/safety"
)

// Route is one computed path. Immutable after construction.
type Route struct {
	// Points is the ordered node geometry from start to end.
	Points []geo.Coordinate

	// EdgeIndices are the graph edge indices used, in path order.
	EdgeIndices []int

	// DistanceMeters is the true physical length, summed from edge
	// distances; never derived from search cost, which is not a metric.
	DistanceMeters float64

	// Safety is the distance-weighted average edge safety score in (0, 1].
	Safety float64
}

// newRoute assembles a Route from an ordered edge index list, computing the
// physical distance and the distance-weighted safety average.
func newRoute(g *safety.Graph, points []geo.Coordinate, edgeIndices []int) *Route {
	var dist, weighted float64
	for _, idx := range edgeIndices {
		e := g.Edges[idx]
		dist += e.Distance
		weighted += e.Distance * e.Safety
	}

	avg := 0.0
	if dist > 0 {
		avg = weighted / dist
	}

	return &Route{
		Points:         points,
		EdgeIndices:    edgeIndices,
		DistanceMeters: dist,
		Safety:         avg,
	}
}

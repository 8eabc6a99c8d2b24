package pathfind

import (
	"sort"

	"github.com/nightwalk/nightwalk/internal/safety"
)

const (
	// reusePenalty is subtracted from the effective safety of every edge a
	// previously found route used, steering later searches elsewhere.
	reusePenalty = 0.15

	// maxOverlapRatio is the fraction of a candidate's edges it may share
	// with an already accepted route before being discarded as a duplicate.
	maxOverlapRatio = 0.85

	// extraAttempts allows a few discarded candidates before giving up.
	extraAttempts = 3
)

// DiverseRoutes finds up to k distinct routes between startID and endID.
// Each accepted route penalizes its edges so the next search prefers new
// ground; candidates that mostly overlap an earlier route are dropped. All
// penalties are cleared before returning, leaving the graph reusable.
// Results are ordered safest first.
func DiverseRoutes(g *safety.Graph, startID, endID int64, k int, maxRouteDistanceMeters float64) []*Route {
	if k <= 0 {
		return nil
	}
	defer g.ResetPenalties()

	routes := make([]*Route, 0, k)
	usedEdges := make(map[int]bool)

	for attempt := 0; attempt < k+extraAttempts && len(routes) < k; attempt++ {
		route, ok := SafestPath(g, startID, endID, maxRouteDistanceMeters)
		if !ok {
			break
		}

		if overlapRatio(route, usedEdges) > maxOverlapRatio {
			// Penalize anyway so the next attempt diverges further.
			penalize(g, route)
			continue
		}

		routes = append(routes, route)
		if len(route.EdgeIndices) == 0 {
			// Start and end snapped to the same node; nothing to diversify.
			break
		}
		for _, idx := range route.EdgeIndices {
			usedEdges[idx] = true
		}
		penalize(g, route)
	}

	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Safety > routes[j].Safety
	})
	return routes
}

func penalize(g *safety.Graph, r *Route) {
	for _, idx := range r.EdgeIndices {
		g.Edges[idx].Penalty += reusePenalty
	}
}

// overlapRatio is the fraction of the candidate's edges already used by
// accepted routes. A route with no edges never counts as overlapping.
func overlapRatio(r *Route, used map[int]bool) float64 {
	if len(r.EdgeIndices) == 0 {
		return 0
	}
	shared := 0
	for _, idx := range r.EdgeIndices {
		if used[idx] {
			shared++
		}
	}
	return float64(shared) / float64(len(r.EdgeIndices))
}

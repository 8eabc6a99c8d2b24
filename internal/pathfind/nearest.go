package pathfind

import (
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/safety"
)

// NearestNode returns the closest routable node to the coordinate within
// maxDistanceMeters. Nodes without graph adjacency are skipped even when
// geometrically closer; a node you cannot walk away from is useless as a
// route endpoint.
func NearestNode(g *safety.Graph, c geo.Coordinate, maxDistanceMeters float64) (int64, bool) {
	for _, id := range g.NodeGrid.Nearby(c, maxDistanceMeters) {
		if g.Degree(id) > 0 {
			return id, true
		}
	}
	return 0, false
}

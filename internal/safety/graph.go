// Package safety builds the weighted walking graph: nodes and bidirectional
// edges scored by road type, lighting, crime density, CCTV presence,
// open-place activity and a foot-traffic proxy, weighted by time of day.
package safety

import (
	"github.com/nightwalk/nightwalk/internal/geo"
)

// Node is a routable graph node, identified by its upstream map-data node id.
type Node struct {
	ID         int64
	Coordinate geo.Coordinate
}

// Edge connects two nodes. Directed conceptually but stored once and
// traversable both ways. Penalty is transient search state owned by the
// diverse-route generator; everything else is immutable after Build.
type Edge struct {
	From     int64
	To       int64
	Distance float64
	Highway  string

	// Component scores, each in [0,1].
	RoadScore    float64
	LightScore   float64
	CrimeScore   float64
	CCTVScore    float64
	PlaceScore   float64
	TrafficScore float64

	// Safety is the weighted composite, clamped to [0.01, 1] so edge cost
	// stays finite.
	Safety float64

	// Penalty discourages edge reuse during diverse-route search.
	Penalty float64

	DeadEnd  bool
	Surface  string
	Sidewalk bool
	Name     string
}

// Other returns the edge endpoint opposite to nodeID.
func (e *Edge) Other(nodeID int64) int64 {
	if e.From == nodeID {
		return e.To
	}
	return e.From
}

// Graph is the routable walking graph for one bounding box. It is rebuilt
// per request and safe for concurrent reads; only Edge.Penalty mutates, and
// only within a single search.
type Graph struct {
	Nodes     map[int64]*Node
	Edges     []*Edge
	adjacency map[int64][]int32

	// NodeGrid indexes routable nodes for nearest-node lookup.
	NodeGrid *geo.SpatialGrid[int64]

	// Weights is the time-of-day vector the edges were scored with.
	Weights Weights
}

// AdjacentEdges returns the indices of all edges touching nodeID.
func (g *Graph) AdjacentEdges(nodeID int64) []int32 {
	return g.adjacency[nodeID]
}

// Degree returns the number of edges touching nodeID.
func (g *Graph) Degree(nodeID int64) int {
	return len(g.adjacency[nodeID])
}

// ResetPenalties zeroes all transient edge penalties.
func (g *Graph) ResetPenalties() {
	for _, e := range g.Edges {
		e.Penalty = 0
	}
}

func newGraph(weights Weights) *Graph {
	return &Graph{
		Nodes:     make(map[int64]*Node),
		Edges:     make([]*Edge, 0, 256),
		adjacency: make(map[int64][]int32),
		NodeGrid:  geo.NewSpatialGrid[int64](0.001),
		Weights:   weights,
	}
}

// addEdge appends the edge and registers it under both endpoints. Nodes are
// added to the graph and the lookup grid on first reference.
func (g *Graph) addEdge(e *Edge, from, to geo.Coordinate) {
	idx := int32(len(g.Edges))
	g.Edges = append(g.Edges, e)

	g.addNode(e.From, from)
	g.addNode(e.To, to)
	g.adjacency[e.From] = append(g.adjacency[e.From], idx)
	g.adjacency[e.To] = append(g.adjacency[e.To], idx)
}

func (g *Graph) addNode(id int64, c geo.Coordinate) {
	if _, ok := g.Nodes[id]; ok {
		return
	}
	g.Nodes[id] = &Node{ID: id, Coordinate: c}
	g.NodeGrid.Insert(c, id)
}

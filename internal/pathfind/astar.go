package pathfind

import (
	"container/heap"
	"math"

	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/safety"
)

const (
	// minEffectiveSafety floors the cost divisor so a heavily penalized edge
	// stays finite-cost rather than unreachable.
	minEffectiveSafety = 0.05

	// distanceSlack bounds search blow-up: a node whose real walked distance
	// exceeds slack x maxRouteDistance is pruned.
	distanceSlack = 1.5
)

// edgeCost is the safety-adjusted traversal cost: physical length divided by
// the effective safety score. Not a metric, so route distances are always
// recomputed from edge lengths.
func edgeCost(e *safety.Edge) float64 {
	return e.Distance / math.Max(minEffectiveSafety, e.Safety-e.Penalty)
}

// SafestPath runs an A* search from startID to endID minimizing cumulative
// safety cost. The heuristic divides the straight-line distance by the
// maximum possible safety score (1.0), so it never overestimates remaining
// cost and the search stays admissible. Returns false when no path exists
// within the distance bound.
func SafestPath(g *safety.Graph, startID, endID int64, maxRouteDistanceMeters float64) (*Route, bool) {
	startNode, ok := g.Nodes[startID]
	if !ok {
		return nil, false
	}
	endNode, ok := g.Nodes[endID]
	if !ok {
		return nil, false
	}

	if startID == endID {
		return &Route{Points: []geo.Coordinate{startNode.Coordinate}}, true
	}

	maxWalked := distanceSlack * maxRouteDistanceMeters

	type cameFromStep struct {
		prev    int64
		edgeIdx int32
	}

	gScore := map[int64]float64{startID: 0}
	walked := map[int64]float64{startID: 0}
	cameFrom := make(map[int64]cameFromStep)
	closed := make(map[int64]bool)

	open := &searchQueue{}
	heap.Init(open)
	heap.Push(open, &searchItem{
		node:   startID,
		fScore: geo.FastDistance(startNode.Coordinate, endNode.Coordinate),
	})

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchItem)
		if closed[current.node] {
			continue
		}
		if current.node == endID {
			return reconstruct(g, startID, endID, func(id int64) (int64, int32, bool) {
				step, ok := cameFrom[id]
				return step.prev, step.edgeIdx, ok
			}), true
		}
		closed[current.node] = true

		for _, idx := range g.AdjacentEdges(current.node) {
			e := g.Edges[idx]
			neighbor := e.Other(current.node)
			if closed[neighbor] {
				continue
			}

			nextWalked := walked[current.node] + e.Distance
			if nextWalked > maxWalked {
				continue
			}

			tentative := gScore[current.node] + edgeCost(e)
			if best, seen := gScore[neighbor]; seen && tentative >= best {
				continue
			}

			gScore[neighbor] = tentative
			walked[neighbor] = nextWalked
			cameFrom[neighbor] = cameFromStep{prev: current.node, edgeIdx: idx}

			h := geo.FastDistance(g.Nodes[neighbor].Coordinate, endNode.Coordinate)
			heap.Push(open, &searchItem{node: neighbor, fScore: tentative + h})
		}
	}

	return nil, false
}

// reconstruct walks the predecessor chain from end to start and reverses it.
func reconstruct(g *safety.Graph, startID, endID int64, step func(int64) (int64, int32, bool)) *Route {
	var reversedEdges []int
	var reversedPoints []geo.Coordinate

	node := endID
	reversedPoints = append(reversedPoints, g.Nodes[node].Coordinate)
	for node != startID {
		prev, edgeIdx, ok := step(node)
		if !ok {
			break
		}
		reversedEdges = append(reversedEdges, int(edgeIdx))
		reversedPoints = append(reversedPoints, g.Nodes[prev].Coordinate)
		node = prev
	}

	edges := make([]int, len(reversedEdges))
	for i, idx := range reversedEdges {
		edges[len(reversedEdges)-1-i] = idx
	}
	points := make([]geo.Coordinate, len(reversedPoints))
	for i, p := range reversedPoints {
		points[len(reversedPoints)-1-i] = p
	}

	return newRoute(g, points, edges)
}

// searchItem is one priority-queue entry.
type searchItem struct {
	node   int64
	fScore float64
	index  int
}

// searchQueue is a min-heap over fScore.
type searchQueue []*searchItem

func (q searchQueue) Len() int            { return len(q) }
func (q searchQueue) Less(i, j int) bool  { return q[i].fScore < q[j].fScore }
func (q searchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *searchQueue) Push(x interface{}) { *q = append(*q, x.(*searchItem)) }
func (q *searchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

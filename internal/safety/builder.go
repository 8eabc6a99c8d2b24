package safety

import (
	"math"
	"time"

	"github.com/nightwalk/nightwalk/internal/crime"
	"github.com/nightwalk/nightwalk/internal/geo"
	"github.com/nightwalk/nightwalk/internal/geodata"
)

// roadTypeScores assigns each walkable highway class a base score for how
// safe it feels to a pedestrian at night. Classes absent from the table are
// not walkable and are dropped during graph construction.
var roadTypeScores = map[string]float64{
	"pedestrian":    0.90,
	"living_street": 0.88,
	"residential":   0.85,
	"footway":       0.80,
	"cycleway":      0.70,
	"tertiary":      0.60,
	"unclassified":  0.55,
	"service":       0.55,
	"secondary":     0.50,
	"steps":         0.50,
	"path":          0.45,
	"track":         0.40,
	"primary":       0.35,
	"trunk":         0.10,
}

// unknownRoadScore is reported for classes outside the walkable set; such
// ways are excluded from the graph unless explicitly whitelisted.
const unknownRoadScore = 0.3

// mainRoadClasses are classes counted toward a route's main-road ratio.
var mainRoadClasses = map[string]bool{
	"trunk":     true,
	"primary":   true,
	"secondary": true,
	"tertiary":  true,
}

// IsMainRoad reports whether a highway class is a main road.
func IsMainRoad(highway string) bool {
	return mainRoadClasses[highway]
}

// RoadTypeScore returns the base pedestrian score for a highway class.
func RoadTypeScore(highway string) float64 {
	if s, ok := roadTypeScores[highway]; ok {
		return s
	}
	return unknownRoadScore
}

// badSurfaces incur a flat penalty: loose ground is slower to move on and
// harder to run on.
var badSurfaces = map[string]bool{
	"gravel": true,
	"dirt":   true,
	"grass":  true,
	"mud":    true,
	"sand":   true,
	"earth":  true,
}

// Build construction constants.
const (
	coverageCellMeters = 28

	lampRadiusMeters  = 60
	lampFalloffMeters = 12
	lampCellCap       = 1.0
	litWayFloor       = 0.7

	crimeRadiusMeters  = 120
	crimeFalloffMeters = 30

	proximityRadiusMeters = 80

	minEdgeLengthMeters = 0.5

	litEdgeFloor    = 0.85
	deadEndPenalty  = 0.08
	minSafetyScore  = 0.01
	surfacePenalty  = 0.1
	crimeScoreScale = 0.5
)

// Build converts raw map elements and crime incidents into the weighted
// walking graph for the bounding box, scoring every edge with the weight
// vector for the given time of day. An empty road set yields a graph with
// zero edges; callers treat that as "no route possible", not as an error.
func Build(elements *geodata.Elements, incidents []crime.Incident, bbox geo.BoundingBox, at time.Time) *Graph {
	weights := WeightsForHour(at.Hour())
	g := newGraph(weights)
	if elements == nil || len(elements.Roads) == 0 {
		return g
	}

	nightDiscount := nightDiscountForHour(at.Hour())

	lighting := buildLightingCoverage(elements, bbox)
	crimeDensity := buildCrimeCoverage(incidents, bbox)

	cameraGrid := nodeGrid(elements.Cameras)
	placeGrid := nodeGrid(elements.Places)
	transitGrid := nodeGrid(elements.TransitStops)

	for _, way := range elements.Roads {
		roadScore, walkable := roadTypeScores[way.Highway()]
		if !walkable {
			continue
		}

		lit := way.Lit()
		surface := way.Surface()
		sidewalk := way.HasSidewalk()
		name := way.Name()

		for i := 0; i+1 < len(way.NodeIDs); i++ {
			fromNode, ok := elements.Nodes[way.NodeIDs[i]]
			if !ok {
				continue
			}
			toNode, ok := elements.Nodes[way.NodeIDs[i+1]]
			if !ok {
				continue
			}

			from := fromNode.Coordinate()
			to := toNode.Coordinate()
			dist := geo.FastDistance(from, to)
			if dist < minEdgeLengthMeters {
				continue
			}

			mid := geo.Coordinate{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}

			lightScore := lighting.Sample(mid)
			if lit && lightScore < litEdgeFloor {
				lightScore = litEdgeFloor
			}

			crimeScore := math.Max(0, 1-math.Min(1, crimeDensity.Sample(mid)*crimeScoreScale))

			cctvScore := math.Min(1, float64(cameraGrid.CountNearby(mid, proximityRadiusMeters))*0.4)

			placeScore := math.Min(1, float64(placeGrid.CountNearby(mid, proximityRadiusMeters))*0.15*nightDiscount)

			transitBoost := math.Min(0.3, float64(transitGrid.CountNearby(mid, proximityRadiusMeters))*0.1)
			trafficScore := roadScore*0.7 + transitBoost + 0.1
			if sidewalk {
				trafficScore += 0.15
			}
			trafficScore = math.Min(1, trafficScore)

			var surfPenalty float64
			if badSurfaces[surface] {
				surfPenalty = surfacePenalty
			}

			composite := weights.RoadType*roadScore +
				weights.Lighting*lightScore +
				weights.Crime*crimeScore +
				weights.CCTV*cctvScore +
				weights.OpenPlaces*placeScore +
				weights.Traffic*trafficScore
			composite = math.Max(minSafetyScore, composite-surfPenalty)

			g.addEdge(&Edge{
				From:         fromNode.ID,
				To:           toNode.ID,
				Distance:     dist,
				Highway:      way.Highway(),
				RoadScore:    roadScore,
				LightScore:   lightScore,
				CrimeScore:   crimeScore,
				CCTVScore:    cctvScore,
				PlaceScore:   placeScore,
				TrafficScore: trafficScore,
				Safety:       composite,
				Surface:      surface,
				Sidewalk:     sidewalk,
				Name:         name,
			}, from, to)
		}
	}

	markDeadEnds(g)

	return g
}

// buildLightingCoverage stamps every street lamp with an inverse-distance-
// squared falloff, then floors the cells of lit-tagged ways.
func buildLightingCoverage(elements *geodata.Elements, bbox geo.BoundingBox) *CoverageGrid {
	grid := NewCoverageGrid(bbox, coverageCellMeters)

	for _, lamp := range elements.Lamps {
		grid.Stamp(lamp.Coordinate(), lampRadiusMeters, func(d float64) float64 {
			r := d / lampFalloffMeters
			return 1 / (1 + r*r)
		}, lampCellCap)
	}

	for _, way := range elements.Roads {
		if !way.Lit() {
			continue
		}
		for _, id := range way.NodeIDs {
			if node, ok := elements.Nodes[id]; ok {
				grid.Raise(node.Coordinate(), litWayFloor)
			}
		}
	}

	return grid
}

// buildCrimeCoverage stamps every incident with a severity-scaled falloff.
// Accumulation is uncapped; only the final per-edge score is clamped.
func buildCrimeCoverage(incidents []crime.Incident, bbox geo.BoundingBox) *CoverageGrid {
	grid := NewCoverageGrid(bbox, coverageCellMeters)

	for _, incident := range incidents {
		severity := incident.Severity
		grid.Stamp(incident.Coordinate, crimeRadiusMeters, func(d float64) float64 {
			return severity / (1 + math.Pow(d/crimeFalloffMeters, 1.5))
		}, 0)
	}

	return grid
}

// nodeGrid builds a proximity-query grid over a node category.
func nodeGrid(nodes []geodata.Node) *geo.SpatialGrid[geodata.Node] {
	grid := geo.NewSpatialGrid[geodata.Node](0.001)
	for _, n := range nodes {
		grid.Insert(n.Coordinate(), n)
	}
	return grid
}

// markDeadEnds flags every edge touching a degree-1 node and applies the
// dead-end penalty: a dead end is harder to escape if something goes wrong.
func markDeadEnds(g *Graph) {
	for _, e := range g.Edges {
		if g.Degree(e.From) <= 1 || g.Degree(e.To) <= 1 {
			e.DeadEnd = true
			e.Safety = math.Max(minSafetyScore, e.Safety-deadEndPenalty)
		}
	}
}

// Package routes orchestrates the full safest-route computation: input
// validation, parallel upstream fetches, graph construction, diverse-route
// search, response formatting, and a short-TTL result cache with in-flight
// request coalescing.
package routes

// Point is a single path coordinate in the response payload.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SafetyBreakdown summarizes a route's safety for display.
type SafetyBreakdown struct {
	// Score is the distance-weighted average edge safety scaled to 0-100.
	Score int `json:"score"`

	// Label is a human-readable bucket for Score.
	Label string `json:"label"`

	// Color is the display color for the bucket, as a hex string.
	Color string `json:"color"`

	// MainRoadRatio is the distance-weighted fraction of the route on
	// main roads (trunk through tertiary).
	MainRoadRatio float64 `json:"mainRoadRatio"`
}

// Segment is one edge of a route with its per-factor scores, used by
// clients to color the route line.
type Segment struct {
	Path    []Point `json:"path"`
	Color   string  `json:"color"`
	Name    string  `json:"name,omitempty"`
	Highway string  `json:"highway"`

	Safety       float64 `json:"safety"`
	RoadScore    float64 `json:"roadScore"`
	LightScore   float64 `json:"lightScore"`
	CrimeScore   float64 `json:"crimeScore"`
	CCTVScore    float64 `json:"cctvScore"`
	PlaceScore   float64 `json:"placeScore"`
	TrafficScore float64 `json:"trafficScore"`
}

// RouteResult is one candidate route in the response.
type RouteResult struct {
	ID   string  `json:"id"`
	Path []Point `json:"path"`

	// Geometry is the path as an encoded polyline, for mapping clients
	// that prefer it over the raw coordinate list.
	Geometry string `json:"geometry"`

	DistanceMeters  float64         `json:"distanceMeters"`
	DurationSeconds int             `json:"durationSeconds"`
	Safety          SafetyBreakdown `json:"safety"`
	Segments        []Segment       `json:"segments"`
}

// Meta describes the computation behind a response.
type Meta struct {
	ElapsedMs  int64 `json:"elapsedMs"`
	Roads      int   `json:"roads"`
	Incidents  int   `json:"incidents"`
	GraphNodes int   `json:"graphNodes"`
	GraphEdges int   `json:"graphEdges"`
}

// Response is the full payload for one route request. Routes is empty, not
// nil, when no route exists so it serializes as an empty array.
type Response struct {
	Routes []RouteResult `json:"routes"`
	Meta   Meta          `json:"meta"`
}

// Package geodata provides access to the upstream map-data service: road
// network, street lamps, CCTV, points of interest and transit stops for a
// bounding box, fetched in one combined query and cached.
package geodata

import (
	"context"
	"errors"

	"github.com/nightwalk/nightwalk/internal/geo"
)

// Sentinel errors for geodata operations.
var (
	// ErrUpstreamUnavailable indicates every mirror failed with a transient
	// condition (429/5xx or network error) after exhausting retries.
	ErrUpstreamUnavailable = errors.New("map-data service unavailable")
	// ErrFetchTimeout indicates the combined fetch exceeded the abort timeout.
	ErrFetchTimeout = errors.New("map-data fetch timed out")
	// ErrBadResponse indicates the upstream answered with a non-retryable
	// error or an unparseable body.
	ErrBadResponse = errors.New("map-data service returned an invalid response")
)

// Provider defines the interface for map-data providers.
type Provider interface {
	// FetchElements retrieves all categorized elements for a bounding box.
	FetchElements(ctx context.Context, bbox geo.BoundingBox) (*Elements, error)
	// Name returns the provider identifier for logging.
	Name() string
}

// Node is a raw map node. Tags are kept for nodes that carry metadata
// relevant to scoring (POI opening hours, camera type).
type Node struct {
	ID   int64
	Lat  float64
	Lng  float64
	Tags map[string]string
}

// Coordinate returns the node position as a geo.Coordinate.
func (n Node) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: n.Lat, Lng: n.Lng}
}

// Way is a raw road segment: an ordered sequence of node references plus
// tags. Immutable once fetched; the graph builder decides walkability.
type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    map[string]string
}

// Highway returns the way's highway class tag.
func (w Way) Highway() string {
	return w.Tags["highway"]
}

// Lit reports whether the way is tagged as street-lit.
func (w Way) Lit() bool {
	return w.Tags["lit"] == "yes"
}

// Surface returns the way's surface tag.
func (w Way) Surface() string {
	return w.Tags["surface"]
}

// HasSidewalk reports whether the way is tagged with a usable sidewalk.
func (w Way) HasSidewalk() bool {
	s := w.Tags["sidewalk"]
	return s != "" && s != "no" && s != "none"
}

// Name returns the way's display name.
func (w Way) Name() string {
	return w.Tags["name"]
}

// Elements holds the categorized result of one combined map-data query.
type Elements struct {
	// Roads are all ways carrying a highway tag.
	Roads []Way
	// Nodes indexes every raw node referenced by any element.
	Nodes map[int64]Node
	// Lamps are street lamp nodes.
	Lamps []Node
	// Cameras are surveillance camera nodes.
	Cameras []Node
	// Places are points of interest (amenities and shops).
	Places []Node
	// TransitStops are public transport stop nodes.
	TransitStops []Node
}

package routes

import (
	"errors"
	"fmt"
)

// Sentinel errors for route computation.
var (
	// ErrInvalidCoordinates indicates a malformed origin or destination.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrUpstream indicates the map-data upstream failed after exhausting
	// retries; the request cannot be served.
	ErrUpstream = errors.New("upstream data fetch failed")

	// ErrNoPath indicates the graph holds no walkable connection between
	// the endpoints. Callers respond with an empty route list, not a
	// failure.
	ErrNoPath = errors.New("no walkable path between endpoints")
)

// OutOfRangeError indicates the straight-line distance between origin and
// destination exceeds the configured maximum for a walking route.
type OutOfRangeError struct {
	MaxDistanceKm    float64
	ActualDistanceKm float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("destination out of range: %.1f km exceeds maximum %.1f km",
		e.ActualDistanceKm, e.MaxDistanceKm)
}

package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightwalk/nightwalk/internal/geo"
)

func TestSpatialGrid_Nearby(t *testing.T) {
	grid := geo.NewSpatialGrid[string](0.001) // ~110m cells
	center := geo.Coordinate{Lat: 51.5072, Lng: -0.1276}

	grid.Insert(geo.Coordinate{Lat: 51.5073, Lng: -0.1276}, "close")   // ~11m
	grid.Insert(geo.Coordinate{Lat: 51.5080, Lng: -0.1276}, "mid")     // ~89m
	grid.Insert(geo.Coordinate{Lat: 51.5172, Lng: -0.1276}, "distant") // ~1.1km

	items := grid.Nearby(center, 200)

	require.Len(t, items, 2)
	assert.Equal(t, "close", items[0], "results must be sorted by ascending distance")
	assert.Equal(t, "mid", items[1])
}

func TestSpatialGrid_NearbyAcrossCellBoundary(t *testing.T) {
	grid := geo.NewSpatialGrid[int](0.001)

	// Two points in adjacent cells, both within the query radius.
	grid.Insert(geo.Coordinate{Lat: 51.50005, Lng: -0.12700}, 1)
	grid.Insert(geo.Coordinate{Lat: 51.50095, Lng: -0.12700}, 2)

	items := grid.Nearby(geo.Coordinate{Lat: 51.5005, Lng: -0.1270}, 150)
	assert.Len(t, items, 2)
}

func TestSpatialGrid_CountNearby(t *testing.T) {
	grid := geo.NewSpatialGrid[int](0.001)
	center := geo.Coordinate{Lat: 51.5072, Lng: -0.1276}

	for i := 0; i < 5; i++ {
		grid.Insert(geo.Coordinate{Lat: 51.5072 + float64(i)*0.0001, Lng: -0.1276}, i)
	}
	grid.Insert(geo.Coordinate{Lat: 51.52, Lng: -0.1276}, 99)

	assert.Equal(t, 5, grid.CountNearby(center, 100))
	assert.Equal(t, 6, grid.Len())
}

func TestSpatialGrid_Empty(t *testing.T) {
	grid := geo.NewSpatialGrid[string](0.001)

	assert.Empty(t, grid.Nearby(geo.Coordinate{Lat: 51.5, Lng: -0.1}, 500))
	assert.Zero(t, grid.CountNearby(geo.Coordinate{Lat: 51.5, Lng: -0.1}, 500))
}

package geo

import (
	"math"
	"sort"
)

// SpatialGrid buckets items by their coordinates for O(1) proximity queries.
// Cell size is a caller-chosen trade-off between query radius and bucket
// occupancy: road and POI grids use ~110m cells (0.001 degrees), finer
// coverage work uses ~28m.
type SpatialGrid[T any] struct {
	cellSize float64
	cells    map[gridKey][]gridItem[T]
	size     int
}

type gridKey struct {
	row, col int
}

type gridItem[T any] struct {
	coord Coordinate
	value T
}

// NewSpatialGrid creates a grid with the given cell size in degrees.
func NewSpatialGrid[T any](cellSizeDegrees float64) *SpatialGrid[T] {
	return &SpatialGrid[T]{
		cellSize: cellSizeDegrees,
		cells:    make(map[gridKey][]gridItem[T]),
	}
}

// Insert adds an item at the given coordinate.
func (g *SpatialGrid[T]) Insert(c Coordinate, item T) {
	key := g.keyFor(c)
	g.cells[key] = append(g.cells[key], gridItem[T]{coord: c, value: item})
	g.size++
}

// Len returns the total number of inserted items.
func (g *SpatialGrid[T]) Len() int {
	return g.size
}

// Nearby returns all items within radiusMeters of the point, sorted by
// ascending distance. Only the cells overlapping the query circle are
// visited, so the cost is proportional to local density, not grid size.
func (g *SpatialGrid[T]) Nearby(c Coordinate, radiusMeters float64) []T {
	matches := g.collect(c, radiusMeters)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	items := make([]T, len(matches))
	for i, m := range matches {
		items[i] = m.value
	}
	return items
}

// CountNearby returns the number of items within radiusMeters of the point.
func (g *SpatialGrid[T]) CountNearby(c Coordinate, radiusMeters float64) int {
	return len(g.collect(c, radiusMeters))
}

type gridMatch[T any] struct {
	value    T
	distance float64
}

func (g *SpatialGrid[T]) collect(c Coordinate, radiusMeters float64) []gridMatch[T] {
	latRadius := radiusMeters / MetersPerDegreeLat
	lngRadius := radiusMeters / (MetersPerDegreeLat * math.Cos(c.Lat*math.Pi/180))

	minRow := int(math.Floor((c.Lat - latRadius) / g.cellSize))
	maxRow := int(math.Floor((c.Lat + latRadius) / g.cellSize))
	minCol := int(math.Floor((c.Lng - lngRadius) / g.cellSize))
	maxCol := int(math.Floor((c.Lng + lngRadius) / g.cellSize))

	var matches []gridMatch[T]
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, it := range g.cells[gridKey{row: row, col: col}] {
				d := FastDistance(c, it.coord)
				if d <= radiusMeters {
					matches = append(matches, gridMatch[T]{value: it.value, distance: d})
				}
			}
		}
	}
	return matches
}

func (g *SpatialGrid[T]) keyFor(c Coordinate) gridKey {
	return gridKey{
		row: int(math.Floor(c.Lat / g.cellSize)),
		col: int(math.Floor(c.Lng / g.cellSize)),
	}
}

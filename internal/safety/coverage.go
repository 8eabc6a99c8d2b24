package safety

import (
	"math"

	"github.com/nightwalk/nightwalk/internal/geo"
)

// CoverageGrid is a dense 2-D float intensity field over a bounding box,
// built once per request and sampled read-only afterward. It replaces
// per-edge proximity searches over lamps and incidents with O(1) lookups.
type CoverageGrid struct {
	bbox    geo.BoundingBox
	latCell float64 // cell height in degrees
	lngCell float64 // cell width in degrees
	rows    int
	cols    int
	cells   []float64
}

// NewCoverageGrid creates a grid over bbox with square cells of roughly
// cellSizeMeters on each side.
func NewCoverageGrid(bbox geo.BoundingBox, cellSizeMeters float64) *CoverageGrid {
	latCell := cellSizeMeters / geo.MetersPerDegreeLat
	meanLat := bbox.Center().Lat * math.Pi / 180
	lngCell := cellSizeMeters / (geo.MetersPerDegreeLat * math.Cos(meanLat))

	rows := int(math.Ceil((bbox.North-bbox.South)/latCell)) + 1
	cols := int(math.Ceil((bbox.East-bbox.West)/lngCell)) + 1

	return &CoverageGrid{
		bbox:    bbox,
		latCell: latCell,
		lngCell: lngCell,
		rows:    rows,
		cols:    cols,
		cells:   make([]float64, rows*cols),
	}
}

// Stamp accumulates intensity(distance) into every cell within radiusMeters
// of center. If maxValue > 0, each cell is capped at maxValue.
func (g *CoverageGrid) Stamp(center geo.Coordinate, radiusMeters float64, intensity func(distMeters float64) float64, maxValue float64) {
	rowRadius := int(math.Ceil(radiusMeters / geo.MetersPerDegreeLat / g.latCell))
	colRadius := int(math.Ceil(radiusMeters / (geo.MetersPerDegreeLat * math.Cos(center.Lat*math.Pi/180)) / g.lngCell))

	centerRow, centerCol, ok := g.cellAt(center)
	if !ok {
		return
	}

	for row := centerRow - rowRadius; row <= centerRow+rowRadius; row++ {
		if row < 0 || row >= g.rows {
			continue
		}
		for col := centerCol - colRadius; col <= centerCol+colRadius; col++ {
			if col < 0 || col >= g.cols {
				continue
			}

			d := geo.FastDistance(center, g.cellCenter(row, col))
			if d > radiusMeters {
				continue
			}

			idx := row*g.cols + col
			g.cells[idx] += intensity(d)
			if maxValue > 0 && g.cells[idx] > maxValue {
				g.cells[idx] = maxValue
			}
		}
	}
}

// Raise sets the cell containing c to at least value.
func (g *CoverageGrid) Raise(c geo.Coordinate, value float64) {
	row, col, ok := g.cellAt(c)
	if !ok {
		return
	}
	idx := row*g.cols + col
	if g.cells[idx] < value {
		g.cells[idx] = value
	}
}

// Sample returns the intensity of the cell containing c, or 0 outside the box.
func (g *CoverageGrid) Sample(c geo.Coordinate) float64 {
	row, col, ok := g.cellAt(c)
	if !ok {
		return 0
	}
	return g.cells[row*g.cols+col]
}

func (g *CoverageGrid) cellAt(c geo.Coordinate) (row, col int, ok bool) {
	row = int((c.Lat - g.bbox.South) / g.latCell)
	col = int((c.Lng - g.bbox.West) / g.lngCell)
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return 0, 0, false
	}
	return row, col, true
}

func (g *CoverageGrid) cellCenter(row, col int) geo.Coordinate {
	return geo.Coordinate{
		Lat: g.bbox.South + (float64(row)+0.5)*g.latCell,
		Lng: g.bbox.West + (float64(col)+0.5)*g.lngCell,
	}
}

package render

import (
	"math"
	"sort"

	"mazishark/habitat-api/internal/grid"
)

// cells adapts a grid.Grid to plotter.GridXYZ. Columns are longitudes and
// rows latitudes, both presented in ascending order whatever the storage
// order of the axes.
type cells struct {
	g    *grid.Grid
	lat  []float64
	lon  []float64
	rows []int
	cols []int
}

func newCells(g *grid.Grid) cells {
	lat, lon := g.Lat(), g.Lon()
	return cells{g: g, lat: lat, lon: lon, rows: ascending(lat), cols: ascending(lon)}
}

func ascending(axis []float64) []int {
	idx := make([]int, len(axis))
	for k := range idx {
		idx[k] = k
	}
	sort.SliceStable(idx, func(a, b int) bool { return axis[idx[a]] < axis[idx[b]] })
	return idx
}

func (c cells) Dims() (int, int) { return len(c.cols), len(c.rows) }
func (c cells) Z(col, row int) float64 { return c.g.At(c.rows[row], c.cols[col]) }
func (c cells) X(col int) float64 { return c.lon[c.cols[col]] }
func (c cells) Y(row int) float64 { return c.lat[c.rows[row]] }

// valueRange is the finite data range, or [0, 1] when there is no finite
// value to colour.
func (c cells) valueRange() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < c.g.NLat(); i++ {
		for j := 0; j < c.g.NLon(); j++ {
			v := c.g.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

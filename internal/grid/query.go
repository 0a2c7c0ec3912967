package grid

import "math"

// Point is the result of a nearest-neighbour lookup.
type Point struct {
	I int
	J int
	H float64
}

// Nearest resolves (lat, lon) to the closest grid cell by minimum absolute
// coordinate difference along each axis. Ties go to the lowest index. The
// axes are scanned linearly so unsorted axes are fine.
func (g *Grid) Nearest(lat, lon float64) Point {
	i := nearestIndex(g.lat, lat)
	j := nearestIndex(g.lon, lon)
	return Point{I: i, J: j, H: g.At(i, j)}
}

func nearestIndex(axis []float64, q float64) int {
	best := 0
	bestDist := math.Abs(axis[0] - q)
	for k := 1; k < len(axis); k++ {
		if d := math.Abs(axis[k] - q); d < bestDist {
			best, bestDist = k, d
		}
	}
	return clamp(best, 0, len(axis)-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LatMean returns, for every latitude row, the mean of its finite cells.
// A row without finite cells yields NaN.
func (g *Grid) LatMean() []float64 {
	out := make([]float64, len(g.lat))
	for i := range g.lat {
		var sum float64
		var n int
		for j := range g.lon {
			if v := g.At(i, j); !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		out[i] = meanOrNaN(sum, n)
	}
	return out
}

// LonMean is the column-wise counterpart of LatMean.
func (g *Grid) LonMean() []float64 {
	sums := make([]float64, len(g.lon))
	counts := make([]int, len(g.lon))
	for i := range g.lat {
		for j := range g.lon {
			if v := g.At(i, j); !math.IsNaN(v) {
				sums[j] += v
				counts[j]++
			}
		}
	}
	out := make([]float64, len(g.lon))
	for j := range out {
		out[j] = meanOrNaN(sums[j], counts[j])
	}
	return out
}

func meanOrNaN(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

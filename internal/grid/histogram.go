package grid

import "math"

const (
	HistogramBins = 10
	HistogramLow  = 0.0
	HistogramHigh = 1.0
)

// Histogram holds left bin edges and their counts, in ascending order.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// Total is the number of values that landed in a bin.
func (h Histogram) Total() int {
	var n int
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// Histogram bins the finite cells into HistogramBins equal bins over the
// closed range [HistogramLow, HistogramHigh]. Values outside the range are not
// counted and the last bin is closed on the right. When the grid holds no
// finite value both slices are empty.
func (g *Grid) Histogram() Histogram {
	finite := make([]float64, 0, len(g.vals))
	for _, v := range g.vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Histogram{Edges: []float64{}, Counts: []int{}}
	}
	return binFixed(finite, HistogramBins, HistogramLow, HistogramHigh)
}

func binFixed(vals []float64, bins int, lo, hi float64) Histogram {
	edges := make([]float64, bins+1)
	step := (hi - lo) / float64(bins)
	for k := range edges {
		edges[k] = lo + float64(k)*step
	}
	edges[bins] = hi

	counts := make([]int, bins)
	norm := float64(bins) / (hi - lo)
	for _, v := range vals {
		if v < lo || v > hi {
			continue
		}
		k := int((v - lo) * norm)
		if k >= bins {
			k = bins - 1
		}
		// Floating point rounding can put a value one bin off its edges.
		if k > 0 && v < edges[k] {
			k--
		} else if k < bins-1 && v >= edges[k+1] {
			k++
		}
		counts[k]++
	}
	return Histogram{Edges: edges[:bins], Counts: counts}
}

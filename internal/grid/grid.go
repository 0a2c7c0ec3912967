// Package grid holds the habitat index field and the queries answered over it.
package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrShapeMismatch = errors.New("grid shape does not match axes")
	ErrEmptyAxis     = errors.New("grid axis is empty")
)

// Grid is an immutable 2-D field indexed by latitude and longitude.
// Values are stored row-major: vals[i*len(lon) + j].
type Grid struct {
	vals []float64
	lat  []float64
	lon  []float64
}

// New validates that vals has len(lat)*len(lon) entries and takes ownership of
// the three slices.
func New(vals, lat, lon []float64) (*Grid, error) {
	if len(lat) == 0 || len(lon) == 0 {
		return nil, fmt.Errorf("%w: lat=%d lon=%d", ErrEmptyAxis, len(lat), len(lon))
	}
	if len(vals) != len(lat)*len(lon) {
		return nil, fmt.Errorf("%w: %d values for (%d, %d)", ErrShapeMismatch, len(vals), len(lat), len(lon))
	}
	return &Grid{vals: vals, lat: lat, lon: lon}, nil
}

// FromRows builds a grid from a slice of rows, one per latitude.
func FromRows(rows [][]float64, lat, lon []float64) (*Grid, error) {
	if len(rows) != len(lat) {
		return nil, fmt.Errorf("%w: %d rows for %d latitudes", ErrShapeMismatch, len(rows), len(lat))
	}
	vals := make([]float64, 0, len(lat)*len(lon))
	for i, row := range rows {
		if len(row) != len(lon) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d longitudes", ErrShapeMismatch, i, len(row), len(lon))
		}
		vals = append(vals, row...)
	}
	return New(vals, lat, lon)
}

func (g *Grid) NLat() int { return len(g.lat) }
func (g *Grid) NLon() int { return len(g.lon) }

// At returns H[i, j]. It panics on out-of-range indices like a slice would.
func (g *Grid) At(i, j int) float64 {
	return g.vals[i*len(g.lon)+j]
}

// Lat and Lon return copies of the coordinate axes.
func (g *Grid) Lat() []float64 { return append([]float64(nil), g.lat...) }
func (g *Grid) Lon() []float64 { return append([]float64(nil), g.lon...) }

// Axis summarises one coordinate axis.
type Axis struct {
	Size int
	Min  float64
	Max  float64
}

func (g *Grid) LatAxis() Axis { return axisOf(g.lat) }
func (g *Grid) LonAxis() Axis { return axisOf(g.lon) }

func axisOf(xs []float64) Axis {
	a := Axis{Size: len(xs), Min: xs[0], Max: xs[0]}
	for _, x := range xs[1:] {
		if x < a.Min {
			a.Min = x
		}
		if x > a.Max {
			a.Max = x
		}
	}
	return a
}

// Stats are NaN-ignoring summary statistics. All three are NaN when the grid
// holds no finite value.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int
}

func (g *Grid) Stats() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range g.vals {
		if math.IsNaN(v) {
			continue
		}
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
		s.Count++
	}
	if s.Count == 0 {
		return Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	}
	s.Mean = sum / float64(s.Count)
	return s
}

package grid

import (
	"errors"
	"math"
	"testing"
)

func exampleGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := FromRows([][]float64{
		{0.2, math.NaN()},
		{0.8, 0.4},
	}, []float64{10, 20}, []float64{100, 110})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return g
}

func TestNew_ShapeMismatch(t *testing.T) {
	_, err := New([]float64{1, 2, 3}, []float64{1, 2}, []float64{1, 2})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}

	_, err = FromRows([][]float64{{1, 2}, {3}}, []float64{1, 2}, []float64{1, 2})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for ragged rows, got %v", err)
	}
}

func TestNew_EmptyAxis(t *testing.T) {
	_, err := New(nil, nil, []float64{1})
	if !errors.Is(err, ErrEmptyAxis) {
		t.Fatalf("expected ErrEmptyAxis, got %v", err)
	}
}

func TestStats_IgnoresNaN(t *testing.T) {
	s := exampleGrid(t).Stats()
	if s.Min != 0.2 || s.Max != 0.8 {
		t.Fatalf("expected min=0.2 max=0.8, got %+v", s)
	}
	if math.Abs(s.Mean-(0.2+0.8+0.4)/3) > 1e-12 {
		t.Fatalf("unexpected mean %v", s.Mean)
	}
	if s.Count != 3 {
		t.Fatalf("expected 3 finite cells, got %d", s.Count)
	}
	if !(s.Min <= s.Mean && s.Mean <= s.Max) {
		t.Fatalf("expected min <= mean <= max, got %+v", s)
	}
}

func TestStats_AllNaN(t *testing.T) {
	g, err := New([]float64{math.NaN(), math.NaN()}, []float64{1}, []float64{1, 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := g.Stats()
	if !math.IsNaN(s.Min) || !math.IsNaN(s.Max) || !math.IsNaN(s.Mean) {
		t.Fatalf("expected NaN sentinels, got %+v", s)
	}
}

func TestAxes(t *testing.T) {
	g, err := New(make([]float64, 6), []float64{30, 10, 20}, []float64{-5, 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	lat := g.LatAxis()
	if lat.Size != 3 || lat.Min != 10 || lat.Max != 30 {
		t.Fatalf("unexpected lat axis %+v", lat)
	}
	lon := g.LonAxis()
	if lon.Size != 2 || lon.Min != -5 || lon.Max != 5 {
		t.Fatalf("unexpected lon axis %+v", lon)
	}

	// Callers get copies.
	g.Lat()[0] = 99
	if g.LatAxis().Max != 30 {
		t.Fatalf("expected Lat() to return a copy")
	}
}

package dataset

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"

	"mazishark/habitat-api/internal/grid"
	"mazishark/habitat-api/internal/metrics"
)

type ncVar struct {
	name  string
	dims  []string
	vals  any
	attrs map[string]any
}

// writeNC writes a NetCDF classic file with the given dimensions and variables.
func writeNC(t *testing.T, path string, dims []string, lengths []int, vars []ncVar) {
	t.Helper()

	h := cdf.NewHeader(dims, lengths)
	for _, v := range vars {
		var zero any
		switch v.vals.(type) {
		case []float32:
			zero = float32(0)
		case []int16:
			zero = int16(0)
		default:
			zero = float64(0)
		}
		h.AddVariable(v.name, v.dims, zero)
		for k, a := range v.attrs {
			h.AddAttribute(v.name, k, a)
		}
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer ff.Close()

	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatalf("cdf.Create: %v", err)
	}
	for _, v := range vars {
		if _, err := f.Writer(v.name, nil, nil).Write(v.vals); err != nil {
			t.Fatalf("write %s: %v", v.name, err)
		}
	}
}

func writeExample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFilename)
	writeNC(t, path, []string{"lat", "lon"}, []int{2, 2}, []ncVar{
		{name: "lat", dims: []string{"lat"}, vals: []float64{10, 20}},
		{name: "lon", dims: []string{"lon"}, vals: []float64{100, 110}},
		{
			name:  "H_index",
			dims:  []string{"lat", "lon"},
			vals:  []float32{0.25, -9999, 0.75, 0.5},
			attrs: map[string]any{"_FillValue": float32(-9999)},
		},
	})
	return path
}

func TestReadFile_Example(t *testing.T) {
	path := writeExample(t, t.TempDir())

	g, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if g.NLat() != 2 || g.NLon() != 2 {
		t.Fatalf("expected 2x2 grid, got %dx%d", g.NLat(), g.NLon())
	}
	if g.At(0, 0) != 0.25 || g.At(1, 0) != 0.75 || g.At(1, 1) != 0.5 {
		t.Fatalf("unexpected values: %v %v %v", g.At(0, 0), g.At(1, 0), g.At(1, 1))
	}
	if !math.IsNaN(g.At(0, 1)) {
		t.Fatalf("expected fill value to be masked as NaN, got %v", g.At(0, 1))
	}
	if lon := g.LonAxis(); lon.Min != 100 || lon.Max != 110 {
		t.Fatalf("unexpected lon axis %+v", lon)
	}
}

func TestReadFile_ScaleOffsetAndTranspose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packed.nc")
	// Stored as (lon, lat) with int16 packing.
	writeNC(t, path, []string{"lat", "lon"}, []int{2, 3}, []ncVar{
		{name: "lat", dims: []string{"lat"}, vals: []float64{-1, 1}},
		{name: "lon", dims: []string{"lon"}, vals: []float64{0, 1, 2}},
		{
			name: "H_index",
			dims: []string{"lon", "lat"},
			vals: []int16{0, 10, 20, 30, 40, -1},
			attrs: map[string]any{
				"scale_factor":  float64(0.01),
				"add_offset":    float64(0.5),
				"missing_value": int16(-1),
			},
		},
	})

	g, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if g.NLat() != 2 || g.NLon() != 3 {
		t.Fatalf("expected 2x3 grid, got %dx%d", g.NLat(), g.NLon())
	}
	// H[lat=1, lon=0] was stored at [lon=0, lat=1] = 10.
	if got := g.At(1, 0); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("expected 0.6, got %v", got)
	}
	if got := g.At(0, 2); math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("expected 0.9, got %v", got)
	}
	if !math.IsNaN(g.At(1, 2)) {
		t.Fatalf("expected missing_value to be masked, got %v", g.At(1, 2))
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadFile(filepath.Join(dir, "nope.nc")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	noIndex := filepath.Join(dir, "no_index.nc")
	writeNC(t, noIndex, []string{"lat", "lon"}, []int{1, 1}, []ncVar{
		{name: "lat", dims: []string{"lat"}, vals: []float64{0}},
		{name: "lon", dims: []string{"lon"}, vals: []float64{0}},
		{name: "other", dims: []string{"lat", "lon"}, vals: []float64{1}},
	})
	if _, err := ReadFile(noIndex); !errors.Is(err, ErrMissingVariable) {
		t.Fatalf("expected ErrMissingVariable, got %v", err)
	}

	noLon := filepath.Join(dir, "no_lon.nc")
	writeNC(t, noLon, []string{"lat", "x"}, []int{1, 1}, []ncVar{
		{name: "lat", dims: []string{"lat"}, vals: []float64{0}},
		{name: "H_index", dims: []string{"lat", "x"}, vals: []float64{1}},
	})
	if _, err := ReadFile(noLon); !errors.Is(err, ErrMissingCoordinates) {
		t.Fatalf("expected ErrMissingCoordinates, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.nc")
	if err := os.WriteFile(garbage, []byte("not a netcdf file"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	_, err := ReadFile(garbage)
	if err == nil {
		t.Fatalf("expected an error for a malformed file")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingVariable) || errors.Is(err, ErrMissingCoordinates) {
		t.Fatalf("expected a generic error, got %v", err)
	}
}

func TestReadFile_ShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.nc")
	writeNC(t, path, []string{"lat", "lon", "y"}, []int{2, 2, 3}, []ncVar{
		{name: "lat", dims: []string{"lat"}, vals: []float64{0, 1}},
		{name: "lon", dims: []string{"lon"}, vals: []float64{0, 1}},
		{name: "H_index", dims: []string{"lat", "y"}, vals: []float64{1, 2, 3, 4, 5, 6}},
	})
	if _, err := ReadFile(path); !errors.Is(err, grid.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestStore_LoadRecordsOutcome(t *testing.T) {
	dir := t.TempDir()
	path := writeExample(t, dir)
	m := metrics.New()
	s := NewStore(&Locator{Dirs: []string{dir}}, m)

	located, ok := s.Locate()
	if !ok || located != path {
		t.Fatalf("expected %q, got %q ok=%v", path, located, ok)
	}

	if _, err := s.Load(context.Background(), located); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := s.Load(context.Background(), filepath.Join(dir, "missing.nc")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{
		`habitat_dataset_loads_total{outcome="ok"} 1`,
		`habitat_dataset_loads_total{outcome="not_found"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output; body=%s", want, body)
		}
	}
}

func TestStore_LoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStore(nil, nil).Load(ctx, "whatever.nc"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

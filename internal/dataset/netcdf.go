package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/ctessum/cdf"

	"mazishark/habitat-api/internal/grid"
)

// ReadFile opens a NetCDF classic file and returns its H_index field on the
// lat/lon axes. Fill and missing values become NaN and CF packing
// (scale_factor, add_offset) is undone.
func ReadFile(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("parse netcdf header: %w", err)
	}

	vars := make(map[string]struct{})
	for _, v := range nc.Header.Variables() {
		vars[v] = struct{}{}
	}
	if _, ok := vars[IndexVariable]; !ok {
		return nil, ErrMissingVariable
	}
	_, hasLat := vars[LatVariable]
	_, hasLon := vars[LonVariable]
	if !hasLat || !hasLon {
		return nil, ErrMissingCoordinates
	}

	lat, err := readAxis(nc, LatVariable)
	if err != nil {
		return nil, err
	}
	lon, err := readAxis(nc, LonVariable)
	if err != nil {
		return nil, err
	}

	lengths := nc.Header.Lengths(IndexVariable)
	if len(lengths) != 2 {
		return nil, fmt.Errorf("%w: %s has %d dimensions, want 2", grid.ErrShapeMismatch, IndexVariable, len(lengths))
	}
	vals, err := readVariable(nc, IndexVariable)
	if err != nil {
		return nil, err
	}

	if isLonLat(nc.Header) {
		vals = transpose(vals, lengths[0], lengths[1])
	}
	return grid.New(vals, lat, lon)
}

func readAxis(nc *cdf.File, name string) ([]float64, error) {
	if n := len(nc.Header.Lengths(name)); n != 1 {
		return nil, fmt.Errorf("coordinate %s has %d dimensions, want 1", name, n)
	}
	return readVariable(nc, name)
}

func readVariable(nc *cdf.File, name string) ([]float64, error) {
	n := 1
	for _, l := range nc.Header.Lengths(name) {
		n *= l
	}
	if n == 0 {
		return []float64{}, nil
	}

	r := nc.Reader(name, nil, nil)
	buf := r.Zero(n)
	got, err := r.Read(buf)
	if err != nil && !(errors.Is(err, io.EOF) && got == n) {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if got != n {
		return nil, fmt.Errorf("read %s: short read, %d of %d values", name, got, n)
	}

	vals, err := toFloat64(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	decodeCF(nc.Header, name, vals)
	return vals, nil
}

func toFloat64(buf any) ([]float64, error) {
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported variable type %T", buf)
	}
}

// decodeCF masks _FillValue/missing_value cells and applies
// scale_factor/add_offset in place.
func decodeCF(h *cdf.Header, name string, vals []float64) {
	var masks []float64
	for _, attr := range []string{"_FillValue", "missing_value"} {
		if fill, ok := attrFloat(h.GetAttribute(name, attr)); ok && !math.IsNaN(fill) {
			masks = append(masks, fill)
		}
	}
	scale, hasScale := attrFloat(h.GetAttribute(name, "scale_factor"))
	offset, hasOffset := attrFloat(h.GetAttribute(name, "add_offset"))

	for i, v := range vals {
		masked := false
		for _, m := range masks {
			if v == m {
				masked = true
				break
			}
		}
		if masked {
			vals[i] = math.NaN()
			continue
		}
		if hasScale {
			v *= scale
		}
		if hasOffset {
			v += offset
		}
		vals[i] = v
	}
}

// attrFloat reads a numeric attribute. Attributes come back from the file as
// one-element slices; scalars are accepted too.
func attrFloat(a any) (float64, bool) {
	switch v := a.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int16:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int8:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	}
	return 0, false
}

// isLonLat reports whether H_index is laid out as (lon, lat).
func isLonLat(h *cdf.Header) bool {
	dims := h.Dimensions(IndexVariable)
	latDims := h.Dimensions(LatVariable)
	lonDims := h.Dimensions(LonVariable)
	if len(dims) != 2 || len(latDims) != 1 || len(lonDims) != 1 || latDims[0] == lonDims[0] {
		return false
	}
	return dims[0] == lonDims[0] && dims[1] == latDims[0]
}

func transpose(vals []float64, rows, cols int) []float64 {
	out := make([]float64, len(vals))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = vals[r*cols+c]
		}
	}
	return out
}

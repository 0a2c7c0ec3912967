// Package dataset finds the habitat index file on disk and loads it into a
// grid.Grid. Nothing is cached: every Load reopens the file.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mazishark/habitat-api/internal/grid"
	"mazishark/habitat-api/internal/metrics"
)

const (
	// DefaultFilename is the file the offline analysis writes.
	DefaultFilename = "habitat_index_H.nc"

	IndexVariable = "H_index"
	LatVariable   = "lat"
	LonVariable   = "lon"
)

var (
	ErrNotFound           = errors.New("dataset file not found")
	ErrMissingVariable    = errors.New("variable " + IndexVariable + " missing from dataset")
	ErrMissingCoordinates = errors.New("coordinates " + LatVariable + "/" + LonVariable + " missing from dataset")
)

// Store pairs a Locator with the NetCDF reader and records load metrics.
type Store struct {
	locator *Locator
	metrics *metrics.Metrics
}

func NewStore(locator *Locator, m *metrics.Metrics) *Store {
	return &Store{locator: locator, metrics: m}
}

// Locate returns the path of the dataset file, if one is discoverable.
func (s *Store) Locate() (string, bool) {
	if s == nil || s.locator == nil {
		return "", false
	}
	return s.locator.Locate()
}

// Load reads the grid stored at path.
func (s *Store) Load(ctx context.Context, path string) (*grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	g, err := ReadFile(path)
	if s != nil {
		s.metrics.ObserveDatasetLoad(loadOutcome(err), time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

func loadOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMissingVariable), errors.Is(err, ErrMissingCoordinates):
		return "missing_variable"
	default:
		return "error"
	}
}

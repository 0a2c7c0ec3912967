package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"mazishark/habitat-api/internal/grid"
	"mazishark/habitat-api/internal/metrics"
)

type apiOperation struct {
	Responses map[string]any `yaml:"responses"`
}

// apiDoc is the slice of api/openapi.yaml the contract tests look at.
type apiDoc struct {
	Paths map[string]map[string]apiOperation `yaml:"paths"`
}

func loadAPIDoc(t *testing.T) apiDoc {
	t.Helper()
	_, here, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	name := filepath.Join(filepath.Dir(here), "..", "..", "api", "openapi.yaml")

	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var doc apiDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return doc
}

func (d apiDoc) routes() []string {
	var out []string
	for path, ops := range d.Paths {
		for method := range ops {
			out = append(out, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(out)
	return out
}

func registeredRoutes(t *testing.T) []string {
	t.Helper()
	h := NewHandler(zerolog.New(io.Discard), fakeSource{}, metrics.New(), DefaultOptions())
	mux, ok := h.Router().(chi.Routes)
	if !ok {
		t.Fatalf("expected chi.Routes, got %T", h.Router())
	}

	var out []string
	err := chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		out = append(out, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("walk router: %v", err)
	}
	sort.Strings(out)
	return out
}

func TestOpenAPI_RoutesMatchRouter(t *testing.T) {
	documented := loadAPIDoc(t).routes()
	registered := registeredRoutes(t)

	if strings.Join(documented, "\n") != strings.Join(registered, "\n") {
		t.Fatalf("api/openapi.yaml and the router disagree\ndocumented:\n  %s\nregistered:\n  %s",
			strings.Join(documented, "\n  "), strings.Join(registered, "\n  "))
	}
}

// TestOpenAPI_ResponseCodes drives every route through the situations it
// can meet and checks that each status it answers with is documented, and
// that each documented status is reachable.
func TestOpenAPI_ResponseCodes(t *testing.T) {
	doc := loadAPIDoc(t)

	broken := fakeSource{
		locateFn: func() (string, bool) { return examplePath, true },
		loadFn: func(context.Context, string) (*grid.Grid, error) {
			return nil, errors.New("bad netcdf header")
		},
	}

	scenarios := []struct {
		name    string
		src     Source
		metrics *metrics.Metrics
		targets []string
	}{
		{
			name:    "dataset missing",
			src:     fakeSource{},
			targets: []string{"/health", "/readyz", "/meta", "/analyze", "/map", "/plot", "/predict?lat=1&lon=2", "/series", "/metrics"},
		},
		{
			name:    "dataset present",
			src:     exampleSource(t),
			metrics: metrics.New(),
			targets: []string{"/readyz", "/meta", "/analyze", "/map", "/plot", "/predict?lat=12&lon=104", "/series?agg=lat_mean", "/metrics"},
		},
		{
			name:    "bad input",
			src:     exampleSource(t),
			targets: []string{"/analyze?date=2024-13-01", "/predict?lat=north&lon=2", "/predict?lat=1"},
		},
		{
			name:    "dataset unreadable",
			src:     broken,
			targets: []string{"/meta", "/analyze", "/map", "/plot", "/predict?lat=1&lon=2", "/series"},
		},
	}

	seen := make(map[string]bool)
	for _, sc := range scenarios {
		router := newTestRouter(sc.src, sc.metrics, testOptions())
		for _, target := range sc.targets {
			rr := do(t, router, target)
			path, _, _ := strings.Cut(target, "?")
			status := strconv.Itoa(rr.Code)

			op, ok := doc.Paths[path]["get"]
			if !ok {
				t.Fatalf("%s: GET %s is not documented", sc.name, path)
			}
			if _, ok := op.Responses[status]; !ok {
				t.Fatalf("%s: GET %s answered %s, which api/openapi.yaml does not list", sc.name, target, status)
			}
			seen[path+" "+status] = true
		}
	}

	for path, ops := range doc.Paths {
		for status := range ops["get"].Responses {
			if !seen[path+" "+status] {
				t.Fatalf("GET %s documents %s but no request produced it", path, status)
			}
		}
	}
}

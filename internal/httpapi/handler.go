package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mazishark/habitat-api/internal/dataset"
	"mazishark/habitat-api/internal/grid"
	"mazishark/habitat-api/internal/metrics"
	"mazishark/habitat-api/internal/render"
	"mazishark/habitat-api/internal/validation"
)

// Source finds and opens the habitat index dataset. *dataset.Store
// satisfies it.
type Source interface {
	Locate() (string, bool)
	Load(ctx context.Context, path string) (*grid.Grid, error)
}

type RateLimitOptions struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type Options struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	RateLimit      RateLimitOptions
	Render         render.Options
	// ExpectedFile is reported by /analyze when no dataset is found.
	ExpectedFile string
}

func DefaultOptions() Options {
	return Options{
		RequestTimeout: 15 * time.Second,
		CORSOrigins:    []string{"*"},
		Render:         render.DefaultOptions(),
		ExpectedFile:   dataset.DefaultFilename,
	}
}

type Handler struct {
	log     zerolog.Logger
	source  Source
	metrics *metrics.Metrics
	opts    Options
}

func NewHandler(log zerolog.Logger, source Source, m *metrics.Metrics, opts Options) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.ExpectedFile == "" {
		opts.ExpectedFile = dataset.DefaultFilename
	}
	return &Handler{log: log, source: source, metrics: m, opts: opts}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestIDHeader)
	// Outside CORS, rate limiting and recovery so every response is logged.
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(h.cors())
	if h.opts.RateLimit.Enabled {
		r.Use(h.rateLimit())
	}
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	// Health
	r.Get("/health", h.handleHealth)
	r.Get("/readyz", h.handleReadyZ)

	// Dataset
	r.Get("/meta", h.handleMeta)
	r.Get("/analyze", h.handleAnalyze)
	r.Get("/map", h.handleMap)
	r.Get("/plot", h.handleMap)
	r.Get("/predict", h.handlePredict)
	r.Get("/series", h.handleSeries)

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		h.metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.Status(), elapsed)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("http_request")
	})
}

// routePattern keeps metric label cardinality bounded to registered routes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	path, ok := h.source.Locate()
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", "dataset not found", map[string]any{"expected_file": h.opts.ExpectedFile})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true, "path": path})
}

// load locates and opens the dataset. A missing file is reported as
// dataset.ErrNotFound so callers can pick their own fallback.
func (h *Handler) load(ctx context.Context) (*grid.Grid, string, error) {
	path, ok := h.source.Locate()
	if !ok {
		return nil, "", dataset.ErrNotFound
	}
	g, err := h.source.Load(ctx, path)
	if err != nil {
		return nil, path, err
	}
	return g, path, nil
}

func (h *Handler) writeDatasetError(w http.ResponseWriter, path string, err error) {
	if errors.Is(err, dataset.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "dataset not found", map[string]any{"expected_file": h.opts.ExpectedFile})
		return
	}
	h.log.Error().Err(err).Str("data_path", path).Msg("dataset load failed")
	h.writeError(w, http.StatusInternalServerError, "dataset_error", "failed to read dataset", map[string]any{"error": err.Error()})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		h.writeError(w, http.StatusBadRequest, "validation_failed", verr.Error(), verr.Details())
		return
	}
	h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
}

type axisSummary struct {
	Size int    `json:"size"`
	Min  number `json:"min"`
	Max  number `json:"max"`
}

func summarize(a grid.Axis) axisSummary {
	return axisSummary{Size: a.Size, Min: number(a.Min), Max: number(a.Max)}
}

type metaResponse struct {
	Path string      `json:"path"`
	Lat  axisSummary `json:"lat"`
	Lon  axisSummary `json:"lon"`
}

func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	g, path, err := h.load(r.Context())
	if err != nil {
		h.writeDatasetError(w, path, err)
		return
	}
	h.writeJSON(w, http.StatusOK, metaResponse{
		Path: path,
		Lat:  summarize(g.LatAxis()),
		Lon:  summarize(g.LonAxis()),
	})
}

type analyzeQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type statsBody struct {
	Min  number `json:"min"`
	Max  number `json:"max"`
	Mean number `json:"mean"`
}

type analyzeResponse struct {
	DataPath      string    `json:"data_path"`
	Stats         statsBody `json:"stats"`
	RequestedDate string    `json:"requested_date,omitempty"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := analyzeQuery{Date: r.URL.Query().Get("date")}
	if err := validation.Struct(&q); err != nil {
		h.writeValidationError(w, err)
		return
	}

	g, path, err := h.load(r.Context())
	if errors.Is(err, dataset.ErrNotFound) {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"message":       "No habitat index dataset found. Generate it before calling /analyze.",
			"expected_file": h.opts.ExpectedFile,
		})
		return
	}
	if err != nil {
		h.writeDatasetError(w, path, err)
		return
	}

	s := g.Stats()
	h.writeJSON(w, http.StatusOK, analyzeResponse{
		DataPath:      path,
		Stats:         statsBody{Min: number(s.Min), Max: number(s.Max), Mean: number(s.Mean)},
		RequestedDate: q.Date,
	})
}

func (h *Handler) handleMap(w http.ResponseWriter, r *http.Request) {
	g, path, err := h.load(r.Context())
	if err != nil {
		h.writeDatasetError(w, path, err)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := render.PNG(&buf, g, h.opts.Render); err != nil {
		h.log.Error().Err(err).Str("data_path", path).Msg("render failed")
		h.writeError(w, http.StatusInternalServerError, "render_error", "failed to render map", map[string]any{"error": err.Error()})
		return
	}
	h.metrics.ObserveRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="map.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type predictQuery struct {
	Lat string `query:"lat" validate:"required,finite"`
	Lon string `query:"lon" validate:"required,finite"`
}

type predictResponse struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	H    number  `json:"H"`
	I    *int    `json:"i,omitempty"`
	J    *int    `json:"j,omitempty"`
	Note string  `json:"note,omitempty"`
}

// fallbackH is returned by /predict when there is no dataset to sample.
const fallbackH = 0.5

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := predictQuery{Lat: r.URL.Query().Get("lat"), Lon: r.URL.Query().Get("lon")}
	if err := validation.Struct(&q); err != nil {
		h.writeValidationError(w, err)
		return
	}
	// Both parse: the finite rule already accepted them.
	lat, _ := strconv.ParseFloat(strings.TrimSpace(q.Lat), 64)
	lon, _ := strconv.ParseFloat(strings.TrimSpace(q.Lon), 64)

	g, path, err := h.load(r.Context())
	if errors.Is(err, dataset.ErrNotFound) {
		h.writeJSON(w, http.StatusOK, predictResponse{
			Lat:  lat,
			Lon:  lon,
			H:    fallbackH,
			Note: "No dataset found; returning a placeholder value.",
		})
		return
	}
	if err != nil {
		h.writeDatasetError(w, path, err)
		return
	}

	p := g.Nearest(lat, lon)
	h.writeJSON(w, http.StatusOK, predictResponse{
		Lat: lat,
		Lon: lon,
		H:   number(p.H),
		I:   &p.I,
		J:   &p.J,
	})
}

type histogramResponse struct {
	Type   grid.Aggregation `json:"type"`
	Bins   []float64        `json:"bins"`
	Counts []int            `json:"counts"`
}

func (h *Handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	agg := grid.ParseAggregation(r.URL.Query().Get("agg"))

	g, path, err := h.load(r.Context())
	if err != nil {
		h.writeDatasetError(w, path, err)
		return
	}

	s := g.Series(agg)
	switch s.Type {
	case grid.AggLatMean:
		h.writeJSON(w, http.StatusOK, map[string]any{"type": s.Type, "lat": s.Axis, "H": nullable(s.Means)})
	case grid.AggLonMean:
		h.writeJSON(w, http.StatusOK, map[string]any{"type": s.Type, "lon": s.Axis, "H": nullable(s.Means)})
	default:
		h.writeJSON(w, http.StatusOK, histogramResponse{
			Type:   s.Type,
			Bins:   s.Histogram.Edges,
			Counts: s.Histogram.Counts,
		})
	}
}

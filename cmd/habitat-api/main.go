package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mazishark/habitat-api/internal/config"
	"mazishark/habitat-api/internal/dataset"
	"mazishark/habitat-api/internal/httpapi"
	"mazishark/habitat-api/internal/metrics"
	"mazishark/habitat-api/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := httpapi.NewLogger("info")
		l.Fatal().Err(err).Msg("failed to load config")
	}

	logger := httpapi.NewLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store := dataset.NewStore(&dataset.Locator{
		Override: cfg.Data.Path,
		Filename: cfg.Data.Filename,
		Dirs:     dataset.DefaultSearchDirs(cfg.Data.SearchDirs...),
	}, m)

	if path, ok := store.Locate(); ok {
		logger.Info().Str("data_path", path).Msg("dataset located")
	} else {
		logger.Warn().Str("expected_file", cfg.Data.Filename).Msg("dataset not found; serving fallbacks until it appears")
	}

	renderOpts := render.DefaultOptions()
	renderOpts.Width = cfg.Render.Width
	renderOpts.Height = cfg.Render.Height

	h := httpapi.NewHandler(logger, store, m, httpapi.Options{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CORSOrigins:    cfg.CORS.AllowOrigins,
		RateLimit: httpapi.RateLimitOptions{
			Enabled:  cfg.RateLimit.Enabled,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		Render:       renderOpts,
		ExpectedFile: cfg.Data.Filename,
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("habitat-api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

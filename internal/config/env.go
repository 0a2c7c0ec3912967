package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

// envMappings maps environment variable names (lowercased) to config keys.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_addr":                "http.addr",
	"http_request_timeout":     "http.request_timeout",
	"http_read_header_timeout": "http.read_header_timeout",
	"http_shutdown_timeout":    "http.shutdown_timeout",
	"log_level":                "log.level",
	"mazi_data_path":           "data.path",
	"mazi_data_filename":       "data.filename",
	"mazi_data_dirs":           "data.search_dirs",
	"cors_allow_origins":       "cors.allow_origins",
	"rate_limit_enabled":       "rate_limit.enabled",
	"rate_limit_requests":      "rate_limit.requests",
	"rate_limit_window":        "rate_limit.window",
	"metrics_enabled":          "metrics.enabled",
	"render_width":             "render.width",
	"render_height":            "render.height",
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// sliceFields are given as comma-separated strings in the environment.
var sliceFields = []string{
	"data.search_dirs",
	"cors.allow_origins",
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

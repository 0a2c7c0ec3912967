// Package config builds the service configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"mazishark/habitat-api/internal/validation"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/habitat-api/config.yaml",
}

type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Data      DataConfig      `koanf:"data"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Render    RenderConfig    `koanf:"render"`
}

type HTTPConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
}

// DataConfig controls dataset discovery. Path, when it exists, wins over the
// search directories.
type DataConfig struct {
	Path       string   `koanf:"path"`
	Filename   string   `koanf:"filename" validate:"required"`
	SearchDirs []string `koanf:"search_dirs"`
}

type CORSConfig struct {
	AllowOrigins []string `koanf:"allow_origins"`
}

type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests" validate:"gt=0"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

type RenderConfig struct {
	Width  int `koanf:"width" validate:"gte=400"`
	Height int `koanf:"height" validate:"gte=300"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:              ":8000",
			RequestTimeout:    15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Data: DataConfig{
			Filename:   "habitat_index_H.nc",
			SearchDirs: []string{},
		},
		CORS: CORSConfig{AllowOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{
			Enabled:  false,
			Requests: 100,
			Window:   time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true},
		Render:  RenderConfig{Width: 1500, Height: 900},
	}
}

// Load reads .env (if present), then layers defaults, the YAML config file and
// the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// normalize applies the CORS rule that an empty allow-list means every origin.
func (c *Config) normalize() {
	origins := make([]string, 0, len(c.CORS.AllowOrigins))
	for _, o := range c.CORS.AllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c.CORS.AllowOrigins = origins
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/michalswi/jogjamap/dataset"
	"github.com/michalswi/jogjamap/mapview"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "5050"
	defaultReadTimeout   = 5 * time.Second
	defaultWriteTimeout  = 10 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultDatasetReload = 5 * time.Minute
	defaultLogLevel      = "info"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server ServerConfig
	Map    MapConfig
	Tiles  TilesConfig
	CORS   CORSConfig
	Log    LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MapConfig controls the dataset and viewer defaults.
type MapConfig struct {
	// DatasetPath is a YAML dataset file; empty uses the embedded dataset.
	DatasetPath string
	// DatasetReload is how long a loaded dataset file is reused before it is
	// read again. Zero keeps the first load forever.
	DatasetReload time.Duration
	Locale        dataset.Locale
	Theme         mapview.Theme
}

// TilesConfig controls how base map tiles reach the browser.
type TilesConfig struct {
	// ProxyAddr routes upstream tile fetches through a socks5:// or
	// http(s):// proxy. Empty connects directly.
	ProxyAddr string
	// Proxy serves tiles from /tiles instead of sending browsers upstream.
	Proxy bool
}

// CORSConfig lists origins allowed to call the JSON API and open sessions.
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string
}

// ValidationError is returned when configuration values are invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path. An empty path skips the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects values that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// Load resolves configuration with the precedence .env < OS env < WithEnvMap.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	values, err := environment(options)
	if err != nil {
		return Config{}, err
	}
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}
		return fallback
	}

	var invalid []string
	duration := func(key string, fallback time.Duration) time.Duration {
		raw := get(key, "")
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			invalid = append(invalid, key)
			return fallback
		}
		return d
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         get("SERVER_PORT", defaultPort),
			ReadTimeout:  duration("READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: duration("WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  duration("IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Map: MapConfig{
			DatasetPath:   get("DATASET_PATH", ""),
			DatasetReload: duration("DATASET_RELOAD", defaultDatasetReload),
		},
		Tiles: TilesConfig{ProxyAddr: get("PROXY_ADDR", "")},
		CORS:  CORSConfig{AllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "*"))},
		Log:   LogConfig{Level: strings.ToLower(get("LOG_LEVEL", defaultLogLevel))},
	}

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, "SERVER_PORT")
	}
	if locale, err := dataset.ParseLocale(get("DEFAULT_LOCALE", string(dataset.DefaultLocale))); err != nil {
		invalid = append(invalid, "DEFAULT_LOCALE")
	} else {
		cfg.Map.Locale = locale
	}
	if theme, err := mapview.ParseTheme(strings.ToLower(get("DEFAULT_THEME", string(mapview.ThemeLight)))); err != nil {
		invalid = append(invalid, "DEFAULT_THEME")
	} else {
		cfg.Map.Theme = theme
	}

	cfg.Tiles.Proxy = cfg.Tiles.ProxyAddr != ""
	if raw := get("TILE_PROXY", ""); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, "TILE_PROXY")
		} else {
			cfg.Tiles.Proxy = on
		}
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "LOG_LEVEL")
	}

	if len(invalid) > 0 {
		return Config{}, &ValidationError{fields: invalid}
	}
	return cfg, nil
}

func environment(options loaderOptions) (map[string]string, error) {
	values := map[string]string{}
	if options.envFile != "" {
		dot, err := godotenv.Read(options.envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", options.envFile, err)
		default:
			for k, v := range dot {
				values[k] = v
			}
		}
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[key] = value
		}
	}
	for k, v := range options.envMap {
		values[k] = v
	}
	return values, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

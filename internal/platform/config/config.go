// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20

	// DefaultClientRetryMaxAttempts is the default number of attempts per
	// request. A failed load is reported, not retried behind the user's back.
	DefaultClientRetryMaxAttempts = 1

	// DefaultClientRetryMultiplier is the default exponential backoff multiplier.
	DefaultClientRetryMultiplier = 2.0

	// DefaultClientRetryJitterFactor is the default jitter percentage (±25%).
	DefaultClientRetryJitterFactor = 0.25

	// DefaultClientCircuitMaxFailures is the default failures before circuit opens.
	DefaultClientCircuitMaxFailures = 5

	// DefaultClientCircuitHalfOpenLimit is the default successes to close circuit.
	DefaultClientCircuitHalfOpenLimit = 1

	// DefaultTransportMaxIdleConns is the default max idle connections.
	DefaultTransportMaxIdleConns = 10

	// DefaultTransportMaxIdleConnsPerHost is the default max idle connections per host.
	DefaultTransportMaxIdleConnsPerHost = 2

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultSourcePageSize is the largest page Airtable serves.
	DefaultSourcePageSize = 100

	// DefaultGalleryGap is the spacing between cards in pixels.
	DefaultGalleryGap = 32

	// DefaultPreferencesCacheBytes bounds the diskv in-memory cache.
	DefaultPreferencesCacheBytes = 64 << 10
)

// Source field dialects.
const (
	// DialectName addresses fields by their human readable names.
	DialectName = "name"

	// DialectID addresses fields by stable field IDs.
	DialectID = "id"
)

// Config is the root configuration structure.
type Config struct {
	App         AppConfig         `koanf:"app"         validate:"required"`
	Server      ServerConfig      `koanf:"server"      validate:"required"`
	Log         LogConfig         `koanf:"log"         validate:"required"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Client      ClientConfig      `koanf:"client"      validate:"required"`
	Source      SourceConfig      `koanf:"source"      validate:"required"`
	Gallery     GalleryConfig     `koanf:"gallery"     validate:"required"`
	Preferences PreferencesConfig `koanf:"preferences" validate:"required"`

	// Flags are static feature flag values, e.g. "grouped-display": "false".
	Flags map[string]string `koanf:"flags"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,hostname_port"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// ClientConfig contains HTTP client settings for the record source.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// SourceConfig locates the Airtable table holding the quotes. There is no
// default API key: it must come from a config file or APP_SOURCE_API_KEY.
type SourceConfig struct {
	Name     string       `koanf:"name"      validate:"required"`
	BaseURL  string       `koanf:"base_url"  validate:"required,url"`
	APIKey   string       `koanf:"api_key"   validate:"required"`
	BaseID   string       `koanf:"base_id"   validate:"required"`
	Table    string       `koanf:"table"     validate:"required"`
	View     string       `koanf:"view"`
	PageSize int          `koanf:"page_size" validate:"required,min=1,max=100"`
	Dialect  string       `koanf:"dialect"   validate:"required,oneof=name id"`
	Fields   FieldsConfig `koanf:"fields"    validate:"required"`
}

// FieldsConfig maps quote attributes to Airtable field names or IDs,
// depending on the dialect.
type FieldsConfig struct {
	Text     string `koanf:"text"     validate:"required"`
	Author   string `koanf:"author"   validate:"required"`
	Year     string `koanf:"year"     validate:"required"`
	URL      string `koanf:"url"      validate:"required"`
	Bio      string `koanf:"bio"      validate:"required"`
	Image    string `koanf:"image"    validate:"required"`
	Group    string `koanf:"group"    validate:"required"`
	Priority string `koanf:"priority" validate:"required"`
}

// GalleryConfig holds presentation defaults shared by both shells.
type GalleryConfig struct {
	Grouped             bool           `koanf:"grouped"`
	DefaultSort         string         `koanf:"default_sort"         validate:"required,oneof=shuffle asc desc priority"`
	Gap                 float64        `koanf:"gap"                  validate:"min=0"`
	Breakpoints         []int          `koanf:"breakpoints"          validate:"ascending,dive,min=1"`
	TerminalBreakpoints []int          `koanf:"terminal_breakpoints" validate:"ascending,dive,min=1"`
	LoadTimeout         time.Duration  `koanf:"load_timeout"         validate:"required,min=1s"`
	Carousel            CarouselConfig `koanf:"carousel"             validate:"required"`
}

// CarouselConfig sets the featured quote rotation timing.
type CarouselConfig struct {
	Interval time.Duration `koanf:"interval" validate:"required,min=100ms"`
	Fade     time.Duration `koanf:"fade"     validate:"min=0,ltfield=Interval"`
}

// PreferencesConfig configures where user preferences are persisted.
type PreferencesConfig struct {
	Dir          string `koanf:"dir"           validate:"required"`
	CacheBytes   uint64 `koanf:"cache_bytes"`
	DefaultTheme string `koanf:"default_theme" validate:"required,oneof=dark light"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-gallery",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "quote-gallery",
		"telemetry.sampling_rate": 1.0,

		"client.timeout":                           "15s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "200ms",
		"client.retry.max_interval":                "2s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		// Empty placeholders so APP_SOURCE_API_KEY and friends map onto
		// their keys. Validation still rejects them while empty.
		"source.api_key":         "",
		"source.base_id":         "",
		"source.table":           "",
		"source.name":            "airtable",
		"source.base_url":        "https://api.airtable.com",
		"source.view":            "Grid view",
		"source.page_size":       DefaultSourcePageSize,
		"source.dialect":         DialectID,
		"source.fields.text":     "fldCxgQmS602iTuI5",
		"source.fields.author":   "fldAew6lQ99g5qscS",
		"source.fields.year":     "fldKmiOa6DI3Z5pyy",
		"source.fields.url":      "fldqmfM3I3P9QoxjJ",
		"source.fields.bio":      "fldap1YTquRRffQg2",
		"source.fields.image":    "fldjcaetyXZolccCc",
		"source.fields.group":    "fldiEEAaSd9DCjUFA",
		"source.fields.priority": "fldRB1gLcKIIE7DNB",

		"gallery.grouped":              true,
		"gallery.default_sort":         "shuffle",
		"gallery.gap":                  DefaultGalleryGap,
		"gallery.breakpoints":          []int{768, 1024},
		"gallery.terminal_breakpoints": []int{80, 120},
		"gallery.load_timeout":         "30s",
		"gallery.carousel.interval":    "9s",
		"gallery.carousel.fade":        "1s",

		"preferences.dir":           defaultPreferencesDir(),
		"preferences.cache_bytes":   DefaultPreferencesCacheBytes,
		"preferences.default_theme": "light",
	}
}

// defaultPreferencesDir is $XDG_CONFIG_HOME/quote-gallery or a local
// directory when the user config dir is unknown.
func defaultPreferencesDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".quote-gallery"
	}

	return dir + string(os.PathSeparator) + "quote-gallery"
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	return LoadFrom("configs", profile)
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	if err := loadFileIfExists(k, dir+"/base.yaml"); err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		if err := loadFileIfExists(k, fmt.Sprintf("%s/%s.yaml", dir, profile)); err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with APP_ prefix
	if err := k.Load(env.Provider("APP_", ".", envKeyMapper(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKeyMapper turns APP_SOURCE_API_KEY into source.api_key. Known keys
// win so that underscores inside a key survive; anything else falls back to
// replacing every underscore with a dot.
func envKeyMapper(known []string) func(string) string {
	flat := make(map[string]string, len(known))
	for _, key := range known {
		flat[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, "APP_"))
		if key, ok := flat[name]; ok {
			return key
		}

		return strings.ReplaceAll(name, "_", ".")
	}
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}

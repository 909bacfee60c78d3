// Package config loads biblioteca's configuration using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults that callers and tests refer to by name. The rest live in
// defaults().
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 1 << 20

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	DefaultClientCircuitHalfOpenLimit = 3
	DefaultTransportIdleConnTimeout   = 90 * time.Second

	DefaultMonthlyBudget   = 500.0
	DefaultBudgetWarnRatio = 0.8
	DefaultTopVendors      = 5
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
	Storage   StorageConfig   `koanf:"storage"   validate:"required"`
	Cache     CacheConfig     `koanf:"cache"     validate:"required"`
	Budget    BudgetConfig    `koanf:"budget"    validate:"required"`
	Features  FeaturesConfig  `koanf:"features"`
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
	Path       string `koanf:"path"       validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"   validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"    validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	Enabled bool `koanf:"enabled"`
	// SubjectHeader carries the caller identity set by the upstream gateway.
	SubjectHeader string `koanf:"subject_header" validate:"required_if=Enabled true"`
}

// ClientConfig contains HTTP client settings for downstream services.
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
	MaxIdleConns        int           `koanf:"max_idle_conns"         validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"      validate:"required,min=1s"`
}

// ServicesConfig contains configuration for downstream services.
type ServicesConfig struct {
	// Catalog is the book catalog used to enrich reading logs.
	Catalog ServiceEndpointConfig `koanf:"catalog" validate:"required"`
}

// ServiceEndpointConfig contains configuration for a downstream service endpoint.
type ServiceEndpointConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Name    string `koanf:"name"     validate:"required"`
}

// StorageConfig selects where collections are persisted.
type StorageConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=memory sqlite postgres"`
	DSN    string `koanf:"dsn"    validate:"required_unless=Driver memory"`
	// Seed loads the sample library into empty collections on startup.
	Seed bool `koanf:"seed"`
}

// CacheConfig selects the dashboard summary cache.
type CacheConfig struct {
	Driver   string        `koanf:"driver"   validate:"required,oneof=none memory redis"`
	Addr     string        `koanf:"addr"     validate:"required_if=Driver redis"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"       validate:"min=0,max=15"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl"      validate:"min=0"`
}

// BudgetConfig contains spending budget settings.
type BudgetConfig struct {
	Monthly    float64 `koanf:"monthly"     validate:"gt=0"`
	WarnRatio  float64 `koanf:"warn_ratio"  validate:"gt=0,lt=1"`
	TopVendors int     `koanf:"top_vendors" validate:"min=1,max=50"`
	// Wishlist caps the estimated cost of wishlist items; zero disables the check.
	Wishlist float64 `koanf:"wishlist" validate:"min=0"`
}

// FeaturesConfig contains feature flags and tuning for optional features.
type FeaturesConfig struct {
	Flags             map[string]bool `koanf:"flags"`
	EnrichConcurrency int             `koanf:"enrich_concurrency" validate:"omitempty,min=1,max=32"`
}

// defaults holds every key so that APP_ variables can be matched against
// known keys.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "biblioteca",
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
		"telemetry.service_name":  "biblioteca",
		"telemetry.sampling_rate": 1.0,

		"auth.enabled":        false,
		"auth.subject_header": "X-User-ID",

		"client.timeout":                           "30s",
		"client.retry.max_attempts":                3,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  2.0,
		"client.retry.jitter_factor":               0.25,
		"client.circuit_breaker.max_failures":      5,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          100,
		"client.transport.max_idle_conns_per_host": 10,
		"client.transport.idle_conn_timeout":       DefaultTransportIdleConnTimeout.String(),

		"services.catalog.base_url": "https://openlibrary.org",
		"services.catalog.name":     "catalog",

		"storage.driver": "memory",
		"storage.dsn":    "",
		"storage.seed":   true,

		"cache.driver":   "memory",
		"cache.addr":     "",
		"cache.password": "",
		"cache.db":       0,
		"cache.prefix":   "biblioteca:",
		"cache.ttl":      "1m",

		"budget.monthly":     DefaultMonthlyBudget,
		"budget.warn_ratio":  DefaultBudgetWarnRatio,
		"budget.top_vendors": DefaultTopVendors,
		"budget.wishlist":    0.0,

		"features.flags.catalog_enrichment": true,
		"features.flags.dashboard_cache":    true,
		"features.enrich_concurrency":       4,
	}
}

// Load layers configuration, later layers winning: defaults,
// configs/base.yaml, configs/<profile>.yaml, then APP_ environment
// variables. Missing files are skipped. The result is not validated.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []struct{ layer, path string }{{"base config", "configs/base.yaml"}}
	if profile != "" {
		files = append(files, struct{ layer, path string }{
			fmt.Sprintf("profile config %q", profile),
			filepath.Join("configs", profile+".yaml"),
		})
	}

	for _, f := range files {
		if err := loadOptionalFile(k, f.path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f.layer, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKeyMapper(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKeyMapper maps APP_SECTION_KEY variables onto config keys. Underscores
// are ambiguous (APP_BUDGET_WARN_RATIO is budget.warn_ratio), so a variable
// that matches a known key once underscores are treated as separators maps to
// that key; anything else becomes a dotted path.
func envKeyMapper(known []string) func(string) string {
	index := make(map[string]string, len(known))
	for _, key := range known {
		index[strings.ReplaceAll(key, "_", ".")] = key
	}

	return func(s string) string {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "_", ".")
		if mapped, ok := index[key]; ok {
			return mapped
		}

		return key
	}
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}

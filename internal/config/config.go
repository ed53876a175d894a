package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/watt-media-api/internal/common"
	"github.com/noah-isme/watt-media-api/internal/offer"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	BaseURL            string
	RedisURL           string
	CORSAllowedOrigins []string
	TrustedProxies     common.TrustedProxies

	SiteSocialURL    string
	SiteContactEmail string

	OffersEnabled bool
	OfferScheme   offer.Scheme

	CatalogCacheTTL      time.Duration
	RateLimitOfferMax    int
	RateLimitOfferWindow time.Duration
	BodyLimitBytes       int64

	SecurityHeadersEnabled bool
	SecurityHSTSEnabled    bool

	Obs ObsConfig
}

// ObsConfig groups logging, metrics and tracing settings.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	ServiceName      string
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	scheme := offer.DefaultScheme()
	if prefix := strings.TrimSpace(k.String("OFFER_PREFIX")); prefix != "" {
		scheme.Prefix = strings.ToUpper(prefix)
	}
	var err error
	if scheme.MinDiscount, err = parseInt64(k.String("OFFER_MIN_DISCOUNT"), scheme.MinDiscount); err != nil {
		return nil, fmt.Errorf("OFFER_MIN_DISCOUNT: %w", err)
	}
	if scheme.MaxDiscount, err = parseInt64(k.String("OFFER_MAX_DISCOUNT"), scheme.MaxDiscount); err != nil {
		return nil, fmt.Errorf("OFFER_MAX_DISCOUNT: %w", err)
	}
	if _, ok := offer.Parse(scheme.ExampleCode, scheme); !ok {
		scheme.ExampleCode = scheme.SuggestExample()
	}

	proxies, err := common.ParseTrustedProxies(splitAndTrim(k.String("TRUSTED_PROXIES")))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		BaseURL:            strings.TrimSpace(k.String("BASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		TrustedProxies:     proxies,

		SiteSocialURL:    strings.TrimSpace(k.String("SITE_SOCIAL_URL")),
		SiteContactEmail: strings.TrimSpace(k.String("SITE_CONTACT_EMAIL")),

		OffersEnabled: parseBoolDefault(k.String("OFFERS_ENABLED"), true),
		OfferScheme:   scheme,

		CatalogCacheTTL:      parseDuration(k.String("CATALOG_CACHE_TTL"), "10m"),
		RateLimitOfferMax:    int(parseIntDefault(k.String("RATE_LIMIT_OFFER_MAX"), 30)),
		RateLimitOfferWindow: parseDuration(k.String("RATE_LIMIT_OFFER_WINDOW"), "1m"),
		BodyLimitBytes:       parseIntDefault(k.String("BODY_LIMIT_BYTES"), 16<<10),

		SecurityHeadersEnabled: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
		SecurityHSTSEnabled:    parseBool(k.String("SECURITY_HSTS_ENABLED")),

		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "watt"),
			MetricsBuckets:   k.String("OBS_HTTP_BUCKETS_MS"),
			TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING")),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			ServiceName:      valueOrDefault(k.String("OBS_SERVICE_NAME"), "watt-media-api"),
			PprofEnabled:     parseBool(k.String("OBS_ENABLE_PPROF")),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
	}

	if err := cfg.OfferScheme.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL != "" && !strings.HasPrefix(cfg.BaseURL, "/") {
		return nil, errors.New("BASE_URL must start with /")
	}
	if cfg.RateLimitOfferMax <= 0 {
		return nil, errors.New("RATE_LIMIT_OFFER_MAX must be positive")
	}
	if cfg.RateLimitOfferWindow <= 0 {
		return nil, errors.New("RATE_LIMIT_OFFER_WINDOW must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse integer %q: %w", trimmed, err)
	}
	return v, nil
}

func parseIntDefault(value string, fallback int64) int64 {
	v, err := parseInt64(value, fallback)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}

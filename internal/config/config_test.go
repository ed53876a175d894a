package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/watt-media-api/internal/offer"
)

func blankEnv() map[string]string {
	return map[string]string{
		"APP_ENV":                  "",
		"PORT":                     "",
		"BASE_URL":                 "",
		"REDIS_URL":                "",
		"CORS_ALLOWED_ORIGINS":     "",
		"TRUSTED_PROXIES":          "",
		"OFFERS_ENABLED":           "",
		"OFFER_PREFIX":             "",
		"OFFER_MIN_DISCOUNT":       "",
		"OFFER_MAX_DISCOUNT":       "",
		"CATALOG_CACHE_TTL":        "",
		"RATE_LIMIT_OFFER_MAX":     "",
		"RATE_LIMIT_OFFER_WINDOW":  "",
		"BODY_LIMIT_BYTES":         "",
		"SECURITY_HEADERS_ENABLED": "",
		"SECURITY_HSTS_ENABLED":    "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(blankEnv())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Empty(t, cfg.BaseURL)
	require.Empty(t, cfg.RedisURL)
	require.True(t, cfg.OffersEnabled)
	require.Equal(t, "SEASONSGREETINGS", cfg.OfferScheme.Prefix)
	require.EqualValues(t, 1, cfg.OfferScheme.MinDiscount)
	require.EqualValues(t, 500, cfg.OfferScheme.MaxDiscount)
	require.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 30, cfg.RateLimitOfferMax)
	require.Equal(t, time.Minute, cfg.RateLimitOfferWindow)
	require.True(t, cfg.SecurityHeadersEnabled)
	require.False(t, cfg.SecurityHSTSEnabled)
	require.False(t, cfg.IsProduction())
	require.Empty(t, cfg.TrustedProxies)
}

func TestLoadTrustedProxies(t *testing.T) {
	env := blankEnv()
	env["TRUSTED_PROXIES"] = "10.0.0.0/8, 192.0.2.1"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Len(t, cfg.TrustedProxies, 2)

	env["TRUSTED_PROXIES"] = "not-an-ip"
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "TRUSTED_PROXIES")
}

func TestLoadOverrides(t *testing.T) {
	env := blankEnv()
	env["APP_ENV"] = "production"
	env["PORT"] = ":9090"
	env["BASE_URL"] = "/watt-media-website"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, https://b.example ,"
	env["OFFERS_ENABLED"] = "false"
	env["OFFER_PREFIX"] = "spring"
	env["OFFER_MIN_DISCOUNT"] = "5"
	env["OFFER_MAX_DISCOUNT"] = "50"
	env["RATE_LIMIT_OFFER_WINDOW"] = "30s"
	env["CATALOG_CACHE_TTL"] = "not-a-duration"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)

	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "/watt-media-website", cfg.BaseURL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.OffersEnabled)
	require.Equal(t, "SPRING", cfg.OfferScheme.Prefix)
	require.Equal(t, "SPRING25", cfg.OfferScheme.ExampleCode)
	require.EqualValues(t, 5, cfg.OfferScheme.MinDiscount)
	require.EqualValues(t, 50, cfg.OfferScheme.MaxDiscount)
	require.Equal(t, 30*time.Second, cfg.RateLimitOfferWindow)
	require.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
}

func TestLoadDerivesExampleCodeWithinBounds(t *testing.T) {
	env := blankEnv()
	env["OFFER_MAX_DISCOUNT"] = "20"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "SEASONSGREETINGS20", cfg.OfferScheme.ExampleCode)
	_, ok := offer.Parse(cfg.OfferScheme.ExampleCode, cfg.OfferScheme)
	require.True(t, ok)

	env = blankEnv()
	env["OFFER_MIN_DISCOUNT"] = "30"
	cfg, err = LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "SEASONSGREETINGS30", cfg.OfferScheme.ExampleCode)
}

func TestLoadRejectsInvalidScheme(t *testing.T) {
	env := blankEnv()
	env["OFFER_MIN_DISCOUNT"] = "100"
	env["OFFER_MAX_DISCOUNT"] = "10"
	_, err := LoadForTests(env)
	require.Error(t, err)

	env = blankEnv()
	env["OFFER_MAX_DISCOUNT"] = "lots"
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "OFFER_MAX_DISCOUNT")
}

func TestLoadRejectsRelativeBaseURL(t *testing.T) {
	env := blankEnv()
	env["BASE_URL"] = "watt-media-website"
	_, err := LoadForTests(env)
	require.Error(t, err)
}

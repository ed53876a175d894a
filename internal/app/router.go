// Package app assembles the HTTP service from its parts.
package app

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/watt-media-api/internal/catalog"
	"github.com/noah-isme/watt-media-api/internal/common"
	"github.com/noah-isme/watt-media-api/internal/health"
	"github.com/noah-isme/watt-media-api/internal/obs"
	"github.com/noah-isme/watt-media-api/internal/offer"
	"github.com/noah-isme/watt-media-api/internal/paths"
	"github.com/noah-isme/watt-media-api/internal/ratelimit"
	"github.com/noah-isme/watt-media-api/internal/resilience"
	"github.com/noah-isme/watt-media-api/internal/security"
	"github.com/noah-isme/watt-media-api/internal/site"
)

// App is the assembled service.
type App struct {
	Router  http.Handler
	Catalog *catalog.Service
}

// NewRouter builds the service handler.
func NewRouter(deps Dependencies) (http.Handler, error) {
	a, err := New(deps)
	if err != nil {
		return nil, err
	}
	return a.Router, nil
}

// New assembles the service. Health, metrics and pprof are served at the
// root; the public API is served under the configured base path.
func New(deps Dependencies) (*App, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	logger := deps.Logger
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, registry)
		resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, registry)
	}

	resolver := paths.NewResolver(cfg.BaseURL)
	cacheBreaker := resilience.NewBreaker(resilience.Options{Name: "catalog_cache", Logger: logger})
	catalogService := catalog.NewService(catalog.ServiceConfig{
		Catalog:  deps.Catalog,
		Resolver: resolver,
		Cache:    catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL).WithBreaker(cacheBreaker),
		Logger:   logger,
	})
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Service:       catalogService,
		Scheme:        cfg.OfferScheme,
		OffersEnabled: cfg.OffersEnabled,
	})
	offerHandler := offer.NewHandler(offer.HandlerConfig{Scheme: cfg.OfferScheme, Enabled: cfg.OffersEnabled})
	siteHandler := site.Handler{Navigation: site.NewNavigation(site.NavigationConfig{
		Resolver:     resolver,
		SocialURL:    cfg.SiteSocialURL,
		ContactEmail: cfg.SiteContactEmail,
	})}
	offerLimit := ratelimit.Handler{
		Limiter: NewLimiter(deps.Redis),
		Config: ratelimit.Config{
			Name:   "offer_check",
			Key:    ratelimit.ByClientIP("offer"),
			Window: cfg.RateLimitOfferWindow,
			Max:    cfg.RateLimitOfferMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	pricingLimit := offerLimit
	pricingLimit.Config.Match = func(r *http.Request) bool {
		return cfg.OffersEnabled && strings.TrimSpace(r.URL.Query().Get("code")) != ""
	}
	healthHandler := health.Handler{Probes: deps.probes()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfg.TrustedProxies.RealIP)
	r.Use(middleware.Recoverer)
	if deps.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Obs.MetricsEnabled {
		httpMetrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), registry)
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:                cfg.SecurityHeadersEnabled,
		EnableHSTS:            cfg.SecurityHSTSEnabled,
		HSTSIncludeSubdomains: true,
	}.Middleware)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	api := chi.NewRouter()
	api.Use(security.CORS(cfg.CORSAllowedOrigins))
	api.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	api.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "resource not found", nil)
	})
	api.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	api.Route("/api/v1", func(v chi.Router) {
		v.Get("/services", catalogHandler.Services)
		v.With(pricingLimit.Middleware).Get("/pricing", catalogHandler.Pricing)
		v.Get("/navigation", siteHandler.Get)
		v.Route("/offers", func(o chi.Router) {
			o.Get("/scheme", offerHandler.Scheme)
			o.With(offerLimit.Middleware).Post("/check", offerHandler.Check)
		})
	})
	r.Handle("/*", resolver.Middleware(api))

	return &App{Router: r, Catalog: catalogService}, nil
}

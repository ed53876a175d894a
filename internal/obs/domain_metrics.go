package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OfferChecksTotal counts offer code checks by outcome (success, neutral, invalid).
	OfferChecksTotal *prometheus.CounterVec
	// CatalogCacheTotal counts discounted catalog cache lookups by result (hit, miss, error, bypass).
	CatalogCacheTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by the rate limiter per route.
	RateLimitedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OfferChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offer_checks_total",
			Help:      "Count of offer code checks by outcome.",
		}, []string{"result"})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of discounted catalog cache lookups by result.",
		}, []string{"result"})
		RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by the rate limiter.",
		}, []string{"route"})

		mustRegisterCollector(reg, OfferChecksTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OfferChecksTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
		mustRegisterCollector(reg, RateLimitedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateLimitedTotal = v
			}
		})
	})
}

// CountOfferCheck records an offer check outcome. It is a no-op until domain
// metrics are registered.
func CountOfferCheck(result string) {
	if OfferChecksTotal != nil {
		OfferChecksTotal.WithLabelValues(result).Inc()
	}
}

// CountCatalogCache records a catalog cache lookup result.
func CountCatalogCache(result string) {
	if CatalogCacheTotal != nil {
		CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

// CountRateLimited records a rejected request for route.
func CountRateLimited(route string) {
	if RateLimitedTotal != nil {
		RateLimitedTotal.WithLabelValues(route).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}

package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/watt-media-api/internal/catalog"
	"github.com/noah-isme/watt-media-api/internal/config"
	"github.com/noah-isme/watt-media-api/internal/health"
	"github.com/noah-isme/watt-media-api/internal/ratelimit"
)

// Dependencies enumerates what the router needs. Redis is optional.
type Dependencies struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Catalog        *catalog.Catalog
	Redis          redis.UniversalClient
	Registry       *prometheus.Registry
	TracingEnabled bool
}

func (d Dependencies) validate() error {
	if d.Config == nil {
		return errors.New("app: config is required")
	}
	if d.Catalog == nil {
		return errors.New("app: catalog is required")
	}
	return nil
}

// NewLimiter returns a Redis sliding window limiter when a client is
// configured and a per-process limiter otherwise.
func NewLimiter(rdb redis.UniversalClient) ratelimit.Limiter {
	if rdb != nil {
		return ratelimit.SlidingWindow{Client: rdb, Prefix: "ratelimit:"}
	}
	return ratelimit.NewMemory("ratelimit:")
}

func (d Dependencies) probes() map[string]health.Probe {
	probes := map[string]health.Probe{
		"catalog": func(context.Context) error {
			if len(d.Catalog.Groups) == 0 {
				return errors.New("catalog empty")
			}
			return nil
		},
	}
	if d.Redis != nil {
		probes["redis"] = health.RedisProbe(d.Redis)
	}
	return probes
}

package health

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/watt-media-api/internal/common"
)

// Probe checks a single dependency. It must honour ctx.
type Probe func(ctx context.Context) error

var draining atomic.Bool

// SetReady flips the process-wide readiness flag. Shutdown sets it to false
// so load balancers stop routing before the server drains.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// IsReady reports the readiness flag.
func IsReady() bool {
	return !draining.Load()
}

// RedisProbe pings client.
func RedisProbe(client redis.UniversalClient) Probe {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis client not configured")
		}
		return client.Ping(ctx).Err()
	}
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently and reports 503 if any fails or the
// process is shutting down.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}

	status := h.probe(r.Context())
	healthy := true
	for _, v := range status {
		if v != "ok" {
			healthy = false
			break
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) probe(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu     sync.Mutex
		status = make(map[string]string, len(names))
		g      errgroup.Group
	)
	for _, name := range names {
		probe := h.Probes[name]
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, h.timeout())
			defer cancel()
			result := "ok"
			if err := probe(probeCtx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			status[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return status
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.Timeout
}

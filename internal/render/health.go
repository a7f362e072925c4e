package render

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultHealthTTL = time.Minute

// Health is a point-in-time reachability probe of the render service.
type Health struct {
	Reachable bool      `json:"reachable"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// CachedHealth wraps a Client so /status requests do not hit the render
// service more than once per TTL.
type CachedHealth struct {
	client Client
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Health
}

func NewCachedHealth(client Client, logger *slog.Logger) *CachedHealth {
	return &CachedHealth{
		client: client,
		ttl:    defaultHealthTTL,
		logger: logger,
	}
}

// Get returns the cached probe if fresh, otherwise probes again.
func (h *CachedHealth) Get(ctx context.Context) Health {
	h.mu.RLock()
	if h.cached != nil && time.Since(h.cached.CheckedAt) < h.ttl {
		res := *h.cached
		h.mu.RUnlock()
		return res
	}
	h.mu.RUnlock()

	return h.Refresh(ctx)
}

// Refresh probes the render service regardless of cache freshness.
func (h *CachedHealth) Refresh(ctx context.Context) Health {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := Health{Reachable: true, CheckedAt: time.Now()}
	if err := h.client.Health(ctx); err != nil {
		h.logger.Warn("render health probe failed", "error", err)
		res.Reachable = false
		res.Error = err.Error()
	}
	h.cached = &res
	return res
}

func (h *CachedHealth) Invalidate() {
	h.mu.Lock()
	h.cached = nil
	h.mu.Unlock()
}

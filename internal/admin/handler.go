// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
)

type DatabaseBackend interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

type RedisBackend interface {
	Ping(ctx context.Context) error
	PoolStats() *redis.PoolStats
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

// HandlerConfig fields are optional. A missing backend is reported as
// unhealthy and a missing counter as zero.
type HandlerConfig struct {
	Database DatabaseBackend
	Redis    RedisBackend
	Users    Counter
	Posts    Counter
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// RegisterRoutes mounts the administrator area behind adminOnly and the
// moderation page behind moderatorOnly.
func (h *Handler) RegisterRoutes(r chi.Router, adminOnly, moderatorOnly func(http.Handler) http.Handler) {
	r.With(moderatorOnly).Get("/moderate", h.Moderate)

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.Dashboard)
		r.Get("/stats", h.Stats)
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page(w, r, "For administrators!")
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	page(w, r, "For comment moderators!")
}

func page(w http.ResponseWriter, r *http.Request, message string) {
	core.OK(w, PageResponse{
		Message: message,
		Viewer:  identity.FromContext(r.Context()).Handle(),
	})
}

// Stats reports content totals next to backend health and pool numbers.
// Backend pings never fail the request; a failed count does.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var resp StatsResponse

	var probes errgroup.Group
	if db := h.cfg.Database; db != nil {
		probes.Go(func() error {
			resp.Database = BackendStatus{Healthy: db.Ping(ctx) == nil, Pool: dbPool(db.Stats())}
			return nil
		})
	}
	if rdb := h.cfg.Redis; rdb != nil {
		probes.Go(func() error {
			resp.Redis = BackendStatus{Healthy: rdb.Ping(ctx) == nil, Pool: redisPool(rdb.PoolStats())}
			return nil
		})
	}

	counts, gctx := errgroup.WithContext(ctx)
	countInto(gctx, counts, "users", h.cfg.Users, &resp.Content.Users)
	countInto(gctx, counts, "posts", h.cfg.Posts, &resp.Content.Posts)

	countErr := counts.Wait()
	_ = probes.Wait() //nolint:errcheck // probes report through resp
	if countErr != nil {
		core.InternalServerError(w, countErr)
		return
	}

	resp.Runtime = readRuntime()
	core.OK(w, resp)
}

func countInto(ctx context.Context, g *errgroup.Group, name string, c Counter, dst *int) {
	if c == nil {
		return
	}
	g.Go(func() error {
		n, err := c.Count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		*dst = n
		return nil
	})
}

func dbPool(s sql.DBStats) map[string]any {
	return map[string]any{
		"max_open":        s.MaxOpenConnections,
		"open":            s.OpenConnections,
		"in_use":          s.InUse,
		"idle":            s.Idle,
		"wait_count":      s.WaitCount,
		"wait_duration":   s.WaitDuration.String(),
		"max_idle_closed": s.MaxIdleClosed,
		"lifetime_closed": s.MaxLifetimeClosed,
	}
}

func redisPool(s *redis.PoolStats) map[string]any {
	if s == nil {
		return nil
	}
	return map[string]any{
		"hits":        s.Hits,
		"misses":      s.Misses,
		"timeouts":    s.Timeouts,
		"total_conns": s.TotalConns,
		"idle_conns":  s.IdleConns,
		"stale_conns": s.StaleConns,
	}
}

func readRuntime() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  m.HeapAlloc,
		NumGC:      m.NumGC,
	}
}

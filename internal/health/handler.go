// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

const probeTimeout = 2 * time.Second

const (
	statusOK           = "ok"
	statusDegraded     = "degraded"
	statusNotReady     = "not_ready"
	statusShuttingDown = "shutting_down"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is a backing service that must answer before the instance
// takes traffic.
type Dependency struct {
	Name    string
	Checker Checker
}

// Handler serves the orchestrator probes. Liveness only fails once
// shutdown begins; readiness also pings every dependency.
type Handler struct {
	deps     []Dependency
	started  time.Time
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(deps ...Dependency) *Handler {
	h := &Handler{deps: deps, started: time.Now()}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) SetReady(ready bool) { h.ready.Store(ready) }

func (h *Handler) SetShutdown(shutdown bool) { h.shutdown.Store(shutdown) }

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		respond(w, http.StatusServiceUnavailable, StatusResponse{Status: statusShuttingDown})
		return
	}
	respond(w, http.StatusOK, StatusResponse{
		Status: statusOK,
		Uptime: time.Since(h.started).Truncate(time.Second).String(),
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.shutdown.Load():
		respond(w, http.StatusServiceUnavailable, ReadinessResponse{Status: statusShuttingDown})
		return
	case !h.ready.Load():
		respond(w, http.StatusServiceUnavailable, ReadinessResponse{Status: statusNotReady})
		return
	}

	checks := h.probeAll(r.Context())
	for _, c := range checks {
		if !c.Healthy {
			respond(w, http.StatusServiceUnavailable, ReadinessResponse{Status: statusDegraded, Checks: checks})
			return
		}
	}
	respond(w, http.StatusOK, ReadinessResponse{Status: statusOK, Checks: checks})
}

// probeAll pings dependencies in parallel. Each probe owns its result slot
// and its own deadline, so a slow dependency cannot starve the others.
func (h *Handler) probeAll(ctx context.Context) []HealthCheck {
	checks := make([]HealthCheck, len(h.deps))

	var g errgroup.Group
	for i, dep := range h.deps {
		g.Go(func() error {
			checks[i] = probe(ctx, dep)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probes report through their slot

	return checks
}

func probe(ctx context.Context, dep Dependency) HealthCheck {
	if dep.Checker == nil {
		return HealthCheck{Name: dep.Name, Message: dep.Name + " checker not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := dep.Checker.Ping(ctx)
	check := HealthCheck{
		Name:    dep.Name,
		Healthy: err == nil,
		Latency: time.Since(start).String(),
	}
	if err != nil {
		check.Message = "ping failed"
	}
	return check
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Cache-Control", "no-store")
	core.JSON(w, status, body)
}

type StatusResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks,omitempty"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

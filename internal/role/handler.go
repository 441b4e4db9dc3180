// AngelaMos | 2026
// handler.go

package role

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

type Response struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	IsDefault   bool     `json:"is_default"`
	IsAdmin     bool     `json:"is_admin"`
}

type ListResponse struct {
	Roles []Response `json:"roles"`
}

func ToResponse(r *Role) Response {
	return Response{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: r.Permissions.Names(),
		IsDefault:   r.IsDefault,
		IsAdmin:     r.IsAdmin,
	}
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts role administration. Every route sits behind
// adminOnly.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(adminOnly)

		r.Get("/admin/roles", h.List)
		r.Put("/admin/roles/{name}/permissions/{permission}", h.Grant)
		r.Delete("/admin/roles/{name}/permissions/{permission}", h.Revoke)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := ListResponse{Roles: make([]Response, 0, len(roles))}
	for i := range roles {
		resp.Roles = append(resp.Roles, ToResponse(&roles[i]))
	}

	core.OK(w, resp)
}

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.service.Grant)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.service.Revoke)
}

func (h *Handler) change(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, name string, p Permission) (*Role, error),
) {
	perm, err := ParsePermission(chi.URLParam(r, "permission"))
	if err != nil {
		core.BadRequest(w, "unknown permission")
		return
	}

	role, err := op(r.Context(), chi.URLParam(r, "name"), perm)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResponse(role))
}

// AngelaMos | 2026
// handler.go

package post

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
	"github.com/carterperez-dev/templates/go-microblog/internal/session"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireLogin func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(requireLogin)

		r.Get("/", h.Feed)
		r.Post("/", h.Create)
	})
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, FeedResponse{
		Posts:    ToResponseList(posts),
		Flashes:  session.PopFlashes(r.Context()),
		CanWrite: identity.FromContext(r.Context()).Can(role.Write),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	author := identity.FromContext(r.Context())

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	p, err := identity.PermissionRequired(author, role.Write, func() (*Post, error) {
		if err := h.validator.Struct(req); err != nil {
			return nil, core.ValidationError(core.FormatValidationError(err))
		}
		return h.service.Create(r.Context(), author, req.Body)
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "you are not allowed to post")
		case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrUnauthorized):
			core.JSONError(w, err)
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToResponse(p))
}

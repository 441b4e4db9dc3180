// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/post"
	"github.com/carterperez-dev/templates/go-microblog/internal/session"
)

type PostLister interface {
	ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
}

type Handler struct {
	service   *Service
	posts     PostLister
	validator *validator.Validate
}

func NewHandler(service *Service, posts PostLister) *Handler {
	return &Handler{
		service:   service,
		posts:     posts,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireLogin func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(requireLogin)

		r.Get("/users/{username}", h.Page)
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
	})
}

// Page shows a user's public profile with their posts, newest first.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), u.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, PageResponse{
		User:  ToProfileResponse(u),
		Posts: post.ToResponseList(posts),
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), identity.FromContext(r.Context()).UserID())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPrivateProfileResponse(u))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := identity.FromContext(r.Context()).UserID()

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
		case errors.Is(err, core.ErrUnauthorized):
			core.Unauthorized(w, "")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	session.AddFlash(r.Context(), "success", "Your profile has been updated.")
	core.OK(w, ToPrivateProfileResponse(u))
}

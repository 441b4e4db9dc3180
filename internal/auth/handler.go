// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/session"
	"github.com/carterperez-dev/templates/go-microblog/internal/user"
)

const LoginPath = "/auth/login"

type Handler struct {
	service   *Service
	sessions  *session.Manager
	remember  *RememberManager
	validator *validator.Validate
}

func NewHandler(
	service *Service,
	sessions *session.Manager,
	remember *RememberManager,
) *Handler {
	return &Handler{
		service:   service,
		sessions:  sessions,
		remember:  remember,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the sign-in flow. loginLimit throttles credential
// attempts; requireLogin guards logout.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	requireLogin, loginLimit func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.LoginPage)
		r.With(loginLimit).Post("/login", h.Login)
		r.With(loginLimit).Post("/register", h.Register)

		r.With(requireLogin).Post("/logout", h.Logout)
	})
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := SafeRedirect(r.URL.Query().Get("next"))

	if identity.FromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	core.OK(w, LoginPageResponse{
		Next:    next,
		Flashes: session.PopFlashes(r.Context()),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			session.AddFlash(r.Context(), "error", "Invalid username or password.")
			core.JSONError(w, core.InvalidCredentialsError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.startSession(w, r, u, req.RememberMe)

	http.Redirect(w, r, SafeRedirect(r.URL.Query().Get("next")), http.StatusSeeOther)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			core.JSONError(w, core.DuplicateError("username"))
		case errors.Is(err, user.ErrEmailTaken):
			core.JSONError(w, core.DuplicateError("email"))
		case errors.Is(err, core.ErrValidation):
			core.JSONError(w, err)
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	h.startSession(w, r, u, false)

	core.Created(w, RegisterResponse{User: user.ToPrivateProfileResponse(u)})
}

// Logout drops the login but keeps a fresh anonymous session so the
// goodbye flash survives the redirect.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if raw := h.remember.FromRequest(r); raw != "" {
		if err := h.remember.Revoke(r.Context(), raw); err != nil {
			slog.WarnContext(r.Context(), "revoke remember token", "error", err)
		}
	}
	h.remember.ClearCookie(w)

	if sess := session.FromContext(r.Context()); sess != nil {
		h.sessions.Renew(sess)
		sess.SetUser("")
		sess.AddFlash("info", "You have been logged out.")
	}

	http.Redirect(w, r, DefaultRedirect, http.StatusSeeOther)
}

func (h *Handler) startSession(
	w http.ResponseWriter,
	r *http.Request,
	u *user.User,
	remember bool,
) {
	if sess := session.FromContext(r.Context()); sess != nil {
		h.sessions.Renew(sess)
		sess.SetUser(u.ID)
	}

	if !remember {
		return
	}

	token, expires, err := h.remember.Issue(u.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "issue remember token", "error", err)
		return
	}
	h.remember.SetCookie(w, token, expires)
}

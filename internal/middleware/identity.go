// AngelaMos | 2026
// identity.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
	"github.com/carterperez-dev/templates/go-microblog/internal/session"
)

type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (identity.Identity, error)
}

// SessionRenewer moves a session to a fresh ID. It is called whenever a
// request is promoted to a signed-in user.
type SessionRenewer interface {
	Renew(sess *session.Session)
}

type RememberVerifier interface {
	VerifyRequest(ctx context.Context, r *http.Request) (string, error)
	ClearCookie(w http.ResponseWriter)
}

// ResolveIdentity turns the session (or, failing that, a remember cookie)
// into the request's identity. It must run inside the session middleware.
// remember may be nil.
func ResolveIdentity(
	loader IdentityLoader,
	sessions SessionRenewer,
	remember RememberVerifier,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := session.FromContext(ctx)
			id := identity.Anonymous

			if sess != nil && sess.User() != "" {
				loaded, err := loader.LoadIdentity(ctx, sess.User())
				switch {
				case err == nil:
					id = loaded
				case errors.Is(err, core.ErrNotFound):
					sess.SetUser("")
				default:
					core.InternalServerError(w, err)
					return
				}
			}

			if !id.IsAuthenticated() && remember != nil {
				id = restore(ctx, w, r, loader, sessions, remember, sess)
			}

			if id.IsAuthenticated() {
				trace.SpanFromContext(ctx).SetAttributes(
					attribute.String("user.id", id.UserID()),
				)
				noteUser(ctx, id.UserID())
			}

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(ctx, id)))
		})
	}
}

func restore(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	loader IdentityLoader,
	sessions SessionRenewer,
	remember RememberVerifier,
	sess *session.Session,
) identity.Identity {
	userID, err := remember.VerifyRequest(ctx, r)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrTokenInvalid),
			errors.Is(err, core.ErrTokenExpired),
			errors.Is(err, core.ErrTokenRevoked):
			remember.ClearCookie(w)
		case !errors.Is(err, core.ErrUnauthorized):
			slog.WarnContext(ctx, "remember token check failed", "error", err)
		}
		return identity.Anonymous
	}

	loaded, err := loader.LoadIdentity(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "remembered user unavailable",
			"user_id", userID,
			"error", err,
		)
		remember.ClearCookie(w)
		return identity.Anonymous
	}

	if sess != nil {
		if sessions != nil {
			sessions.Renew(sess)
		}
		sess.SetUser(loaded.UserID())
	}
	return loaded
}

// RequireLogin sends guests to loginPath with a next parameter.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return guard(loginPath, func(id identity.Identity) error {
		if !id.IsAuthenticated() {
			return identity.ErrUnauthenticated
		}
		return nil
	})
}

func RequirePermission(loginPath string, p role.Permission) func(http.Handler) http.Handler {
	return guard(loginPath, func(id identity.Identity) error {
		return identity.Authorize(id, p)
	})
}

func RequireAdmin(loginPath string) func(http.Handler) http.Handler {
	return guard(loginPath, identity.AuthorizeAdmin)
}

func guard(
	loginPath string,
	check func(identity.Identity) error,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := check(identity.FromContext(r.Context()))
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, core.ErrUnauthorized):
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			default:
				core.Forbidden(w, "")
			}
		})
	}
}

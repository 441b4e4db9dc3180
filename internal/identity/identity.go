// AngelaMos | 2026
// identity.go

package identity

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

// Identity is whoever is making the current request: a signed-in user or
// Anonymous. Capability checks never need to know which.
type Identity interface {
	UserID() string
	Handle() string
	IsAuthenticated() bool
	Can(p role.Permission) bool
	IsAdmin() bool
}

type anonymous struct{}

// Anonymous holds no role and no capability.
var Anonymous Identity = anonymous{}

func (anonymous) UserID() string { return "" }
func (anonymous) Handle() string { return "" }
func (anonymous) IsAuthenticated() bool { return false }
func (anonymous) Can(role.Permission) bool { return false }
func (anonymous) IsAdmin() bool { return false }
func (anonymous) String() string { return "anonymous" }

var (
	ErrUnauthenticated = fmt.Errorf("sign in required: %w", core.ErrUnauthorized)
	ErrForbidden       = fmt.Errorf("missing capability: %w", core.ErrForbidden)
)

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	if id == nil {
		id = Anonymous
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the resolved identity, or Anonymous when the request
// never passed through identity resolution.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok && id != nil {
		return id
	}
	return Anonymous
}

// Authorize checks authentication before capability so a guest is sent to
// sign in rather than told it is forbidden.
func Authorize(id Identity, p role.Permission) error {
	if id == nil || !id.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if !id.Can(p) {
		return fmt.Errorf("%s: %w", p, ErrForbidden)
	}
	return nil
}

func AuthorizeAdmin(id Identity) error {
	if id == nil || !id.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if !id.IsAdmin() && !id.Can(role.Admin) {
		return fmt.Errorf("admin: %w", ErrForbidden)
	}
	return nil
}

// PermissionRequired runs action only when id holds p and hands its result
// back untouched.
func PermissionRequired[T any](
	id Identity,
	p role.Permission,
	action func() (T, error),
) (T, error) {
	if err := Authorize(id, p); err != nil {
		var zero T
		return zero, err
	}
	return action()
}

func AdminRequired[T any](id Identity, action func() (T, error)) (T, error) {
	if err := AuthorizeAdmin(id); err != nil {
		var zero T
		return zero, err
	}
	return action()
}

// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/user"
)

const tracerName = "microblog/auth"

// ErrInvalidCredentials never says which half of the pair was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Register(ctx context.Context, req user.RegisterRequest) (*user.User, error)
}

type Service struct {
	users UserProvider
}

func NewService(users UserProvider) *Service {
	return &Service{users: users}
}

// Login checks a username/password pair. An unknown username still pays
// for a full hash verification so response time does not reveal which
// accounts exist.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*user.User, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "auth.login")
	defer span.End()

	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			core.AddSpanEvent(ctx, "auth.login.failed")
			return nil, ErrInvalidCredentials
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(req.Password, &u.PasswordHash)
	if err != nil || !valid {
		core.AddSpanEvent(ctx, "auth.login.failed",
			attribute.String("user.id", u.ID),
		)
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, u.ID, newHash)
	}

	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (*user.User, error) {
	return s.users.Register(ctx, req)
}

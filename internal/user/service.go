// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

const tracerName = "microblog/user"

type RoleProvider interface {
	Default(ctx context.Context) (*role.Role, error)
	Admin(ctx context.Context) (*role.Role, error)
	GetByID(ctx context.Context, id int64) (*role.Role, error)
}

type Service struct {
	repo       Repository
	roles      RoleProvider
	adminEmail string
}

type Option func(*Service)

// WithAdminEmail registers the account using email straight into the admin
// role.
func WithAdminEmail(email string) Option {
	return func(s *Service) {
		s.adminEmail = normalizeEmail(email)
	}
}

func NewService(repo Repository, roles RoleProvider, opts ...Option) *Service {
	s := &Service{repo: repo, roles: roles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists u. A user without a role gets the default role; that
// choice is made once here and never revisited.
func (s *Service) Create(ctx context.Context, u *User) error {
	if u.PasswordHash == "" {
		return fmt.Errorf("create user: no password set: %w", core.ErrValidation)
	}

	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	if u.Role == nil {
		def, err := s.roles.Default(ctx)
		if err != nil {
			return fmt.Errorf("create user: default role: %w", err)
		}
		u.Role = def
	}
	u.RoleID = u.Role.ID

	return s.repo.Create(ctx, u)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	ctx, span := core.StartSpan(ctx, tracerName, "user.register")
	defer span.End()

	u := &User{
		Username: NormalizeUsername(req.Username),
		Email:    normalizeEmail(req.Email),
	}
	if u.Username == "" || u.Email == "" {
		return nil, fmt.Errorf("register: username and email required: %w", core.ErrValidation)
	}

	if err := u.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if s.adminEmail != "" && u.Email == s.adminEmail {
		admin, err := s.roles.Admin(ctx)
		if err != nil {
			core.SetSpanError(ctx, err)
			return nil, fmt.Errorf("register: admin role: %w", err)
		}
		u.Role = admin
	}

	if err := s.Create(ctx, u); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", u.ID),
		attribute.String("user.role", u.Role.Name),
	)

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withRole(ctx, u)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	return s.withRole(ctx, u)
}

// LoadIdentity reads the user and the current state of their role. Nothing
// is cached, so a role change applies to every holder on their next request.
func (s *Service) LoadIdentity(ctx context.Context, userID string) (identity.Identity, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) withRole(ctx context.Context, u *User) (*User, error) {
	r, err := s.roles.GetByID(ctx, u.RoleID)
	if err != nil {
		return nil, fmt.Errorf("load role for %s: %w", u.Username, err)
	}
	u.Role = r
	return u, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update profile: %w", core.ErrUnauthorized)
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.Name = strings.TrimSpace(req.Name)
	u.Location = strings.TrimSpace(req.Location)
	u.AboutMe = strings.TrimSpace(req.AboutMe)

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// NormalizeUsername trims and NFC-normalizes so visually identical names
// map to the same stored key.
func NormalizeUsername(username string) string {
	return norm.NFC.String(strings.TrimSpace(username))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

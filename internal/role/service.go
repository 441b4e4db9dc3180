// AngelaMos | 2026
// service.go

package role

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

// TxFunc runs fn against a repository bound to a single transaction.
type TxFunc func(ctx context.Context, fn func(repo Repository) error) error

type Service struct {
	repo Repository
	inTx TxFunc
}

type Option func(*Service)

// WithTransactions makes multi-statement operations atomic on db.
func WithTransactions(db *sqlx.DB) Option {
	return func(s *Service) {
		s.inTx = func(ctx context.Context, fn func(repo Repository) error) error {
			return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
				return fn(NewRepository(tx))
			})
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	s.inTx = func(ctx context.Context, fn func(repo Repository) error) error {
		return fn(s.repo)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Seed brings the fixed role table into the store. Running it again
// rewrites permissions and flags in place; it never duplicates a role.
func (s *Service) Seed(ctx context.Context) error {
	defaultName, adminName := seedFlagOwners()

	return s.inTx(ctx, func(repo Repository) error {
		if err := repo.ClearFlagsExcept(ctx, defaultName, adminName); err != nil {
			return err
		}

		for _, entry := range seedTable {
			if err := seedOne(ctx, repo, entry); err != nil {
				return fmt.Errorf("seed role %s: %w", entry.name, err)
			}
		}

		return nil
	})
}

func seedOne(ctx context.Context, repo Repository, entry seedEntry) error {
	role, err := repo.GetByName(ctx, entry.name)
	created := false
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		role = &Role{Name: entry.name}
		created = true
	}

	role.Reset()
	role.Add(entry.permissions)
	role.IsDefault = entry.isDefault
	role.IsAdmin = entry.isAdmin

	if created {
		return repo.Create(ctx, role)
	}
	return repo.Update(ctx, role)
}

func seedFlagOwners() (defaultName, adminName string) {
	for _, entry := range seedTable {
		if entry.isDefault {
			defaultName = entry.name
		}
		if entry.isAdmin {
			adminName = entry.name
		}
	}
	return defaultName, adminName
}

func (s *Service) Default(ctx context.Context) (*Role, error) {
	return s.repo.GetDefault(ctx)
}

func (s *Service) Admin(ctx context.Context) (*Role, error) {
	return s.repo.GetAdmin(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Role, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (*Role, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Grant adds p to the named role. Every holder of the role sees the change
// on their next request.
func (s *Service) Grant(ctx context.Context, name string, p Permission) (*Role, error) {
	return s.mutate(ctx, name, func(r *Role) { r.Add(p) })
}

func (s *Service) Revoke(ctx context.Context, name string, p Permission) (*Role, error) {
	return s.mutate(ctx, name, func(r *Role) { r.Remove(p) })
}

func (s *Service) mutate(
	ctx context.Context,
	name string,
	apply func(r *Role),
) (*Role, error) {
	var updated *Role

	err := s.inTx(ctx, func(repo Repository) error {
		role, err := repo.GetByName(ctx, name)
		if err != nil {
			return err
		}

		apply(role)

		if err := repo.Update(ctx, role); err != nil {
			return err
		}

		updated = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

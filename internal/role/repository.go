// AngelaMos | 2026
// repository.go

package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

type Repository interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, id int64) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	GetDefault(ctx context.Context) (*Role, error)
	GetAdmin(ctx context.Context) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	ClearFlagsExcept(ctx context.Context, defaultName, adminName string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const roleColumns = `id, name, permissions, is_default, is_admin`

func (r *repository) Create(ctx context.Context, role *Role) error {
	query := `
		INSERT INTO roles (name, permissions, is_default, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.GetContext(ctx, &role.ID, query,
		role.Name,
		int64(role.Permissions),
		role.IsDefault,
		role.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, role *Role) error {
	query := `
		UPDATE roles
		SET name = $2, permissions = $3, is_default = $4, is_admin = $5
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		role.ID,
		role.Name,
		int64(role.Permissions),
		role.IsDefault,
		role.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update role: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Role, error) {
	return r.getOne(ctx, "get role", `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
}

func (r *repository) GetByName(ctx context.Context, name string) (*Role, error) {
	return r.getOne(ctx, "get role by name", `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
}

func (r *repository) GetDefault(ctx context.Context) (*Role, error) {
	return r.getOne(ctx, "get default role", `SELECT `+roleColumns+` FROM roles WHERE is_default`)
}

func (r *repository) GetAdmin(ctx context.Context) (*Role, error) {
	return r.getOne(ctx, "get admin role", `SELECT `+roleColumns+` FROM roles WHERE is_admin`)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*Role, error) {
	var role Role
	err := r.db.GetContext(ctx, &role, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &role, nil
}

func (r *repository) List(ctx context.Context) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY id`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (r *repository) ClearFlagsExcept(
	ctx context.Context,
	defaultName, adminName string,
) error {
	query := `
		UPDATE roles
		SET is_default = is_default AND name = $1,
		    is_admin   = is_admin AND name = $2
		WHERE (is_default AND name <> $1) OR (is_admin AND name <> $2)`

	if _, err := r.db.ExecContext(ctx, query, defaultName, adminName); err != nil {
		return fmt.Errorf("clear role flags: %w", err)
	}

	return nil
}

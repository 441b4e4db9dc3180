// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
	"github.com/carterperez-dev/templates/go-microblog/internal/identity"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Location     string    `db:"location"`
	AboutMe      string    `db:"about_me"`
	RoleID       int64     `db:"role_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	Role *role.Role `db:"-"`
}

// SetPassword stores an argon2id hash of plaintext. The plaintext itself
// is never kept.
func (u *User) SetPassword(plaintext string) error {
	hash, err := core.HashPassword(plaintext)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword is false for any mismatch, including an empty input or a
// user that never had a password set.
func (u *User) CheckPassword(plaintext string) bool {
	if plaintext == "" || u.PasswordHash == "" {
		return false
	}
	ok, err := core.VerifyPassword(plaintext, u.PasswordHash)
	return err == nil && ok
}

func (u *User) Can(p role.Permission) bool {
	return u.Role.Has(p)
}

func (u *User) IsAdmin() bool {
	return u.Role != nil && (u.Role.IsAdmin || u.Role.Has(role.Admin))
}

func (u *User) IsAuthenticated() bool { return true }

func (u *User) UserID() string { return u.ID }

func (u *User) Handle() string { return u.Username }

var _ identity.Identity = (*User)(nil)

// AngelaMos | 2026
// entity.go

package role

type Role struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Permissions Permission `db:"permissions"`
	IsDefault   bool       `db:"is_default"`
	IsAdmin     bool       `db:"is_admin"`
}

// Has is true for every permission when the role is the admin role,
// otherwise only for permissions present in the bitmask.
func (r *Role) Has(p Permission) bool {
	if r == nil {
		return false
	}
	return r.IsAdmin || r.Permissions.Has(p)
}

func (r *Role) Add(p Permission) {
	r.Permissions = r.Permissions.Union(p)
}

func (r *Role) Remove(p Permission) {
	r.Permissions = r.Permissions.Without(p)
}

func (r *Role) Reset() {
	r.Permissions = 0
}

const (
	NameUser          = "User"
	NameModerator     = "Moderator"
	NameAdministrator = "Administrator"
)

type seedEntry struct {
	name        string
	permissions Permission
	isDefault   bool
	isAdmin     bool
}

var seedTable = []seedEntry{
	{
		name:        NameUser,
		permissions: Of(Follow, Comment, Write),
		isDefault:   true,
	},
	{
		name:        NameModerator,
		permissions: Of(Follow, Comment, Write, Moderate),
	},
	{
		name:        NameAdministrator,
		permissions: AllPermissions(),
		isAdmin:     true,
	},
}

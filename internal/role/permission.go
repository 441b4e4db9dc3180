// AngelaMos | 2026
// permission.go

package role

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/go-microblog/internal/core"
)

// Permission is a set of capability flags. Each named permission is a
// distinct power of two, so sets combine with bitwise OR.
type Permission int64

const (
	Follow Permission = 1 << iota
	Comment
	Write
	Moderate
	Admin
)

var permissionNames = []struct {
	perm Permission
	name string
}{
	{Follow, "follow"},
	{Comment, "comment"},
	{Write, "write"},
	{Moderate, "moderate"},
	{Admin, "admin"},
}

// AllPermissions is the union of every named permission.
func AllPermissions() Permission {
	var all Permission
	for _, p := range permissionNames {
		all |= p.perm
	}
	return all
}

// Has reports whether p contains every bit of target. The empty set is
// never held.
func (p Permission) Has(target Permission) bool {
	return target != 0 && p&target == target
}

func (p Permission) Union(other Permission) Permission {
	return p | other
}

func (p Permission) Without(other Permission) Permission {
	return p &^ other
}

// Names lists the named permissions contained in p, lowest bit first.
func (p Permission) Names() []string {
	names := make([]string, 0, len(permissionNames))
	for _, entry := range permissionNames {
		if p.Has(entry.perm) {
			names = append(names, entry.name)
		}
	}
	return names
}

func (p Permission) String() string {
	if p == 0 {
		return "none"
	}
	return strings.Join(p.Names(), "|")
}

func ParsePermission(name string) (Permission, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, entry := range permissionNames {
		if entry.name == name {
			return entry.perm, nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q: %w", name, core.ErrInvalidInput)
}

func Of(perms ...Permission) Permission {
	var set Permission
	for _, p := range perms {
		set |= p
	}
	return set
}

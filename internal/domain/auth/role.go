package auth

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleUser          Role = 1
	RoleAdministrator Role = 2
)

type roleInfo struct {
	name        string
	description string
	granted     []Permission
}

var roleCatalog = map[Role]roleInfo{
	RoleUser: {
		name:        "user",
		description: "Normal user with most read permissions.",
		granted: []Permission{
			UserSelfRead,
			UserSelfWrite,
			UserAnyRead,
			WordRead,
			CategoryRead,
		},
	},
	RoleAdministrator: {
		name:        "administrator",
		description: "Administrator with almost all permission, including deletions.",
		granted: []Permission{
			UserAnyWrite,
			WordCreate,
			WordUpdate,
			WordDelete,
			TranslationCreate,
			TranslationDelete,
			CategoryCreate,
			CategoryUpdate,
			CategoryDelete,
		},
	},
}

func AllRoles() []Role { return []Role{RoleUser, RoleAdministrator} }

func (r Role) Valid() bool {
	_, ok := roleCatalog[r]
	return ok
}

func (r Role) Name() string {
	if info, ok := roleCatalog[r]; ok {
		return info.name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

func (r Role) Description() string { return roleCatalog[r].description }

func (r Role) String() string { return r.Name() }

func (r Role) Permissions() PermissionSet {
	return NewPermissionSet(roleCatalog[r].granted...)
}

func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for r, info := range roleCatalog {
		if info.name == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", name)
}

// PermissionsForRoles returns the union of the permissions granted by roles.
func PermissionsForRoles(roles []Role) PermissionSet {
	out := PermissionSet{}
	for _, r := range roles {
		out = out.Union(r.Permissions())
	}
	return out
}

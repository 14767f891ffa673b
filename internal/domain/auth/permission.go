package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a stable numeric permission id with a wire name such as "word:create".
type Permission uint16

const (
	UserSelfRead      Permission = 1
	UserSelfWrite     Permission = 2
	UserAnyRead       Permission = 3
	UserAnyWrite      Permission = 4
	WordCreate        Permission = 5
	WordRead          Permission = 6
	WordUpdate        Permission = 7
	WordDelete        Permission = 8
	TranslationCreate Permission = 11
	TranslationDelete Permission = 12
	CategoryCreate    Permission = 13
	CategoryRead      Permission = 14
	CategoryUpdate    Permission = 15
	CategoryDelete    Permission = 16
)

type permissionInfo struct {
	name        string
	description string
}

var permissionCatalog = map[Permission]permissionInfo{
	UserSelfRead:      {"user.self:read", "Allows the user to log in and view their account information."},
	UserSelfWrite:     {"user.self:write", "Allows the user to update their account information."},
	UserAnyRead:       {"user.any:read", "Allows the user to view public account information of any other user."},
	UserAnyWrite:      {"user.any:write", "Allows the user to update account information of any other user."},
	WordCreate:        {"word:create", "Allows the user to create words in the dictionary."},
	WordRead:          {"word:read", "Allows the user to read words in the dictionary."},
	WordUpdate:        {"word:update", "Allows the user to update existing words in the dictionary (but not delete them)."},
	WordDelete:        {"word:delete", "Allows the user to delete words from the dictionary."},
	TranslationCreate: {"word.translation:create", "Allows the user to translate a word."},
	TranslationDelete: {"word.translation:delete", "Allows the user to remove a word translation."},
	CategoryCreate:    {"category:create", "Allows the user to create a word category."},
	CategoryRead:      {"category:read", "Allows the user to read categories."},
	CategoryUpdate:    {"category:update", "Allows the user to update an existing word category."},
	CategoryDelete:    {"category:delete", "Allows the user to delete a word category."},
}

// AllPermissions returns the catalog ordered by id.
func AllPermissions() []Permission {
	out := make([]Permission, 0, len(permissionCatalog))
	for p := range permissionCatalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Permission) Valid() bool {
	_, ok := permissionCatalog[p]
	return ok
}

func (p Permission) Name() string {
	if info, ok := permissionCatalog[p]; ok {
		return info.name
	}
	return fmt.Sprintf("permission(%d)", uint16(p))
}

func (p Permission) Description() string {
	return permissionCatalog[p].description
}

func (p Permission) String() string { return p.Name() }

func ParsePermission(name string) (Permission, error) {
	name = strings.TrimSpace(name)
	for p, info := range permissionCatalog {
		if info.name == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q", name)
}

// PermissionSet is an immutable-by-convention set of permissions.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	out := make(PermissionSet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Missing returns the members of required that s does not contain.
func (s PermissionSet) Missing(required PermissionSet) PermissionSet {
	out := PermissionSet{}
	for p := range required {
		if !s.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s PermissionSet) Names() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = p.Name()
	}
	return out
}

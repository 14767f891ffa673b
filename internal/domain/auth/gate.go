package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrDenied is matched by errors.Is for every *DeniedError.
var ErrDenied = errors.New("permission denied")

type DeniedError struct {
	Missing PermissionSet
}

func (e *DeniedError) Error() string {
	return "missing permissions: " + strings.Join(e.Missing.Names(), ", ")
}

func (e *DeniedError) Is(target error) bool { return target == ErrDenied }

// Check admits the caller when required is a subset of caller. It never blocks and
// has no side effects.
func Check(caller, required PermissionSet) error {
	missing := caller.Missing(required)
	if len(missing) == 0 {
		return nil
	}
	return &DeniedError{Missing: missing}
}

// Caller is the authenticated identity of a request together with its effective
// permissions. A nil UserID means a system actor.
type Caller struct {
	UserID      *uuid.UUID
	Permissions PermissionSet
}

func NewCaller(userID uuid.UUID, perms PermissionSet) Caller {
	id := userID
	return Caller{UserID: &id, Permissions: perms}
}

// Anonymous has no identity and no permissions.
func Anonymous() Caller { return Caller{Permissions: PermissionSet{}} }

// SystemCaller holds every permission and no user id; used for imports and bootstrap.
func SystemCaller() Caller {
	return Caller{Permissions: NewPermissionSet(AllPermissions()...)}
}

// Is reports whether the caller is the given user.
func (c Caller) Is(userID uuid.UUID) bool {
	return c.UserID != nil && *c.UserID == userID
}

package aggregates

import (
	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
)

// Operation names an aggregate write for authorization, metrics and tracing.
type Operation string

const (
	OpCreateWord            Operation = "CreateWord"
	OpUpdateWord            Operation = "UpdateWord"
	OpDeleteWord            Operation = "DeleteWord"
	OpCreateMeaning         Operation = "CreateMeaning"
	OpUpdateMeaning         Operation = "UpdateMeaning"
	OpDeleteMeaning         Operation = "DeleteMeaning"
	OpLinkMeaningCategory   Operation = "LinkMeaningCategory"
	OpUnlinkMeaningCategory Operation = "UnlinkMeaningCategory"
	OpCreateCategory        Operation = "CreateCategory"
	OpUpdateCategory        Operation = "UpdateCategory"
	OpDeleteCategory        Operation = "DeleteCategory"
	OpCreateTranslation     Operation = "CreateTranslation"
	OpUpdateTranslation     Operation = "UpdateTranslation"
	OpDeleteTranslation     Operation = "DeleteTranslation"
	OpCreateUser            Operation = "CreateUser"
	OpUpdateUser            Operation = "UpdateUser"
	OpMarkUserActive        Operation = "MarkUserActive"
	OpDeleteUser            Operation = "DeleteUser"
	OpAssignRole            Operation = "AssignRole"
	OpRevokeRole            Operation = "RevokeRole"
)

// Requirements is the static permission table consulted before a write transaction opens.
var Requirements = map[Operation]auth.PermissionSet{
	OpCreateWord:            auth.NewPermissionSet(auth.WordCreate),
	OpUpdateWord:            auth.NewPermissionSet(auth.WordUpdate),
	OpDeleteWord:            auth.NewPermissionSet(auth.WordDelete),
	OpCreateMeaning:         auth.NewPermissionSet(auth.WordCreate),
	OpUpdateMeaning:         auth.NewPermissionSet(auth.WordUpdate),
	OpDeleteMeaning:         auth.NewPermissionSet(auth.WordDelete),
	OpLinkMeaningCategory:   auth.NewPermissionSet(auth.WordUpdate),
	OpUnlinkMeaningCategory: auth.NewPermissionSet(auth.WordUpdate),
	OpCreateCategory:        auth.NewPermissionSet(auth.CategoryCreate),
	OpUpdateCategory:        auth.NewPermissionSet(auth.CategoryUpdate),
	OpDeleteCategory:        auth.NewPermissionSet(auth.CategoryDelete),
	OpCreateTranslation:     auth.NewPermissionSet(auth.TranslationCreate),
	OpUpdateTranslation:     auth.NewPermissionSet(auth.TranslationCreate),
	OpDeleteTranslation:     auth.NewPermissionSet(auth.TranslationDelete),
	OpCreateUser:            auth.NewPermissionSet(auth.UserAnyWrite),
	OpUpdateUser:            auth.NewPermissionSet(auth.UserAnyWrite),
	OpMarkUserActive:        auth.NewPermissionSet(auth.UserAnyWrite),
	OpDeleteUser:            auth.NewPermissionSet(auth.UserAnyWrite),
	OpAssignRole:            auth.NewPermissionSet(auth.UserAnyWrite),
	OpRevokeRole:            auth.NewPermissionSet(auth.UserAnyWrite),
}

// selfScoped operations need only user.self:write when the caller acts on itself.
var selfScoped = map[Operation]bool{
	OpUpdateUser:     true,
	OpMarkUserActive: true,
}

// RequiredFor returns the permissions op needs from caller. target is the user the
// operation acts on, when there is one.
func RequiredFor(op Operation, caller auth.Caller, target *uuid.UUID) auth.PermissionSet {
	if selfScoped[op] && target != nil && caller.Is(*target) {
		return auth.NewPermissionSet(auth.UserSelfWrite)
	}
	if req, ok := Requirements[op]; ok {
		return req
	}
	// Unknown operations are never admitted implicitly.
	return auth.NewPermissionSet(auth.AllPermissions()...)
}

// Authorize runs the gate for op and wraps a rejection as CodeDenied.
func Authorize(op Operation, caller auth.Caller, target *uuid.UUID) error {
	if err := auth.Check(caller.Permissions, RequiredFor(op, caller, target)); err != nil {
		return NewError(CodeDenied, string(op), err.Error(), err)
	}
	return nil
}

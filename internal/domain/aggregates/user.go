package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
)

var UserAggregateContract = Contract{
	Name: "UserAggregate",
	Operations: []Operation{
		OpCreateUser, OpUpdateUser, OpMarkUserActive, OpDeleteUser, OpAssignRole, OpRevokeRole,
	},
	Subjects: []feed.EntityKind{feed.KindUser},
}

// UserAggregate owns account invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeDenied, CodeValidation, CodeNotFound, CodeConstraintViolation, CodeRetryable, CodeInternal.
type UserAggregate interface {
	Aggregate

	CreateUser(ctx context.Context, caller auth.Caller, in CreateUserInput) (UserResult, error)
	UpdateUser(ctx context.Context, caller auth.Caller, in UpdateUserInput) (UserResult, error)
	MarkUserActive(ctx context.Context, caller auth.Caller, in MarkUserActiveInput) (UserResult, error)
	// DeleteUser clears edit authorship and translation attribution before removing the user.
	DeleteUser(ctx context.Context, caller auth.Caller, in DeleteUserInput) (Receipt, error)
	AssignRole(ctx context.Context, caller auth.Caller, in RoleInput) (UserResult, error)
	RevokeRole(ctx context.Context, caller auth.Caller, in RoleInput) (UserResult, error)
}

type CreateUserInput struct {
	Username       string
	DisplayName    string
	HashedPassword string
	Roles          []auth.Role
}

type UpdateUserInput struct {
	UserID         uuid.UUID
	DisplayName    *string
	HashedPassword *string
}

type MarkUserActiveInput struct {
	UserID uuid.UUID
}

type DeleteUserInput struct {
	UserID uuid.UUID
}

type RoleInput struct {
	UserID uuid.UUID
	Role   auth.Role
}

type UserResult struct {
	User  user.User
	Roles []auth.Role
	Receipt
}

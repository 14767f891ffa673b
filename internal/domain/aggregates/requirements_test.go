package aggregates

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
)

func TestRequirementsCoverEveryOperation(t *testing.T) {
	ops := []Operation{
		OpCreateWord, OpUpdateWord, OpDeleteWord,
		OpCreateMeaning, OpUpdateMeaning, OpDeleteMeaning,
		OpLinkMeaningCategory, OpUnlinkMeaningCategory,
		OpCreateCategory, OpUpdateCategory, OpDeleteCategory,
		OpCreateTranslation, OpUpdateTranslation, OpDeleteTranslation,
		OpCreateUser, OpUpdateUser, OpMarkUserActive, OpDeleteUser, OpAssignRole, OpRevokeRole,
	}
	for _, op := range ops {
		req, ok := Requirements[op]
		if !ok || len(req) == 0 {
			t.Fatalf("%s: missing requirement", op)
		}
	}
}

func TestAuthorizeDeniesWithCode(t *testing.T) {
	caller := auth.NewCaller(uuid.New(), auth.RoleUser.Permissions())
	err := Authorize(OpCreateWord, caller, nil)
	if !IsCode(err, CodeDenied) {
		t.Fatalf("code: want=%s got=%s", CodeDenied, CodeOf(err))
	}
	if !errors.Is(err, auth.ErrDenied) {
		t.Fatalf("expected errors.Is(err, auth.ErrDenied)")
	}
	admin := auth.NewCaller(uuid.New(), auth.PermissionsForRoles([]auth.Role{auth.RoleUser, auth.RoleAdministrator}))
	if err := Authorize(OpCreateWord, admin, nil); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestSelfScopedOperations(t *testing.T) {
	self := uuid.New()
	caller := auth.NewCaller(self, auth.RoleUser.Permissions())
	if err := Authorize(OpUpdateUser, caller, &self); err != nil {
		t.Fatalf("self update: %v", err)
	}
	other := uuid.New()
	if err := Authorize(OpUpdateUser, caller, &other); !IsCode(err, CodeDenied) {
		t.Fatalf("other update: want denied got=%v", err)
	}
	if err := Authorize(OpDeleteUser, caller, &self); !IsCode(err, CodeDenied) {
		t.Fatalf("self delete: want denied got=%v", err)
	}
}

func TestIsConstraintViolationIncludesCycle(t *testing.T) {
	if !IsConstraintViolation(NewError(CodeCycleDetected, "UpdateCategory", "cycle", nil)) {
		t.Fatalf("cycle should count as constraint violation")
	}
	if IsConstraintViolation(NewError(CodeNotFound, "UpdateCategory", "missing", nil)) {
		t.Fatalf("not_found is not a constraint violation")
	}
}

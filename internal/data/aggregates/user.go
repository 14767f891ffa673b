package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

type UserAggregateDeps struct {
	Base BaseDeps
}

type userAggregate struct {
	deps BaseDeps
}

var _ domainagg.UserAggregate = (*userAggregate)(nil)

func NewUserAggregate(deps UserAggregateDeps) domainagg.UserAggregate {
	base := deps.Base.withDefaults()
	base.Log = base.Log.With("aggregate", "UserAggregate")
	return &userAggregate{deps: base}
}

func (a *userAggregate) Contract() domainagg.Contract {
	return domainagg.UserAggregateContract
}

func (a *userAggregate) CreateUser(ctx context.Context, caller auth.Caller, in domainagg.CreateUserInput) (domainagg.UserResult, error) {
	var out domainagg.UserResult
	receipt, err := write(ctx, a.deps, domainagg.OpCreateUser, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		username, err := utils.NormalizeUsername(in.Username)
		if err != nil {
			return domainagg.Receipt{}, ValidationError(err.Error())
		}
		displayName, err := RequireText("display_name", in.DisplayName)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if strings.TrimSpace(in.HashedPassword) == "" {
			return domainagg.Receipt{}, ValidationError("hashed_password must not be empty")
		}
		roles := in.Roles
		if len(roles) == 0 {
			roles = []auth.Role{auth.RoleUser}
		}
		for _, r := range roles {
			if !r.Valid() {
				return domainagg.Receipt{}, ValidationError("unknown role " + r.String())
			}
		}
		exists, err := a.deps.Repos.Users.UsernameExists(dbc.Ctx, dbc.Tx, username)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if exists {
			return domainagg.Receipt{}, ConstraintError("username " + username + " is taken")
		}

		now := a.deps.Now()
		u := &user.User{
			ID:             uuid.New(),
			Username:       username,
			DisplayName:    displayName,
			HashedPassword: in.HashedPassword,
			JoinedAt:       now,
			LastModifiedAt: now,
			LastActiveAt:   now,
		}
		if _, err := a.deps.Repos.Users.Create(dbc.Ctx, dbc.Tx, []*user.User{u}); err != nil {
			return domainagg.Receipt{}, err
		}
		if _, err := a.deps.Repos.UserRoles.Assign(dbc, u.ID, roles, now); err != nil {
			return domainagg.Receipt{}, err
		}
		if err := a.fill(dbc, u, &out); err != nil {
			return domainagg.Receipt{}, err
		}

		after := userData(u)
		after["roles"] = roleNames(out.Roles)
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionCreatedUser,
			Subject: feed.Ref(feed.KindUser, u.ID),
			After:   after,
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *userAggregate) UpdateUser(ctx context.Context, caller auth.Caller, in domainagg.UpdateUserInput) (domainagg.UserResult, error) {
	var out domainagg.UserResult
	target := in.UserID
	receipt, err := write(ctx, a.deps, domainagg.OpUpdateUser, caller, &target, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		u, err := a.lockUser(dbc, in.UserID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		before := userData(u)

		updates := map[string]any{}
		if in.DisplayName != nil {
			name, err := RequireText("display_name", *in.DisplayName)
			if err != nil {
				return domainagg.Receipt{}, err
			}
			updates["display_name"] = name
			u.DisplayName = name
		}
		passwordChanged := false
		if in.HashedPassword != nil {
			if strings.TrimSpace(*in.HashedPassword) == "" {
				return domainagg.Receipt{}, ValidationError("hashed_password must not be empty")
			}
			updates["hashed_password"] = *in.HashedPassword
			u.HashedPassword = *in.HashedPassword
			passwordChanged = true
		}

		now := a.deps.Now()
		u.LastModifiedAt = now
		updates["last_modified_at"] = now
		if err := u.CheckTimestamps(); err != nil {
			return domainagg.Receipt{}, ConstraintError(err.Error())
		}
		if err := a.deps.Repos.Users.UpdateFields(dbc.Ctx, dbc.Tx, u.ID, updates); err != nil {
			return domainagg.Receipt{}, err
		}
		if err := a.fill(dbc, u, &out); err != nil {
			return domainagg.Receipt{}, err
		}

		after := userData(u)
		if passwordChanged {
			after["password_changed"] = true
		}
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionUpdatedUser,
			Subject: feed.Ref(feed.KindUser, u.ID),
			Before:  before,
			After:   after,
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *userAggregate) MarkUserActive(ctx context.Context, caller auth.Caller, in domainagg.MarkUserActiveInput) (domainagg.UserResult, error) {
	var out domainagg.UserResult
	target := in.UserID
	receipt, err := write(ctx, a.deps, domainagg.OpMarkUserActive, caller, &target, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		u, err := a.lockUser(dbc, in.UserID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		before := u.LastActiveAt

		now := a.deps.Now()
		u.LastActiveAt = now
		if err := u.CheckTimestamps(); err != nil {
			return domainagg.Receipt{}, ConstraintError(err.Error())
		}
		if err := a.deps.Repos.Users.UpdateFields(dbc.Ctx, dbc.Tx, u.ID, map[string]any{"last_active_at": now}); err != nil {
			return domainagg.Receipt{}, err
		}
		if err := a.fill(dbc, u, &out); err != nil {
			return domainagg.Receipt{}, err
		}
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionUpdatedUser,
			Subject: feed.Ref(feed.KindUser, u.ID),
			Before:  map[string]any{"last_active_at": before},
			After:   map[string]any{"last_active_at": now},
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *userAggregate) DeleteUser(ctx context.Context, caller auth.Caller, in domainagg.DeleteUserInput) (domainagg.Receipt, error) {
	return write(ctx, a.deps, domainagg.OpDeleteUser, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		u, err := a.lockUser(dbc, in.UserID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		edits, err := a.deps.Repos.Edits.ClearAuthor(dbc, u.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		translations, err := a.deps.Repos.Translations.ClearTranslator(dbc, u.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if _, err := a.deps.Repos.UserRoles.DeleteByUserID(dbc, u.ID); err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.Users.Delete(dbc.Ctx, dbc.Tx, u.ID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "user"); err != nil {
			return domainagg.Receipt{}, err
		}
		a.deps.Log.Info("User deleted", "user_id", u.ID, "edits_detached", edits, "translations_detached", translations)

		// The deleting user's own row is gone, so a self-delete is recorded without an author.
		author := authorOf(caller)
		if caller.Is(u.ID) {
			author = nil
		}
		return record(dbc, a.deps, author, a.deps.Now(), change{
			Action:  edit.ActionDeletedUser,
			Subject: feed.Ref(feed.KindUser, u.ID),
			Op:      feed.OpDelete,
			Before:  userData(u),
		})
	})
}

func (a *userAggregate) AssignRole(ctx context.Context, caller auth.Caller, in domainagg.RoleInput) (domainagg.UserResult, error) {
	var out domainagg.UserResult
	receipt, err := write(ctx, a.deps, domainagg.OpAssignRole, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		if !in.Role.Valid() {
			return domainagg.Receipt{}, ValidationError("unknown role " + in.Role.String())
		}
		u, err := a.lockUser(dbc, in.UserID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		now := a.deps.Now()
		n, err := a.deps.Repos.UserRoles.Assign(dbc, u.ID, []auth.Role{in.Role}, now)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if n == 0 {
			return domainagg.Receipt{}, ConstraintError("user already has role " + in.Role.String())
		}
		if err := a.fill(dbc, u, &out); err != nil {
			return domainagg.Receipt{}, err
		}
		return record(dbc, a.deps, authorOf(caller), now, change{
			Action:  edit.ActionAssignedRole,
			Subject: feed.Ref(feed.KindUser, u.ID),
			After:   map[string]any{"role": in.Role.Name()},
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *userAggregate) RevokeRole(ctx context.Context, caller auth.Caller, in domainagg.RoleInput) (domainagg.UserResult, error) {
	var out domainagg.UserResult
	receipt, err := write(ctx, a.deps, domainagg.OpRevokeRole, caller, nil, func(dbc dbctx.Context) (domainagg.Receipt, error) {
		if !in.Role.Valid() {
			return domainagg.Receipt{}, ValidationError("unknown role " + in.Role.String())
		}
		u, err := a.lockUser(dbc, in.UserID)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		n, err := a.deps.Repos.UserRoles.Revoke(dbc, u.ID, in.Role)
		if err != nil {
			return domainagg.Receipt{}, err
		}
		if err := RequireAffected(n, "role "+in.Role.String()+" of user"); err != nil {
			return domainagg.Receipt{}, err
		}
		if err := a.fill(dbc, u, &out); err != nil {
			return domainagg.Receipt{}, err
		}
		return record(dbc, a.deps, authorOf(caller), a.deps.Now(), change{
			Action:  edit.ActionRevokedRole,
			Subject: feed.Ref(feed.KindUser, u.ID),
			Before:  map[string]any{"role": in.Role.Name()},
		})
	})
	out.Receipt = receipt
	return out, err
}

func (a *userAggregate) lockUser(dbc dbctx.Context, id uuid.UUID) (*user.User, error) {
	u, err := a.deps.Repos.Users.LockByID(dbc.Ctx, dbc.Tx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireFound(u, "user", id); err != nil {
		return nil, err
	}
	return u, nil
}

func (a *userAggregate) fill(dbc dbctx.Context, u *user.User, out *domainagg.UserResult) error {
	roles, err := a.deps.Repos.UserRoles.RolesOf(dbc, u.ID)
	if err != nil {
		return err
	}
	out.User = *u
	out.Roles = roles
	return nil
}

func userData(u *user.User) map[string]any {
	return map[string]any{
		"username":     u.Username,
		"display_name": u.DisplayName,
	}
}

func roleNames(roles []auth.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Name())
	}
	return out
}

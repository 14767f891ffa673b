package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	repotest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/testutil"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/ctxutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	pkgerrors "github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/errors"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

func newAuthFixture(t *testing.T) (*authService, repos.Set, domainagg.UserAggregate) {
	t.Helper()
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	set := repos.NewSet(db, log)
	users := aggregates.NewUserAggregate(aggregates.UserAggregateDeps{Base: aggregates.BaseDeps{DB: db, Log: log, Repos: set}})
	svc := NewAuthService(log, set, users, "test-secret", time.Hour).(*authService)
	return svc, set, users
}

func seedAccount(t *testing.T, users domainagg.UserAggregate, username, password string) uuid.UUID {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	res, err := users.CreateUser(context.Background(), auth.SystemCaller(), domainagg.CreateUserInput{
		Username: username, DisplayName: username, HashedPassword: hash,
	})
	require.NoError(t, err)
	return res.User.ID
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, set, users := newAuthFixture(t)
	ctx := context.Background()
	id := seedAccount(t, users, "marija", "correct horse")

	res, err := svc.Login(ctx, "  marija ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, id, res.UserID)
	assert.NotEmpty(t, res.AccessToken)

	got, err := svc.VerifyAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	ctx2, caller, err := svc.CallerFromToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.True(t, caller.Is(id))
	assert.Equal(t, auth.PermissionsForRoles([]auth.Role{auth.RoleUser}), caller.Permissions)
	rd := ctxutil.GetRequestData(ctx2)
	require.NotNil(t, rd)
	assert.Equal(t, id, rd.UserID)

	u, err := set.Users.GetByID(ctx, nil, id)
	require.NoError(t, err)
	assert.False(t, u.LastActiveAt.Before(u.JoinedAt))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, users := newAuthFixture(t)
	seedAccount(t, users, "marija", "correct horse")

	for _, tc := range []struct{ user, pass string }{
		{"marija", "wrong password"},
		{"Marija", "correct horse"},
		{"nobody", "correct horse"},
		{"", "correct horse"},
		{"marija", ""},
	} {
		_, err := svc.Login(context.Background(), tc.user, tc.pass)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials, tc.user)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	id := uuid.New()

	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, _, err := svc.IssueAccessToken(id)
	require.NoError(t, err)
	svc.now = time.Now

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)

	other := NewAuthService(repotest.Logger(t), repos.Set{}, nil, "other-secret", time.Hour)
	foreign, _, err := other.IssueAccessToken(id)
	require.NoError(t, err)
	_, err = svc.VerifyAccessToken(foreign)
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)

	_, err = svc.VerifyAccessToken("")
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)
}

func TestCallerFromTokenSeesRoleChanges(t *testing.T) {
	svc, set, users := newAuthFixture(t)
	ctx := context.Background()
	id := seedAccount(t, users, "janez", "correct horse")
	token, _, err := svc.IssueAccessToken(id)
	require.NoError(t, err)

	_, err = set.UserRoles.Assign(dbctx.Context{Ctx: ctx}, id, []auth.Role{auth.RoleAdministrator}, time.Now())
	require.NoError(t, err)
	_, caller, err := svc.CallerFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, auth.PermissionsForRoles(auth.AllRoles()), caller.Permissions)

	_, err = users.DeleteUser(ctx, auth.SystemCaller(), domainagg.DeleteUserInput{UserID: id})
	require.NoError(t, err)
	_, caller, err = svc.CallerFromToken(ctx, token)
	assert.ErrorIs(t, err, pkgerrors.ErrUnauthorized)
	assert.Nil(t, caller.UserID)
}

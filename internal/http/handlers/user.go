package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/http/response"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

type UserHandler struct {
	users domainagg.UserAggregate
	repos repos.Set
}

func NewUserHandler(users domainagg.UserAggregate, set repos.Set) *UserHandler {
	return &UserHandler{users: users, repos: set}
}

var errMissingIdentity = errors.New("missing or invalid token")

type roleOp func(ctx context.Context, caller auth.Caller, in domainagg.RoleInput) (domainagg.UserResult, error)

type userView struct {
	*user.User
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func newUserView(u *user.User, roles []auth.Role) userView {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name())
	}
	return userView{User: u, Roles: names, Permissions: auth.PermissionsForRoles(roles).Names()}
}

// authorizeRead admits user.any:read, or user.self:read when the caller reads itself.
func authorizeRead(c *gin.Context, target *uuid.UUID) bool {
	caller := middleware.CallerFrom(c)
	required := auth.NewPermissionSet(auth.UserAnyRead)
	if target != nil && caller.Is(*target) {
		required = auth.NewPermissionSet(auth.UserSelfRead)
	}
	if err := auth.Check(caller.Permissions, required); err != nil {
		response.RespondDomainError(c, domainagg.NewError(domainagg.CodeDenied, "ReadUser", err.Error(), err))
		return false
	}
	return true
}

// POST /users
// body: { "username": "...", "display_name": "...", "password": "..." }
// Registration is open; new accounts get the default user role.
func (uh *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	res, err := uh.users.CreateUser(c.Request.Context(), auth.SystemCaller(), domainagg.CreateUserInput{
		Username:       req.Username,
		DisplayName:    req.DisplayName,
		HashedPassword: hashed,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": newUserView(&res.User, res.Roles)})
}

// GET /users
func (uh *UserHandler) List(c *gin.Context) {
	if !authorizeRead(c, nil) {
		return
	}
	rows, err := uh.repos.Users.List(c.Request.Context(), nil)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": rows})
}

// GET /users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller.UserID == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingIdentity)
		return
	}
	uh.respondUser(c, *caller.UserID)
}

// GET /users/:userID
func (uh *UserHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	if !authorizeRead(c, &id) {
		return
	}
	uh.respondUser(c, id)
}

func (uh *UserHandler) respondUser(c *gin.Context, id uuid.UUID) {
	u, err := uh.repos.Users.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if u == nil {
		notFound(c, "user", id)
		return
	}
	roles, err := uh.repos.UserRoles.RolesOf(dbcOf(c), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": newUserView(u, roles)})
}

// PATCH /users/:userID
// body: { "display_name": "...", "password": "..." }
func (uh *UserHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	var req struct {
		DisplayName *string `json:"display_name"`
		Password    *string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in := domainagg.UpdateUserInput{UserID: id, DisplayName: req.DisplayName}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
			return
		}
		in.HashedPassword = &hashed
	}
	res, err := uh.users.UpdateUser(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"user": newUserView(&res.User, res.Roles)})
}

// DELETE /users/:userID
// Edits and translations the user authored stay; their author is cleared.
func (uh *UserHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	receipt, err := uh.users.DeleteUser(c.Request.Context(), middleware.CallerFrom(c), domainagg.DeleteUserInput{UserID: id})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, receipt, nil)
}

// POST /users/:userID/roles
// body: { "role": "administrator" }
func (uh *UserHandler) AssignRole(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	uh.changeRole(c, id, req.Role, uh.users.AssignRole)
}

// DELETE /users/:userID/roles/:role
func (uh *UserHandler) RevokeRole(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	uh.changeRole(c, id, c.Param("role"), uh.users.RevokeRole)
}

func (uh *UserHandler) changeRole(c *gin.Context, id uuid.UUID, name string, op roleOp) {
	role, err := auth.ParseRole(name)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), err)
		return
	}
	res, err := op(c.Request.Context(), middleware.CallerFrom(c), domainagg.RoleInput{UserID: id, Role: role})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCommitted(c, http.StatusOK, res.Receipt, gin.H{"user": newUserView(&res.User, res.Roles)})
}

// GET /users/:userID/edits
func (uh *UserHandler) Edits(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	if !authorizeRead(c, &id) {
		return
	}
	limit, ok := intQuery(c, "limit", 100, maxPageSize)
	if !ok {
		return
	}
	dbc := dbcOf(c)
	rows, err := uh.repos.Edits.ListByAuthor(dbc, id, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	views, err := editViews(dbc, uh.repos, rows)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"edits": views})
}

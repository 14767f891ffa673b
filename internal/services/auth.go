package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/ctxutil"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	pkgerrors "github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/errors"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

const tokenIssuer = "kolomoni"

type JWTClaims struct {
	jwt.RegisteredClaims
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	IssueAccessToken(userID uuid.UUID) (string, time.Time, error)
	VerifyAccessToken(tokenString string) (uuid.UUID, error)
	// CallerFromToken verifies the token and loads the user's current roles, so a revoked
	// role takes effect on the next request. The returned context carries the request data.
	CallerFromToken(ctx context.Context, tokenString string) (context.Context, auth.Caller, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	repos        repos.Set
	users        domainagg.UserAggregate
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(log *logger.Logger, set repos.Set, users domainagg.UserAggregate, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		repos:        set,
		users:        users,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	name, err := utils.NormalizeUsername(username)
	if err != nil || strings.TrimSpace(password) == "" {
		return LoginResult{}, pkgerrors.ErrInvalidCredentials
	}
	u, err := as.repos.Users.GetByUsername(ctx, nil, name)
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !utils.CheckPassword(u.HashedPassword, password) {
		return LoginResult{}, pkgerrors.ErrInvalidCredentials
	}

	token, expires, err := as.IssueAccessToken(u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	if as.users != nil {
		roles, err := as.repos.UserRoles.RolesOf(dbctx.Context{Ctx: ctx}, u.ID)
		if err == nil {
			caller := auth.NewCaller(u.ID, auth.PermissionsForRoles(roles))
			_, err = as.users.MarkUserActive(ctx, caller, domainagg.MarkUserActiveInput{UserID: u.ID})
		}
		if err != nil {
			as.log.Warn("mark user active failed", "user_id", u.ID, "error", err)
		}
	}
	return LoginResult{AccessToken: token, ExpiresAt: expires, UserID: u.ID}, nil
}

func (as *authService) IssueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := as.now()
	expires := now.Add(as.accessTTL)
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

func (as *authService) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	if strings.TrimSpace(tokenString) == "" {
		return uuid.Nil, pkgerrors.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", pkgerrors.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, pkgerrors.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid subject", pkgerrors.ErrUnauthorized)
	}
	return userID, nil
}

func (as *authService) CallerFromToken(ctx context.Context, tokenString string) (context.Context, auth.Caller, error) {
	userID, err := as.VerifyAccessToken(tokenString)
	if err != nil {
		return ctx, auth.Anonymous(), err
	}
	u, err := as.repos.Users.GetByID(ctx, nil, userID)
	if err != nil {
		return ctx, auth.Anonymous(), fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return ctx, auth.Anonymous(), fmt.Errorf("%w: user no longer exists", pkgerrors.ErrUnauthorized)
	}
	roles, err := as.repos.UserRoles.RolesOf(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return ctx, auth.Anonymous(), fmt.Errorf("load roles: %w", err)
	}
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: tokenString, UserID: userID})
	return ctx, auth.NewCaller(userID, auth.PermissionsForRoles(roles)), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

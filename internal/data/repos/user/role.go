package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Stari-kolomoni/kolomoni-backend/internal/domain"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

// UserRoleRepo manages role assignments. Permissions are derived from the static
// catalog in domain/auth, so no permission rows are read at request time.
type UserRoleRepo interface {
	RolesOf(dbc dbctx.Context, userID uuid.UUID) ([]auth.Role, error)
	Assign(dbc dbctx.Context, userID uuid.UUID, roles []auth.Role, at time.Time) (int, error)
	Revoke(dbc dbctx.Context, userID uuid.UUID, role auth.Role) (int64, error)
	DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type userRoleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRoleRepo(db *gorm.DB, baseLog *logger.Logger) UserRoleRepo {
	return &userRoleRepo{db: db, log: baseLog.With("repo", "UserRoleRepo")}
}

func (r *userRoleRepo) RolesOf(dbc dbctx.Context, userID uuid.UUID) ([]auth.Role, error) {
	out := []auth.Role{}
	if userID == uuid.Nil {
		return out, nil
	}
	var ids []int
	if err := dbc.DB(r.db).
		Model(&types.UserRole{}).
		Where("user_id = ?", userID).
		Order("role_id ASC").
		Pluck("role_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		role := auth.Role(id)
		if !role.Valid() {
			r.log.Warn("Ignoring unknown role id", "user_id", userID, "role_id", id)
			continue
		}
		out = append(out, role)
	}
	return out, nil
}

func (r *userRoleRepo) Assign(dbc dbctx.Context, userID uuid.UUID, roles []auth.Role, at time.Time) (int, error) {
	if userID == uuid.Nil || len(roles) == 0 {
		return 0, nil
	}
	rows := make([]*types.UserRole, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, &types.UserRole{UserID: userID, RoleID: int(role), CreatedAt: at})
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *userRoleRepo) Revoke(dbc dbctx.Context, userID uuid.UUID, role auth.Role) (int64, error) {
	res := dbc.DB(r.db).
		Where("user_id = ? AND role_id = ?", userID, int(role)).
		Delete(&types.UserRole{})
	return res.RowsAffected, res.Error
}

func (r *userRoleRepo) DeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("user_id = ?", userID).Delete(&types.UserRole{})
	return res.RowsAffected, res.Error
}

package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Stari-kolomoni/kolomoni-backend/internal/domain"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error)
	UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	LockByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	rows, err := ur.GetByIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (ur *userRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}

	var results []*types.User
	if err := transaction.WithContext(ctx).
		Where("username = ?", username).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ur *userRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64

	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&count).Error; err != nil {
		return false, err
	}
	exists := count > 0
	return exists, nil
}

func (ur *userRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if err := transaction.WithContext(ctx).
		Order("username ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) LockByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	var results []*types.User
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ur *userRepo) UpdateFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

func (ur *userRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ?", userID).
		Delete(&types.User{})
	return res.RowsAffected, res.Error
}

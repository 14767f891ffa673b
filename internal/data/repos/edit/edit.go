package edit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

// EditRepo is append-only. The only mutation of an existing row is clearing the author
// when that user is deleted.
type EditRepo interface {
	Append(dbc dbctx.Context, row *edit.Edit) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*edit.Edit, error)
	ListBySubject(dbc dbctx.Context, subject feed.EntityRef, limit int) ([]*edit.Edit, error)
	ListByAuthor(dbc dbctx.Context, authorID uuid.UUID, limit int) ([]*edit.Edit, error)
	Count(dbc dbctx.Context) (int64, error)
	ClearAuthor(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type editRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEditRepo(db *gorm.DB, baseLog *logger.Logger) EditRepo {
	return &editRepo{db: db, log: baseLog.With("repo", "EditRepo")}
}

func (r *editRepo) Append(dbc dbctx.Context, row *edit.Edit) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *editRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*edit.Edit, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*edit.Edit
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *editRepo) ListBySubject(dbc dbctx.Context, subject feed.EntityRef, limit int) ([]*edit.Edit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*edit.Edit
	if err := dbc.DB(r.db).
		Where("subject_kind = ? AND subject_key = ?", subject.Kind, subject.Key).
		Order("performed_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *editRepo) ListByAuthor(dbc dbctx.Context, authorID uuid.UUID, limit int) ([]*edit.Edit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*edit.Edit
	if err := dbc.DB(r.db).
		Where("author_id = ?", authorID).
		Order("performed_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *editRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&edit.Edit{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *editRepo) ClearAuthor(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Model(&edit.Edit{}).
		Where("author_id = ?", userID).
		Update("author_id", nil)
	return res.RowsAffected, res.Error
}

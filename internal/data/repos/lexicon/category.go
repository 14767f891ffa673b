package lexicon

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, row *lexicon.Category) error

	GetByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Category, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.Category, error)
	List(dbc dbctx.Context) ([]*lexicon.Category, error)
	// LockByID reads the row with SELECT ... FOR UPDATE where the dialect supports it.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Category, error)
	ChildIDs(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error)
	Count(dbc dbctx.Context) (int64, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	DetachChildren(dbc dbctx.Context, id uuid.UUID, at time.Time) (int64, error)
	// UnlinkMeanings removes every meaning link of the category and returns the meaning ids.
	UnlinkMeanings(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(dbc dbctx.Context, row *lexicon.Category) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Category, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *categoryRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.Category, error) {
	var out []*lexicon.Category
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) List(dbc dbctx.Context) ([]*lexicon.Category, error) {
	var out []*lexicon.Category
	if err := dbc.DB(r.db).
		Order("slovene_name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Category, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*lexicon.Category
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *categoryRepo) ChildIDs(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if id == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&lexicon.Category{}).
		Where("parent_category_id = ?", id).
		Order("id ASC").
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&lexicon.Category{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *categoryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Model(&lexicon.Category{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *categoryRepo) DetachChildren(dbc dbctx.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Model(&lexicon.Category{}).
		Where("parent_category_id = ?", id).
		Updates(map[string]any{
			"parent_category_id": nil,
			"last_modified_at":   at,
		})
	return res.RowsAffected, res.Error
}

func (r *categoryRepo) UnlinkMeanings(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.DB(r.db)
	var meaningIDs []uuid.UUID
	if err := t.Model(&lexicon.MeaningCategory{}).
		Where("category_id = ?", id).
		Order("meaning_id ASC").
		Pluck("meaning_id", &meaningIDs).Error; err != nil {
		return nil, err
	}
	if len(meaningIDs) == 0 {
		return meaningIDs, nil
	}
	if err := t.Where("category_id = ?", id).Delete(&lexicon.MeaningCategory{}).Error; err != nil {
		return nil, err
	}
	return meaningIDs, nil
}

func (r *categoryRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&lexicon.Category{})
	return res.RowsAffected, res.Error
}

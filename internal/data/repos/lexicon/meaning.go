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

type MeaningRepo interface {
	Create(dbc dbctx.Context, m *lexicon.Meaning, detail *lexicon.MeaningDetail) error

	GetByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Meaning, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Meaning, error)
	GetView(dbc dbctx.Context, id uuid.UUID) (*lexicon.MeaningView, error)
	GetViews(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.MeaningView, error)
	ListByWordID(dbc dbctx.Context, wordID uuid.UUID) ([]*lexicon.Meaning, error)
	ListIDsByCategoryID(dbc dbctx.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
	// ListIDsAfter pages meaning ids for full scans.
	ListIDsAfter(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)

	UpsertDetail(dbc dbctx.Context, detail *lexicon.MeaningDetail) error
	DeleteDetail(dbc dbctx.Context, meaningID uuid.UUID) error
	Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error

	LinkCategories(dbc dbctx.Context, meaningID uuid.UUID, categoryIDs []uuid.UUID, at time.Time) (int, error)
	UnlinkCategory(dbc dbctx.Context, meaningID, categoryID uuid.UUID) (int64, error)
	CategoryIDs(dbc dbctx.Context, meaningIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)

	// DeleteByIDs removes meanings with their details and category links.
	// Translations are removed by TranslationRepo.DeleteByMeaningIDs.
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type meaningRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeaningRepo(db *gorm.DB, baseLog *logger.Logger) MeaningRepo {
	return &meaningRepo{db: db, log: baseLog.With("repo", "MeaningRepo")}
}

func (r *meaningRepo) Create(dbc dbctx.Context, m *lexicon.Meaning, detail *lexicon.MeaningDetail) error {
	t := dbc.DB(r.db)
	if m == nil {
		return nil
	}
	if err := t.Create(m).Error; err != nil {
		return err
	}
	if detail.Empty() {
		return nil
	}
	return t.Create(detail).Error
}

func (r *meaningRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Meaning, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*lexicon.Meaning
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *meaningRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Meaning, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*lexicon.Meaning
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

func (r *meaningRepo) GetView(dbc dbctx.Context, id uuid.UUID) (*lexicon.MeaningView, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	views, err := r.GetViews(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return views[0], nil
}

type meaningLanguageRow struct {
	ID       uuid.UUID
	Language lexicon.Language
}

func (r *meaningRepo) GetViews(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.MeaningView, error) {
	out := []*lexicon.MeaningView{}
	if len(ids) == 0 {
		return out, nil
	}
	t := dbc.DB(r.db)

	var meanings []*lexicon.Meaning
	if err := t.Where("id IN ?", ids).Order("id ASC").Find(&meanings).Error; err != nil {
		return nil, err
	}
	if len(meanings) == 0 {
		return out, nil
	}
	found := make([]uuid.UUID, 0, len(meanings))
	for _, m := range meanings {
		found = append(found, m.ID)
	}

	var langs []meaningLanguageRow
	if err := t.Table("word_meaning").
		Select("word_meaning.id AS id, word.language AS language").
		Joins("JOIN word ON word.id = word_meaning.word_id").
		Where("word_meaning.id IN ?", found).
		Scan(&langs).Error; err != nil {
		return nil, err
	}
	langByID := make(map[uuid.UUID]lexicon.Language, len(langs))
	for _, l := range langs {
		langByID[l.ID] = l.Language
	}

	var details []*lexicon.MeaningDetail
	if err := t.Where("meaning_id IN ?", found).Find(&details).Error; err != nil {
		return nil, err
	}
	detailByID := make(map[uuid.UUID]*lexicon.MeaningDetail, len(details))
	for _, d := range details {
		detailByID[d.MeaningID] = d
	}

	cats, err := r.CategoryIDs(dbc, found)
	if err != nil {
		return nil, err
	}

	for _, m := range meanings {
		catIDs := cats[m.ID]
		if catIDs == nil {
			catIDs = []uuid.UUID{}
		}
		out = append(out, &lexicon.MeaningView{
			Meaning:     *m,
			Language:    langByID[m.ID],
			Detail:      detailByID[m.ID],
			CategoryIDs: catIDs,
		})
	}
	return out, nil
}

func (r *meaningRepo) ListByWordID(dbc dbctx.Context, wordID uuid.UUID) ([]*lexicon.Meaning, error) {
	var out []*lexicon.Meaning
	if wordID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("word_id = ?", wordID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *meaningRepo) ListIDsByCategoryID(dbc dbctx.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if categoryID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&lexicon.MeaningCategory{}).
		Where("category_id = ?", categoryID).
		Order("meaning_id ASC").
		Pluck("meaning_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *meaningRepo) ListIDsAfter(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 500
	}
	q := dbc.DB(r.db).Model(&lexicon.Meaning{})
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	var out []uuid.UUID
	if err := q.Order("id ASC").Limit(limit).Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *meaningRepo) UpsertDetail(dbc dbctx.Context, detail *lexicon.MeaningDetail) error {
	if detail == nil || detail.MeaningID == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "meaning_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"disambiguation",
				"abbreviation",
				"description",
				"last_modified_at",
			}),
		}).
		Create(detail).Error
}

func (r *meaningRepo) DeleteDetail(dbc dbctx.Context, meaningID uuid.UUID) error {
	return dbc.DB(r.db).Where("meaning_id = ?", meaningID).Delete(&lexicon.MeaningDetail{}).Error
}

func (r *meaningRepo) Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).
		Model(&lexicon.Meaning{}).
		Where("id = ?", id).
		Update("last_modified_at", at).Error
}

func (r *meaningRepo) LinkCategories(dbc dbctx.Context, meaningID uuid.UUID, categoryIDs []uuid.UUID, at time.Time) (int, error) {
	if meaningID == uuid.Nil || len(categoryIDs) == 0 {
		return 0, nil
	}
	rows := make([]*lexicon.MeaningCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		rows = append(rows, &lexicon.MeaningCategory{MeaningID: meaningID, CategoryID: id, CreatedAt: at})
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meaning_id"}, {Name: "category_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *meaningRepo) UnlinkCategory(dbc dbctx.Context, meaningID, categoryID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Where("meaning_id = ? AND category_id = ?", meaningID, categoryID).
		Delete(&lexicon.MeaningCategory{})
	return res.RowsAffected, res.Error
}

func (r *meaningRepo) CategoryIDs(dbc dbctx.Context, meaningIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(meaningIDs))
	if len(meaningIDs) == 0 {
		return out, nil
	}
	var links []*lexicon.MeaningCategory
	if err := dbc.DB(r.db).
		Where("meaning_id IN ?", meaningIDs).
		Order("meaning_id ASC, category_id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.MeaningID] = append(out[l.MeaningID], l.CategoryID)
	}
	return out, nil
}

func (r *meaningRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	t := dbc.DB(r.db)
	if err := t.Where("meaning_id IN ?", ids).Delete(&lexicon.MeaningCategory{}).Error; err != nil {
		return 0, err
	}
	if err := t.Where("meaning_id IN ?", ids).Delete(&lexicon.MeaningDetail{}).Error; err != nil {
		return 0, err
	}
	res := t.Where("id IN ?", ids).Delete(&lexicon.Meaning{})
	return res.RowsAffected, res.Error
}

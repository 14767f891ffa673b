package lexicon

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type TranslationRepo interface {
	Create(dbc dbctx.Context, row *lexicon.Translation) error
	Get(dbc dbctx.Context, key lexicon.TranslationKey) (*lexicon.Translation, error)
	// ListByMeaningIDs returns translations with either side in ids.
	ListByMeaningIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.Translation, error)

	UpdateTranslatedBy(dbc dbctx.Context, key lexicon.TranslationKey, by *uuid.UUID) (int64, error)
	ClearTranslator(dbc dbctx.Context, userID uuid.UUID) (int64, error)

	Delete(dbc dbctx.Context, key lexicon.TranslationKey) (int64, error)
	DeleteByMeaningIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type translationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranslationRepo(db *gorm.DB, baseLog *logger.Logger) TranslationRepo {
	return &translationRepo{db: db, log: baseLog.With("repo", "TranslationRepo")}
}

func (r *translationRepo) Create(dbc dbctx.Context, row *lexicon.Translation) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *translationRepo) Get(dbc dbctx.Context, key lexicon.TranslationKey) (*lexicon.Translation, error) {
	var rows []*lexicon.Translation
	if err := dbc.DB(r.db).
		Where("slovene_meaning_id = ? AND english_meaning_id = ?", key.SloveneMeaningID, key.EnglishMeaningID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *translationRepo) ListByMeaningIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.Translation, error) {
	var out []*lexicon.Translation
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("slovene_meaning_id IN ? OR english_meaning_id IN ?", ids, ids).
		Order("slovene_meaning_id ASC, english_meaning_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *translationRepo) UpdateTranslatedBy(dbc dbctx.Context, key lexicon.TranslationKey, by *uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Model(&lexicon.Translation{}).
		Where("slovene_meaning_id = ? AND english_meaning_id = ?", key.SloveneMeaningID, key.EnglishMeaningID).
		Update("translated_by", by)
	return res.RowsAffected, res.Error
}

func (r *translationRepo) ClearTranslator(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Model(&lexicon.Translation{}).
		Where("translated_by = ?", userID).
		Update("translated_by", nil)
	return res.RowsAffected, res.Error
}

func (r *translationRepo) Delete(dbc dbctx.Context, key lexicon.TranslationKey) (int64, error) {
	res := dbc.DB(r.db).
		Where("slovene_meaning_id = ? AND english_meaning_id = ?", key.SloveneMeaningID, key.EnglishMeaningID).
		Delete(&lexicon.Translation{})
	return res.RowsAffected, res.Error
}

func (r *translationRepo) DeleteByMeaningIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Where("slovene_meaning_id IN ? OR english_meaning_id IN ?", ids, ids).
		Delete(&lexicon.Translation{})
	return res.RowsAffected, res.Error
}

package lexicon

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type WordRepo interface {
	Create(dbc dbctx.Context, w *lexicon.Word, lemma *lexicon.WordLemma) error

	GetByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.WordView, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.WordView, error)
	GetByLemma(dbc dbctx.Context, lang lexicon.Language, lemma string) (*lexicon.WordView, error)
	// ListAfter pages words by id for full scans.
	ListAfter(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]*lexicon.WordView, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Word, error)

	UpdateLemma(dbc dbctx.Context, id uuid.UUID, lemma string, at time.Time) error
	Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type wordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWordRepo(db *gorm.DB, baseLog *logger.Logger) WordRepo {
	return &wordRepo{db: db, log: baseLog.With("repo", "WordRepo")}
}

const wordViewColumns = "word.id, word.language, word.created_at, word.last_modified_at, word_lemma.lemma"

func (r *wordRepo) views(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db).
		Table("word").
		Select(wordViewColumns).
		Joins("JOIN word_lemma ON word_lemma.word_id = word.id")
}

func (r *wordRepo) Create(dbc dbctx.Context, w *lexicon.Word, lemma *lexicon.WordLemma) error {
	t := dbc.DB(r.db)
	if w == nil || lemma == nil {
		return nil
	}
	if err := t.Create(w).Error; err != nil {
		return err
	}
	return t.Create(lemma).Error
}

func (r *wordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.WordView, error) {
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

func (r *wordRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*lexicon.WordView, error) {
	var out []*lexicon.WordView
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.views(dbc).
		Where("word.id IN ?", ids).
		Order("word.id ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wordRepo) GetByLemma(dbc dbctx.Context, lang lexicon.Language, lemma string) (*lexicon.WordView, error) {
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		return nil, nil
	}
	var out []*lexicon.WordView
	if err := r.views(dbc).
		Where("word_lemma.language = ? AND word_lemma.lemma = ?", lang, lemma).
		Limit(1).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *wordRepo) ListAfter(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]*lexicon.WordView, error) {
	if limit <= 0 {
		limit = 500
	}
	q := r.views(dbc)
	if afterID != uuid.Nil {
		q = q.Where("word.id > ?", afterID)
	}
	var out []*lexicon.WordView
	if err := q.Order("word.id ASC").Limit(limit).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *wordRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*lexicon.Word, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*lexicon.Word
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

func (r *wordRepo) UpdateLemma(dbc dbctx.Context, id uuid.UUID, lemma string, at time.Time) error {
	t := dbc.DB(r.db)
	if err := t.Model(&lexicon.WordLemma{}).
		Where("word_id = ?", id).
		Updates(map[string]any{
			"lemma":            strings.TrimSpace(lemma),
			"last_modified_at": at,
		}).Error; err != nil {
		return err
	}
	return r.Touch(dbc, id, at)
}

func (r *wordRepo) Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).
		Model(&lexicon.Word{}).
		Where("id = ?", id).
		Update("last_modified_at", at).Error
}

// Delete removes the lemma and the word row. Meanings must be removed first.
func (r *wordRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	t := dbc.DB(r.db)
	if err := t.Where("word_id = ?", id).Delete(&lexicon.WordLemma{}).Error; err != nil {
		return 0, err
	}
	res := t.Where("id = ?", id).Delete(&lexicon.Word{})
	return res.RowsAffected, res.Error
}

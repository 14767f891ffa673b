package feed

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

// appendLockKey is the advisory lock id taken by every appender on PostgreSQL.
const appendLockKey int64 = 0x6b6f6c6f6d6f6e69

var ErrAppendOutsideTx = errors.New("change feed append requires a transaction")

type EntryRepo interface {
	// Append assigns the next sequence number and inserts the entry. Appenders are
	// serialized until their transaction ends, so sequence order is commit order.
	Append(dbc dbctx.Context, e *feed.Entry) (int64, error)
	// ReadFrom returns at most limit entries with seq > afterSeq in ascending order.
	ReadFrom(dbc dbctx.Context, afterSeq int64, limit int) ([]*feed.Entry, error)
	MaxSeq(dbc dbctx.Context) (int64, error)
}

type entryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	return &entryRepo{db: db, log: baseLog.With("repo", "FeedEntryRepo")}
}

func (r *entryRepo) Append(dbc dbctx.Context, e *feed.Entry) (int64, error) {
	if dbc.Tx == nil {
		return 0, ErrAppendOutsideTx
	}
	if e == nil {
		return 0, nil
	}
	t := dbc.DB(r.db)
	// SQLite allows a single writer per database, which gives the same guarantee.
	if t.Dialector.Name() == "postgres" {
		if err := t.Exec("SELECT pg_advisory_xact_lock(?)", appendLockKey).Error; err != nil {
			return 0, err
		}
	}
	head, err := r.MaxSeq(dbc)
	if err != nil {
		return 0, err
	}
	e.Seq = head + 1
	if len(e.Related) == 0 {
		e.Related = []byte("[]")
	}
	if err := t.Create(e).Error; err != nil {
		return 0, err
	}
	return e.Seq, nil
}

func (r *entryRepo) ReadFrom(dbc dbctx.Context, afterSeq int64, limit int) ([]*feed.Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var out []*feed.Entry
	if err := dbc.DB(r.db).
		Where("seq > ?", afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *entryRepo) MaxSeq(dbc dbctx.Context) (int64, error) {
	var head int64
	if err := dbc.DB(r.db).
		Model(&feed.Entry{}).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&head).Error; err != nil {
		return 0, err
	}
	return head, nil
}

package feed

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/dbctx"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

// CursorRepo stores per-consumer feed positions. Every mutating call is a compare-and-set
// on the lease owner; a false result means the caller no longer holds the lease.
type CursorRepo interface {
	Get(dbc dbctx.Context, consumer string) (*feed.Cursor, error)
	Ensure(dbc dbctx.Context, consumer string, now time.Time) (*feed.Cursor, error)
	AcquireLease(dbc dbctx.Context, consumer, owner string, ttl time.Duration, now time.Time) (bool, error)
	// Advance moves last_seq forward to seq; it never moves it backwards.
	Advance(dbc dbctx.Context, consumer, owner string, seq int64, now time.Time) (bool, error)
	// Reset sets last_seq to seq in either direction, for rebuilds and snapshot restores.
	Reset(dbc dbctx.Context, consumer, owner string, seq int64, now time.Time) (bool, error)
	ReleaseLease(dbc dbctx.Context, consumer, owner string, now time.Time) (bool, error)
}

type cursorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCursorRepo(db *gorm.DB, baseLog *logger.Logger) CursorRepo {
	return &cursorRepo{db: db, log: baseLog.With("repo", "FeedCursorRepo")}
}

func (r *cursorRepo) Get(dbc dbctx.Context, consumer string) (*feed.Cursor, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, nil
	}
	var rows []*feed.Cursor
	if err := dbc.DB(r.db).
		Where("consumer = ?", consumer).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *cursorRepo) Ensure(dbc dbctx.Context, consumer string, now time.Time) (*feed.Cursor, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, nil
	}
	row := &feed.Cursor{Consumer: consumer, UpdatedAt: now}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "consumer"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.Get(dbc, consumer)
}

func (r *cursorRepo) AcquireLease(dbc dbctx.Context, consumer, owner string, ttl time.Duration, now time.Time) (bool, error) {
	expires := now.Add(ttl)
	res := dbc.DB(r.db).
		Model(&feed.Cursor{}).
		Where("consumer = ?", consumer).
		Where("(lease_owner = '' OR lease_owner = ? OR lease_expires_at IS NULL OR lease_expires_at < ?)", owner, now).
		Updates(map[string]any{
			"lease_owner":      owner,
			"lease_expires_at": expires,
			"updated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *cursorRepo) Advance(dbc dbctx.Context, consumer, owner string, seq int64, now time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&feed.Cursor{}).
		Where("consumer = ? AND lease_owner = ? AND last_seq < ?", consumer, owner, seq).
		Updates(map[string]any{
			"last_seq":   seq,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *cursorRepo) Reset(dbc dbctx.Context, consumer, owner string, seq int64, now time.Time) (bool, error) {
	if seq < 0 {
		seq = 0
	}
	res := dbc.DB(r.db).
		Model(&feed.Cursor{}).
		Where("consumer = ? AND lease_owner = ?", consumer, owner).
		Updates(map[string]any{
			"last_seq":   seq,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *cursorRepo) ReleaseLease(dbc dbctx.Context, consumer, owner string, now time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&feed.Cursor{}).
		Where("consumer = ? AND lease_owner = ?", consumer, owner).
		Updates(map[string]any{
			"lease_owner":      "",
			"lease_expires_at": nil,
			"updated_at":       now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

package feed

import "time"

// Cursor is the durable position of one feed consumer. The lease columns make the
// consumer single-active: only the current lease owner may advance LastSeq.
type Cursor struct {
	Consumer       string     `gorm:"primaryKey;type:varchar(128);column:consumer" json:"consumer"`
	LastSeq        int64      `gorm:"not null;default:0;column:last_seq" json:"last_seq"`
	LeaseOwner     string     `gorm:"type:varchar(128);not null;default:'';column:lease_owner" json:"lease_owner"`
	LeaseExpiresAt *time.Time `gorm:"column:lease_expires_at" json:"lease_expires_at,omitempty"`
	UpdatedAt      time.Time  `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Cursor) TableName() string { return "change_feed_cursor" }

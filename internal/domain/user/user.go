package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	DisplayName    string    `gorm:"uniqueIndex;not null;column:display_name" json:"display_name"`
	HashedPassword string    `gorm:"not null;column:hashed_password" json:"-"`
	JoinedAt       time.Time `gorm:"not null;column:joined_at" json:"joined_at"`
	LastModifiedAt time.Time `gorm:"not null;column:last_modified_at" json:"last_modified_at"`
	LastActiveAt   time.Time `gorm:"not null;column:last_active_at" json:"last_active_at"`
}

func (User) TableName() string { return "user" }

// CheckTimestamps enforces joined_at <= last_modified_at and joined_at <= last_active_at.
func (u *User) CheckTimestamps() error {
	if u.LastModifiedAt.Before(u.JoinedAt) {
		return fmt.Errorf("last_modified_at %s precedes joined_at %s", u.LastModifiedAt.Format(time.RFC3339Nano), u.JoinedAt.Format(time.RFC3339Nano))
	}
	if u.LastActiveAt.Before(u.JoinedAt) {
		return fmt.Errorf("last_active_at %s precedes joined_at %s", u.LastActiveAt.Format(time.RFC3339Nano), u.JoinedAt.Format(time.RFC3339Nano))
	}
	return nil
}

package user

import (
	"time"

	"github.com/google/uuid"
)

// Permission and Role rows mirror the static catalog in domain/auth; they are seeded at
// startup and rarely change.
type Permission struct {
	ID          int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"not null;default:''" json:"description"`
}

func (Permission) TableName() string { return "permission" }

type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"not null;default:''" json:"description"`
}

func (Role) TableName() string { return "role" }

type RolePermission struct {
	RoleID       int         `gorm:"primaryKey;autoIncrement:false" json:"role_id"`
	Role         *Role       `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoleID;references:ID" json:"-"`
	PermissionID int         `gorm:"primaryKey;autoIncrement:false" json:"permission_id"`
	Permission   *Permission `gorm:"constraint:OnDelete:CASCADE;foreignKey:PermissionID;references:ID" json:"-"`
}

func (RolePermission) TableName() string { return "role_permission" }

type UserRole struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	RoleID    int       `gorm:"primaryKey;autoIncrement:false" json:"role_id"`
	Role      *Role     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoleID;references:ID" json:"-"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (UserRole) TableName() string { return "user_role" }

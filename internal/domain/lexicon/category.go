package lexicon

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ParentCategoryID *uuid.UUID `gorm:"type:uuid;index;column:parent_category_id" json:"parent_category_id,omitempty"`
	Parent           *Category  `gorm:"constraint:OnDelete:SET NULL;foreignKey:ParentCategoryID;references:ID" json:"-"`
	SloveneName      string     `gorm:"not null;uniqueIndex;column:slovene_name" json:"slovene_name"`
	EnglishName      string     `gorm:"not null;uniqueIndex;column:english_name" json:"english_name"`
	CreatedAt        time.Time  `gorm:"not null;column:created_at" json:"created_at"`
	LastModifiedAt   time.Time  `gorm:"not null;column:last_modified_at" json:"last_modified_at"`
}

func (Category) TableName() string { return "category" }

type MeaningCategory struct {
	MeaningID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"meaning_id"`
	Meaning    *Meaning  `gorm:"constraint:OnDelete:CASCADE;foreignKey:MeaningID;references:ID" json:"-"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"category_id"`
	Category   *Category `gorm:"constraint:OnDelete:CASCADE;foreignKey:CategoryID;references:ID" json:"-"`
	CreatedAt  time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (MeaningCategory) TableName() string { return "word_meaning_category" }

// ParentUpdate is a tri-state re-parent request: keep, set to a category, or detach.
type ParentUpdate struct {
	Set      bool
	ParentID *uuid.UUID
}

func SetParent(id uuid.UUID) ParentUpdate { return ParentUpdate{Set: true, ParentID: &id} }
func DetachParent() ParentUpdate          { return ParentUpdate{Set: true} }

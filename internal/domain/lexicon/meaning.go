package lexicon

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Meaning struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WordID         uuid.UUID `gorm:"type:uuid;not null;index" json:"word_id"`
	Word           *Word     `gorm:"constraint:OnDelete:CASCADE;foreignKey:WordID;references:ID" json:"-"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
	LastModifiedAt time.Time `gorm:"not null;column:last_modified_at" json:"last_modified_at"`
}

func (Meaning) TableName() string { return "word_meaning" }

// MeaningDetail is the language-specific description of a meaning; build it through
// NewMeaningDetail so the language comes from the owning word.
type MeaningDetail struct {
	MeaningID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"meaning_id"`
	Meaning        *Meaning  `gorm:"constraint:OnDelete:CASCADE;foreignKey:MeaningID;references:ID" json:"-"`
	Language       Language  `gorm:"type:varchar(2);not null" json:"language"`
	Disambiguation *string   `gorm:"column:disambiguation" json:"disambiguation,omitempty"`
	Abbreviation   *string   `gorm:"column:abbreviation" json:"abbreviation,omitempty"`
	Description    *string   `gorm:"column:description" json:"description,omitempty"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
	LastModifiedAt time.Time `gorm:"not null;column:last_modified_at" json:"last_modified_at"`
}

func (MeaningDetail) TableName() string { return "word_meaning_detail" }

type DetailFields struct {
	Disambiguation *string
	Abbreviation   *string
	Description    *string
}

func NewMeaningDetail(w *Word, meaningID uuid.UUID, f DetailFields, at time.Time) *MeaningDetail {
	return &MeaningDetail{
		MeaningID:      meaningID,
		Language:       w.Language,
		Disambiguation: cleanText(f.Disambiguation),
		Abbreviation:   cleanText(f.Abbreviation),
		Description:    cleanText(f.Description),
		CreatedAt:      at,
		LastModifiedAt: at,
	}
}

// Empty reports whether the detail carries no text at all.
func (d *MeaningDetail) Empty() bool {
	return d == nil || (d.Disambiguation == nil && d.Abbreviation == nil && d.Description == nil)
}

// OptionalText is a tri-state patch: leave as is, set, or clear.
type OptionalText struct {
	Set   bool
	Value *string
}

func SetText(v string) OptionalText { return OptionalText{Set: true, Value: &v} }
func ClearText() OptionalText       { return OptionalText{Set: true} }

// Apply returns the patched value.
func (o OptionalText) Apply(current *string) *string {
	if !o.Set {
		return current
	}
	return cleanText(o.Value)
}

func cleanText(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

// MeaningView is a meaning with its word language, detail and category links.
type MeaningView struct {
	Meaning
	Language    Language       `json:"language"`
	Detail      *MeaningDetail `json:"detail,omitempty"`
	CategoryIDs []uuid.UUID    `json:"category_ids"`
}

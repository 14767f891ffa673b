package lexicon

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Word struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Language       Language  `gorm:"type:varchar(2);not null;index;check:chk_word_language,language = 'sl' OR language = 'en'" json:"language"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
	LastModifiedAt time.Time `gorm:"not null;column:last_modified_at" json:"last_modified_at"`
}

func (Word) TableName() string { return "word" }

// WordLemma is the language-specific record of a word. Its language always equals the
// owning word's language; build it through NewLemma.
type WordLemma struct {
	WordID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"word_id"`
	Word           *Word     `gorm:"constraint:OnDelete:CASCADE;foreignKey:WordID;references:ID" json:"-"`
	Language       Language  `gorm:"type:varchar(2);not null;uniqueIndex:idx_word_lemma_language_lemma,priority:1" json:"language"`
	Lemma          string    `gorm:"not null;uniqueIndex:idx_word_lemma_language_lemma,priority:2" json:"lemma"`
	CreatedAt      time.Time `gorm:"not null;column:created_at" json:"created_at"`
	LastModifiedAt time.Time `gorm:"not null;column:last_modified_at" json:"last_modified_at"`
}

func (WordLemma) TableName() string { return "word_lemma" }

func NewLemma(w *Word, lemma string, at time.Time) *WordLemma {
	return &WordLemma{
		WordID:         w.ID,
		Language:       w.Language,
		Lemma:          strings.TrimSpace(lemma),
		CreatedAt:      at,
		LastModifiedAt: at,
	}
}

// WordView is a word joined with its lemma.
type WordView struct {
	Word
	Lemma string `json:"lemma"`
}

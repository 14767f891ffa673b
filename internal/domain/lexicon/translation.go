package lexicon

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
)

// Translation links one Slovene meaning with one English meaning. The pair is the key.
type Translation struct {
	SloveneMeaningID uuid.UUID  `gorm:"type:uuid;primaryKey;column:slovene_meaning_id" json:"slovene_meaning_id"`
	SloveneMeaning   *Meaning   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SloveneMeaningID;references:ID" json:"-"`
	EnglishMeaningID uuid.UUID  `gorm:"type:uuid;primaryKey;index;column:english_meaning_id" json:"english_meaning_id"`
	EnglishMeaning   *Meaning   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnglishMeaningID;references:ID" json:"-"`
	TranslatedAt     time.Time  `gorm:"not null;column:translated_at" json:"translated_at"`
	TranslatedBy     *uuid.UUID `gorm:"type:uuid;index;column:translated_by" json:"translated_by,omitempty"`
	Translator       *user.User `gorm:"constraint:OnDelete:SET NULL;foreignKey:TranslatedBy;references:ID" json:"-"`
}

func (Translation) TableName() string { return "word_meaning_translation" }

type TranslationKey struct {
	SloveneMeaningID uuid.UUID `json:"slovene_meaning_id"`
	EnglishMeaningID uuid.UUID `json:"english_meaning_id"`
}

func (t Translation) Key() TranslationKey {
	return TranslationKey{SloveneMeaningID: t.SloveneMeaningID, EnglishMeaningID: t.EnglishMeaningID}
}

// String renders the key as "<slovene>:<english>", the form used in edits and the feed.
func (k TranslationKey) String() string {
	return k.SloveneMeaningID.String() + ":" + k.EnglishMeaningID.String()
}

func ParseTranslationKey(raw string) (TranslationKey, error) {
	sl, en, ok := strings.Cut(raw, ":")
	if !ok {
		return TranslationKey{}, fmt.Errorf("malformed translation key %q", raw)
	}
	slID, err := uuid.Parse(sl)
	if err != nil {
		return TranslationKey{}, fmt.Errorf("translation key slovene side: %w", err)
	}
	enID, err := uuid.Parse(en)
	if err != nil {
		return TranslationKey{}, fmt.Errorf("translation key english side: %w", err)
	}
	return TranslationKey{SloveneMeaningID: slID, EnglishMeaningID: enID}, nil
}

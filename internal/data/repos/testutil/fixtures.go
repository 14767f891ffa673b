package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *user.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &user.User{
		ID:             uuid.New(),
		Username:       username,
		DisplayName:    username + " display",
		HashedPassword: "pw",
		JoinedAt:       now,
		LastModifiedAt: now,
		LastActiveAt:   now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedWord(tb testing.TB, ctx context.Context, tx *gorm.DB, lang lexicon.Language, lemma string) *lexicon.Word {
	tb.Helper()
	now := time.Now().UTC()
	w := &lexicon.Word{ID: uuid.New(), Language: lang, CreatedAt: now, LastModifiedAt: now}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed word: %v", err)
	}
	if err := tx.WithContext(ctx).Create(lexicon.NewLemma(w, lemma, now)).Error; err != nil {
		tb.Fatalf("seed lemma: %v", err)
	}
	return w
}

func SeedMeaning(tb testing.TB, ctx context.Context, tx *gorm.DB, w *lexicon.Word, description string) *lexicon.Meaning {
	tb.Helper()
	now := time.Now().UTC()
	m := &lexicon.Meaning{ID: uuid.New(), WordID: w.ID, CreatedAt: now, LastModifiedAt: now}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed meaning: %v", err)
	}
	if description != "" {
		d := lexicon.NewMeaningDetail(w, m.ID, lexicon.DetailFields{Description: &description}, now)
		if err := tx.WithContext(ctx).Create(d).Error; err != nil {
			tb.Fatalf("seed meaning detail: %v", err)
		}
	}
	return m
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, parentID *uuid.UUID, sl, en string) *lexicon.Category {
	tb.Helper()
	now := time.Now().UTC()
	c := &lexicon.Category{
		ID:               uuid.New(),
		ParentCategoryID: parentID,
		SloveneName:      sl,
		EnglishName:      en,
		CreatedAt:        now,
		LastModifiedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/Stari-kolomoni/kolomoni-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Accounts + authorization
		// =========================
		&types.User{},
		&types.Permission{},
		&types.Role{},
		&types.RolePermission{},
		&types.UserRole{},

		// =========================
		// Dictionary
		// =========================
		&types.Word{},
		&types.WordLemma{},
		&types.Meaning{},
		&types.MeaningDetail{},
		&types.Category{},
		&types.MeaningCategory{},
		&types.Translation{},

		// =========================
		// Audit + change feed
		// =========================
		&types.Edit{},
		&types.FeedEntry{},
		&types.FeedCursor{},
	)
}

// EnsureLexiconIndexes adds lookup indexes AutoMigrate does not express. The statements
// are valid on both PostgreSQL and SQLite.
func EnsureLexiconIndexes(db *gorm.DB) error {
	// Case-insensitive lemma lookups.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_word_lemma_lower_lemma
		ON word_lemma (lower(lemma));
	`).Error; err != nil {
		return fmt.Errorf("create idx_word_lemma_lower_lemma: %w", err)
	}

	// Meanings of a category, for category document refreshes.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_word_meaning_category_category
		ON word_meaning_category (category_id, meaning_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_word_meaning_category_category: %w", err)
	}

	// Edit history per subject, newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_edit_subject_performed_at
		ON edit (subject_kind, subject_key, performed_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_edit_subject_performed_at: %w", err)
	}

	return nil
}

// Migrate runs table migration, lookup indexes and the permission catalog seed.
func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := EnsureLexiconIndexes(db); err != nil {
		return err
	}
	if err := SeedRolesAndPermissions(db); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := Migrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Info("Auto migrating sqlite tables...")
	if err := Migrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

package repos

import (
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/user"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type WordRepo = lexicon.WordRepo
type MeaningRepo = lexicon.MeaningRepo
type CategoryRepo = lexicon.CategoryRepo
type TranslationRepo = lexicon.TranslationRepo

type UserRepo = user.UserRepo
type UserRoleRepo = user.UserRoleRepo

type EditRepo = edit.EditRepo

type FeedEntryRepo = feed.EntryRepo
type FeedCursorRepo = feed.CursorRepo

func NewWordRepo(db *gorm.DB, baseLog *logger.Logger) WordRepo {
	return lexicon.NewWordRepo(db, baseLog)
}
func NewMeaningRepo(db *gorm.DB, baseLog *logger.Logger) MeaningRepo {
	return lexicon.NewMeaningRepo(db, baseLog)
}
func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return lexicon.NewCategoryRepo(db, baseLog)
}
func NewTranslationRepo(db *gorm.DB, baseLog *logger.Logger) TranslationRepo {
	return lexicon.NewTranslationRepo(db, baseLog)
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}
func NewUserRoleRepo(db *gorm.DB, baseLog *logger.Logger) UserRoleRepo {
	return user.NewUserRoleRepo(db, baseLog)
}

func NewEditRepo(db *gorm.DB, baseLog *logger.Logger) EditRepo {
	return edit.NewEditRepo(db, baseLog)
}

func NewFeedEntryRepo(db *gorm.DB, baseLog *logger.Logger) FeedEntryRepo {
	return feed.NewEntryRepo(db, baseLog)
}
func NewFeedCursorRepo(db *gorm.DB, baseLog *logger.Logger) FeedCursorRepo {
	return feed.NewCursorRepo(db, baseLog)
}

// Set bundles every repo over one database handle.
type Set struct {
	Words        WordRepo
	Meanings     MeaningRepo
	Categories   CategoryRepo
	Translations TranslationRepo
	Users        UserRepo
	UserRoles    UserRoleRepo
	Edits        EditRepo
	Feed         FeedEntryRepo
	Cursors      FeedCursorRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Words:        NewWordRepo(db, baseLog),
		Meanings:     NewMeaningRepo(db, baseLog),
		Categories:   NewCategoryRepo(db, baseLog),
		Translations: NewTranslationRepo(db, baseLog),
		Users:        NewUserRepo(db, baseLog),
		UserRoles:    NewUserRoleRepo(db, baseLog),
		Edits:        NewEditRepo(db, baseLog),
		Feed:         NewFeedEntryRepo(db, baseLog),
		Cursors:      NewFeedCursorRepo(db, baseLog),
	}
}

package domain

import (
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/user"
)

const (
	LanguageSlovene = lexicon.Slovene
	LanguageEnglish = lexicon.English

	FeedOpUpsert = feed.OpUpsert
	FeedOpDelete = feed.OpDelete
)

type Language = lexicon.Language

type Word = lexicon.Word
type WordLemma = lexicon.WordLemma
type Meaning = lexicon.Meaning
type MeaningDetail = lexicon.MeaningDetail
type Translation = lexicon.Translation
type Category = lexicon.Category
type MeaningCategory = lexicon.MeaningCategory

type User = user.User
type Permission = user.Permission
type Role = user.Role
type RolePermission = user.RolePermission
type UserRole = user.UserRole

type Edit = edit.Edit

type FeedEntry = feed.Entry
type FeedCursor = feed.Cursor

package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
)

var LexiconAggregateContract = Contract{
	Name: "LexiconAggregate",
	Operations: []Operation{
		OpCreateWord, OpUpdateWord, OpDeleteWord,
		OpCreateMeaning, OpUpdateMeaning, OpDeleteMeaning,
		OpLinkMeaningCategory, OpUnlinkMeaningCategory,
		OpCreateCategory, OpUpdateCategory, OpDeleteCategory,
		OpCreateTranslation, OpUpdateTranslation, OpDeleteTranslation,
	},
	Subjects: []feed.EntityKind{feed.KindWord, feed.KindMeaning, feed.KindCategory, feed.KindTranslation},
}

// LexiconAggregate owns dictionary consistency invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeDenied, CodeValidation, CodeNotFound, CodeConstraintViolation, CodeCycleDetected,
// CodeRetryable, CodeInternal.
type LexiconAggregate interface {
	Aggregate

	CreateWord(ctx context.Context, caller auth.Caller, in CreateWordInput) (WordResult, error)
	UpdateWord(ctx context.Context, caller auth.Caller, in UpdateWordInput) (WordResult, error)
	// DeleteWord removes the word with its lemma, meanings, category links and translations.
	DeleteWord(ctx context.Context, caller auth.Caller, in DeleteWordInput) (DeleteWordResult, error)

	CreateMeaning(ctx context.Context, caller auth.Caller, in CreateMeaningInput) (MeaningResult, error)
	UpdateMeaning(ctx context.Context, caller auth.Caller, in UpdateMeaningInput) (MeaningResult, error)
	DeleteMeaning(ctx context.Context, caller auth.Caller, in DeleteMeaningInput) (Receipt, error)
	LinkMeaningCategory(ctx context.Context, caller auth.Caller, in MeaningCategoryInput) (MeaningResult, error)
	UnlinkMeaningCategory(ctx context.Context, caller auth.Caller, in MeaningCategoryInput) (MeaningResult, error)

	CreateCategory(ctx context.Context, caller auth.Caller, in CreateCategoryInput) (CategoryResult, error)
	// UpdateCategory rejects re-parenting that would close a cycle with CodeCycleDetected.
	UpdateCategory(ctx context.Context, caller auth.Caller, in UpdateCategoryInput) (CategoryResult, error)
	// DeleteCategory detaches children; it never deletes them.
	DeleteCategory(ctx context.Context, caller auth.Caller, in DeleteCategoryInput) (DeleteCategoryResult, error)

	CreateTranslation(ctx context.Context, caller auth.Caller, in TranslationInput) (TranslationResult, error)
	UpdateTranslation(ctx context.Context, caller auth.Caller, in UpdateTranslationInput) (TranslationResult, error)
	DeleteTranslation(ctx context.Context, caller auth.Caller, in TranslationInput) (Receipt, error)
}

// Receipt identifies the Edit and Change Feed entry written by a mutation.
type Receipt struct {
	EditID uuid.UUID
	Seq    int64
}

type CreateWordInput struct {
	Language lexicon.Language
	Lemma    string
}

type UpdateWordInput struct {
	WordID uuid.UUID
	Lemma  string
}

type WordResult struct {
	Word lexicon.WordView
	Receipt
}

type DeleteWordInput struct {
	WordID uuid.UUID
}

type DeleteWordResult struct {
	Receipt
	DeletedMeaningIDs []uuid.UUID
}

type CreateMeaningInput struct {
	WordID      uuid.UUID
	Detail      lexicon.DetailFields
	CategoryIDs []uuid.UUID
}

type UpdateMeaningInput struct {
	MeaningID      uuid.UUID
	Disambiguation lexicon.OptionalText
	Abbreviation   lexicon.OptionalText
	Description    lexicon.OptionalText
}

type DeleteMeaningInput struct {
	MeaningID uuid.UUID
}

type MeaningCategoryInput struct {
	MeaningID  uuid.UUID
	CategoryID uuid.UUID
}

type MeaningResult struct {
	Meaning lexicon.MeaningView
	Receipt
}

type CreateCategoryInput struct {
	ParentID    *uuid.UUID
	SloveneName string
	EnglishName string
}

type UpdateCategoryInput struct {
	CategoryID  uuid.UUID
	SloveneName *string
	EnglishName *string
	Parent      lexicon.ParentUpdate
}

type DeleteCategoryInput struct {
	CategoryID uuid.UUID
}

type CategoryResult struct {
	Category lexicon.Category
	Receipt
}

type DeleteCategoryResult struct {
	Receipt
	DetachedChildIDs []uuid.UUID
}

type TranslationInput struct {
	Key lexicon.TranslationKey
}

// UpdateTranslationInput re-attributes a translation; a nil TranslatedBy clears it.
type UpdateTranslationInput struct {
	Key          lexicon.TranslationKey
	TranslatedBy *uuid.UUID
}

type TranslationResult struct {
	Translation lexicon.Translation
	Receipt
}

package aggregates

import (
	"strings"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/lexicon"
)

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireFound turns a missing row into a not-found error naming what was looked up.
func RequireFound[T any](row *T, what string, key any) error {
	if row != nil {
		return nil
	}
	return NotFoundError("%s %v not found", strings.TrimSpace(what), key)
}

// RequireAffected fails with not-found when a guarded statement touched no rows.
func RequireAffected(n int64, what string) error {
	if n > 0 {
		return nil
	}
	return NotFoundError("%s not found", strings.TrimSpace(what))
}

// RequireLanguage checks the language of one side of a translation.
func RequireLanguage(side string, got, want lexicon.Language) error {
	if got == want {
		return nil
	}
	return ConstraintError(side + " meaning belongs to a " + got.String() + " word, want " + want.String())
}

// RequireText trims v and rejects an empty result.
func RequireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ValidationError(field + " must not be empty")
	}
	return v, nil
}

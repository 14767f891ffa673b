package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("aggregate not found")
	// ErrConstraint indicates a uniqueness, language or timestamp rule was broken.
	ErrConstraint = errors.New("aggregate constraint violation")
	// ErrCycle indicates a category re-parent would close a cycle.
	ErrCycle = errors.New("aggregate category cycle")
	// ErrConflict indicates optimistic/concurrency conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// NotFoundError tags an error as a missing referenced entity.
func NotFoundError(format string, args ...any) error {
	return errors.Join(ErrNotFound, fmt.Errorf(format, args...))
}

// ConstraintError tags an error as constraint violation.
func ConstraintError(msg string) error {
	return errors.Join(ErrConstraint, errors.New(strings.TrimSpace(msg)))
}

// CycleError tags an error as a detected category cycle.
func CycleError(msg string) error {
	return errors.Join(ErrCycle, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// RetryableError tags an error as retryable failure.
func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure/domain failures into aggregate error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	switch {
	case errors.Is(err, auth.ErrDenied):
		return domainagg.Wrap(domainagg.CodeDenied, op, err)
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrCycle):
		return domainagg.Wrap(domainagg.CodeCycleDetected, op, err)
	case errors.Is(err, ErrConstraint):
		return domainagg.Wrap(domainagg.CodeConstraintViolation, op, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, ErrConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505", "23514":
			return domainagg.Wrap(domainagg.CodeConstraintViolation, op, err) // unique_violation/check_violation
		case "23503":
			return domainagg.Wrap(domainagg.CodeNotFound, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "check constraint failed"):
		return domainagg.Wrap(domainagg.CodeConstraintViolation, op, err)
	case strings.Contains(msg, "foreign key constraint failed"):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
}

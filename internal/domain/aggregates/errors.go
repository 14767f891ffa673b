package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode is the stable, wire-visible classification of an aggregate failure.
type ErrorCode string

const (
	CodeDenied              ErrorCode = "denied"
	CodeValidation          ErrorCode = "validation"
	CodeNotFound            ErrorCode = "not_found"
	CodeConstraintViolation ErrorCode = "constraint_violation"
	CodeCycleDetected       ErrorCode = "cycle_detected"
	CodeConflict            ErrorCode = "conflict"
	CodeRetryable           ErrorCode = "retryable"
	CodeInternal            ErrorCode = "internal"
)

// Codes lists every code in severity-neutral order.
func Codes() []ErrorCode {
	return []ErrorCode{
		CodeDenied, CodeValidation, CodeNotFound, CodeConstraintViolation,
		CodeCycleDetected, CodeConflict, CodeRetryable, CodeInternal,
	}
}

// broader maps a code to the more general code it is a case of.
var broader = map[ErrorCode]ErrorCode{
	CodeCycleDetected: CodeConstraintViolation,
}

// Implies reports whether c is other or a special case of it.
func (c ErrorCode) Implies(other ErrorCode) bool {
	for cur := c; cur != ""; cur = broader[cur] {
		if cur == other {
			return true
		}
	}
	return false
}

// Error is returned by every aggregate write. Op is the operation name, Message is
// safe to show to API callers and Cause keeps the underlying driver or domain error.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString(" ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Code))
	b.WriteString("]")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// Wrap classifies err under code, reusing its text as the message.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode matches the exact code; use Implies for the code hierarchy.
func IsCode(err error, code ErrorCode) bool {
	c := CodeOf(err)
	return c != "" && c == code
}

// IsConstraintViolation holds for constraint failures, detected category cycles included.
func IsConstraintViolation(err error) bool {
	return CodeOf(err).Implies(CodeConstraintViolation)
}

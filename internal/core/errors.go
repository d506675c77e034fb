package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatPermission ErrorCategory = "permission" // Access policy rejected the write
	ErrCatAudit      ErrorCategory = "audit"      // Audit side-channel write failed
	ErrCatState      ErrorCategory = "state"      // Persisted state inconsistent
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Hint      string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     code,
		Message:  message,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrCardNotFound reports a card id that does not resolve to a row.
func ErrCardNotFound(id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     CodeCardNotFound,
		Message:  fmt.Sprintf("card not found: %s", id),
	}
}

// ErrStageNotFound reports a stage id that does not resolve to a row.
func ErrStageNotFound(id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     CodeStageNotFound,
		Message:  fmt.Sprintf("stage not found: %s", id),
	}
}

// ErrPermissionDenied reports a write rejected by the access policy of table.
func ErrPermissionDenied(table string) *DomainError {
	return &DomainError{
		Category: ErrCatPermission,
		Code:     CodePermissionDenied,
		Message:  fmt.Sprintf("write to %s denied by access policy", table),
		Hint: fmt.Sprintf("grant insert on %q to the application role "+
			"(or remove it from store.read_only_tables) and retry", table),
	}
}

// ErrAuditWrite wraps a failed history or comment write during a move.
// It is logged and published, never returned to the mover's caller.
func ErrAuditWrite(kind string, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatAudit,
		Code:      CodeAuditWriteFailed,
		Message:   fmt.Sprintf("%s write failed", kind),
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// IsCardNotFound reports whether err is a CardNotFound domain error.
func IsCardNotFound(err error) bool {
	var domErr *DomainError
	return errors.As(err, &domErr) && domErr.Code == CodeCardNotFound
}

// RemediationHint returns the hint attached to a domain error, if any.
func RemediationHint(err error) string {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Hint
	}
	return ""
}

// Predefined error codes
const (
	CodeCardNotFound     = "CARD_NOT_FOUND"
	CodeStageNotFound    = "STAGE_NOT_FOUND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeAuditWriteFailed = "AUDIT_WRITE_FAILED"
	CodeCorruptRow       = "CORRUPT_ROW"

	// Validation error codes
	CodeEmptyCardID      = "EMPTY_CARD_ID"
	CodeEmptyStageID     = "EMPTY_STAGE_ID"
	CodeEmptyBody        = "EMPTY_BODY"
	CodeEmptyAuthor      = "EMPTY_AUTHOR"
	CodeEmptyActor       = "EMPTY_ACTOR"
	CodeEmptyStageName   = "EMPTY_STAGE_NAME"
	CodeInvalidPriority  = "INVALID_PRIORITY"
	CodeInvalidPipeline  = "INVALID_PIPELINE"
	CodeBodyTooLong      = "BODY_TOO_LONG"
	CodeInvalidStageFile = "INVALID_STAGE_FILE"
)

// MaxCommentLength is the maximum allowed comment body length in bytes.
const MaxCommentLength = 10000

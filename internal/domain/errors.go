package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error

	// category sentinels match every error carrying their code
	category bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches a category sentinel (ErrDataSource, ErrEmbeddingUnavailable,
// ErrPersistence, ErrSanitizationRejected) by code. Every other sentinel only
// matches itself.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.category {
		return e.Code == t.Code
	}
	return e == t
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func newCategory(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, category: true}
}

// Common domain error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeDataSource           = "DATA_SOURCE_ERROR"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodePersistence          = "PERSISTENCE_ERROR"
	ErrCodeSanitizationRejected = "SANITIZATION_REJECTED"
)

// Pipeline errors
var (
	ErrDataSource           = newCategory(ErrCodeDataSource, "corpus source unreadable")
	ErrEmbeddingUnavailable = newCategory(ErrCodeEmbeddingUnavailable, "embedding capability unavailable")
	ErrPersistence          = newCategory(ErrCodePersistence, "ticket store unwritable")
	ErrSanitizationRejected = newCategory(ErrCodeSanitizationRejected, "answer rejected by sanitizer")
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidTicketStatus  = NewDomainError(ErrCodeValidation, "invalid ticket status")
	ErrContaminatedAnswer   = NewDomainError(ErrCodeValidation, "answer contains leaked scaffolding")
	ErrEmptyIssue           = NewDomainError(ErrCodeValidation, "issue description is required")
)

// Not found errors
var (
	ErrIndexNotFound  = NewDomainError(ErrCodeNotFound, "persisted index not found")
	ErrTicketNotFound = NewDomainError(ErrCodeNotFound, "ticket not found")
)

// Authorization errors
var (
	ErrInvalidAdminKey = NewDomainError(ErrCodeUnauthorized, "invalid admin key")
)

// DataSourceError wraps a corpus loading failure.
func DataSourceError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeDataSource, message, err)
}

// EmbeddingUnavailableError wraps a failure of the embedding provider.
func EmbeddingUnavailableError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeEmbeddingUnavailable, message, err)
}

// PersistenceError wraps a ticket store failure.
func PersistenceError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodePersistence, message, err)
}

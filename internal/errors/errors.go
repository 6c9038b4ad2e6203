package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound indicates the user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrConversationNotFound indicates the conversation was not found
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrRequirementNotFound indicates the requirement was not found
	ErrRequirementNotFound = errors.New("requirement not found")

	// ErrQuoteNotFound indicates the quote was not found
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrDesignNotFound indicates the design was not found
	ErrDesignNotFound = errors.New("design not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrNotParticipant indicates the caller is not a participant of the conversation
	ErrNotParticipant = errors.New("not a conversation participant")

	// ErrInvalidOTP indicates the OTP code did not match or has expired
	ErrInvalidOTP = errors.New("invalid or expired verification code")

	// ErrRateLimited indicates the caller exceeded a request quota
	ErrRateLimited = errors.New("too many requests")

	// ErrExternalService indicates a third-party provider call failed
	ErrExternalService = errors.New("external service failure")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicateEntry  = "DUPLICATE_ENTRY"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInvalidOTP      = "INVALID_OTP"
	CodeRateLimited     = "RATE_LIMITED"
	CodeExternalService = "EXTERNAL_SERVICE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// ProviderError represents a failed call to a third-party provider
// (SMS, WhatsApp, e-mail relay, image generation). It keeps the provider
// name and the upstream HTTP status so the failure can be logged and
// classified without leaking provider responses to API clients.
type ProviderError struct {
	Err      error  `json:"-"`
	Provider string `json:"provider"`
	Status   int    `json:"status,omitempty"`
	Message  string `json:"message"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrExternalService
}

// NewProviderError creates a ProviderError for a failed provider call
func NewProviderError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{
		Err:      err,
		Provider: provider,
		Status:   status,
		Message:  message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrConversationNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrRequirementNotFound) ||
		errors.Is(err, ErrQuoteNotFound) ||
		errors.Is(err, ErrDesignNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsForbidden checks if the error is a forbidden/participancy error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotParticipant)
}

// IsExternalService checks if the error came from a third-party provider call
func IsExternalService(err error) bool {
	if errors.Is(err, ErrExternalService) {
		return true
	}
	var provErr *ProviderError
	return errors.As(err, &provErr)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrInvalidOTP):
		return CodeInvalidOTP
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case IsForbidden(err):
		return CodeForbidden
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case IsExternalService(err):
		return CodeExternalService
	default:
		return CodeInternalError
	}
}

// GetProviderError extracts a ProviderError from an error chain if present
func GetProviderError(err error) *ProviderError {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr
	}
	return nil
}

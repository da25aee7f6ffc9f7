// Package apperror defines a centralized system for application-specific errors.
// Every layer returns *AppError values (or wraps them), and the HTTP handlers
// translate them into consistent JSON responses and status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of an application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication error (e.g. invalid credentials)
	AuthError
	// TokenExpiredError represents a bearer token past its expiry
	TokenExpiredError
	// TokenInvalidError represents a malformed or badly signed bearer token
	TokenInvalidError
	// TokenAbsentError represents a request missing its bearer token
	TokenAbsentError
	// ForbiddenError represents an authorization denial (valid token, no permission)
	ForbiddenError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error with field messages
	ValidationError
	// BadRequestError represents a generic bad request
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
)

// AppError is the application's error type. It carries the error category,
// a client-facing message, optional per-field validation messages, and an
// optional wrapped underlying error for debugging.
type AppError struct {
	Type    ErrorType
	Message string
	Fields  map[string][]string // Field-level messages for validation errors
	Err     error               // Underlying error
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, participating in errors.Is/errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError, ConfigError, InternalError:
		return http.StatusInternalServerError
	case AuthError, TokenExpiredError, TokenInvalidError, TokenAbsentError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError:
		return http.StatusUnprocessableEntity
	case BadRequestError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. Prefer the typed constructors below.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError (failed authentication, 401)
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewTokenExpiredError creates a new TokenExpiredError
func NewTokenExpiredError(underlyingError error) *AppError {
	return NewAppError(TokenExpiredError, "Token expired", underlyingError)
}

// NewTokenInvalidError creates a new TokenInvalidError
func NewTokenInvalidError(underlyingError error) *AppError {
	return NewAppError(TokenInvalidError, "Token invalid", underlyingError)
}

// NewTokenAbsentError creates a new TokenAbsentError
func NewTokenAbsentError(underlyingError error) *AppError {
	return NewAppError(TokenAbsentError, "Token absent", underlyingError)
}

// NewForbiddenError creates a new ForbiddenError (authorization denial, 403)
func NewForbiddenError(message string, underlyingError error) *AppError {
	return NewAppError(ForbiddenError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError with per-field messages.
func NewValidationError(fields map[string][]string) *AppError {
	return &AppError{
		Type:    ValidationError,
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

// NewFieldError creates a ValidationError for a single field.
func NewFieldError(field, message string) *AppError {
	return NewValidationError(map[string][]string{field: {message}})
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// ErrorResponse represents the JSON error payload returned to API clients.
// Token and credential failures use the bare `error` field; everything else
// uses `status`/`message`, with `errors` carrying field-level messages.
type ErrorResponse struct {
	Status  string              `json:"status,omitempty" example:"error"`
	Error   string              `json:"error,omitempty" example:"Token expired"`
	Message string              `json:"message,omitempty" example:"A description of the error"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ToResponse converts an AppError to the ErrorResponse wire shape.
func (e *AppError) ToResponse() ErrorResponse {
	switch e.Type {
	case AuthError, TokenExpiredError, TokenInvalidError, TokenAbsentError:
		return ErrorResponse{Error: e.Message}
	case ValidationError:
		return ErrorResponse{Status: "error", Message: e.Message, Errors: e.Fields}
	default:
		return ErrorResponse{Status: "error", Message: e.Message}
	}
}

// FromError attempts to convert a generic error to an *AppError.
// It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsAuthError checks if an error is an AuthError
func IsAuthError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == AuthError
}

// IsForbidden checks if an error is a Forbidden error
func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ForbiddenError
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

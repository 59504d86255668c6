package errors

import "fmt"

// Application error types organized by category for better error handling

type ErrorType string

// Domain/Business Logic Errors - errors related to business rules and validation
const (
	ValidationError    ErrorType = "VALIDATION_ERROR"
	InvalidKeyError    ErrorType = "INVALID_KEY_INPUT"
	NotFoundError      ErrorType = "NOT_FOUND_ERROR"
	AlreadyExistsError ErrorType = "ALREADY_EXISTS_ERROR"
	UnauthorizedError  ErrorType = "UNAUTHORIZED_ERROR"
	ForbiddenError     ErrorType = "FORBIDDEN_ERROR"
	RateLimitError     ErrorType = "RATE_LIMIT_ERROR"
)

// Infrastructure Errors - errors related to external systems and services
const (
	DatabaseError ErrorType = "DATABASE_ERROR"
	CacheError    ErrorType = "CACHE_ERROR"
)

// System/Configuration Errors - errors related to system setup and configuration
const (
	ConfigurationError ErrorType = "CONFIGURATION_ERROR"
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain/Business Logic Error Constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

func NewInvalidKeyError(message string) *AppError {
	return New(InvalidKeyError, message)
}

func NewNotFoundError(message string) *AppError {
	return New(NotFoundError, message)
}

func NewAlreadyExistsError(message string) *AppError {
	return New(AlreadyExistsError, message)
}

func NewUnauthorizedError(message string) *AppError {
	return New(UnauthorizedError, message)
}

func NewForbiddenError(message string) *AppError {
	return New(ForbiddenError, message)
}

func NewRateLimitError(message string) *AppError {
	return New(RateLimitError, message)
}

// Infrastructure Error Constructors
func NewDatabaseError(message string, cause error) *AppError {
	return Wrap(DatabaseError, message, cause)
}

func NewCacheError(message string, cause error) *AppError {
	return Wrap(CacheError, message, cause)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}

// Helper functions for error type checking
func isType(err error, t ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == t
	}
	return false
}

func IsValidationError(err error) bool {
	return isType(err, ValidationError)
}

func IsInvalidKeyError(err error) bool {
	return isType(err, InvalidKeyError)
}

func IsNotFoundError(err error) bool {
	return isType(err, NotFoundError)
}

func IsAlreadyExistsError(err error) bool {
	return isType(err, AlreadyExistsError)
}

func IsUnauthorizedError(err error) bool {
	return isType(err, UnauthorizedError)
}

func IsForbiddenError(err error) bool {
	return isType(err, ForbiddenError)
}

func IsDatabaseError(err error) bool {
	return isType(err, DatabaseError)
}

func IsCacheError(err error) bool {
	return isType(err, CacheError)
}

func IsConfigurationError(err error) bool {
	return isType(err, ConfigurationError)
}

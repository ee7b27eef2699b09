package apperrors

import (
	"net/http"
)

// AppError carries an HTTP status alongside the message so the global
// error middleware can translate it at the boundary.
type AppError struct {
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WithCode(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// BusinessError wraps a generic business rule violation.
func BusinessError(code int, message string) *AppError {
	return WithCode(code, message)
}

// InvalidRequestError wraps a validation failure (malformed URL, bad alias).
func InvalidRequestError(message string) *AppError {
	return WithCode(http.StatusBadRequest, message)
}

func InvalidRequestErrorDefault() *AppError {
	return WithCode(http.StatusBadRequest, "Parameter verification failed")
}

// AliasTakenError reports a custom alias already held by another link,
// active or not.
func AliasTakenError(message string) *AppError {
	return BusinessError(http.StatusBadRequest, message)
}

// UnauthenticatedError reports a missing or invalid credential on a
// protected path.
func UnauthenticatedError(message string) *AppError {
	return WithCode(http.StatusUnauthorized, message)
}

// PlanLimitError reports a quota violation on the caller's plan tier.
func PlanLimitError(message string) *AppError {
	return BusinessError(http.StatusForbidden, message)
}

// FeatureNotAllowedError reports a feature outside the caller's plan tier.
func FeatureNotAllowedError(message string) *AppError {
	return BusinessError(http.StatusForbidden, message)
}

func NotFoundError(message string) *AppError {
	return WithCode(http.StatusNotFound, message)
}

// CodeExhaustionError reports that the generator could not find a free
// short code within the retry bound. A configuration alarm, not a
// user-retryable condition.
func CodeExhaustionError() *AppError {
	return WithCode(http.StatusInternalServerError, "Short code space exhausted")
}

func SystemError(message string) *AppError {
	return WithCode(http.StatusInternalServerError, message)
}

func SystemErrorDefault() *AppError {
	return WithCode(http.StatusInternalServerError, "System error")
}

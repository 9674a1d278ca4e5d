// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrInvalidCode        = errors.New("invalid reset code")
	ErrCodeExpired        = errors.New("reset code expired")
	ErrBadSignature       = errors.New("bad signature")
	ErrNotificationFailed = errors.New("notification delivery failed")
	ErrInternal           = errors.New("internal error")
)

// Stable machine-readable error codes. Clients branch on these, never on
// the message text.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCode        = "INVALID_CODE"
	CodeCodeExpired        = "CODE_EXPIRED"
	CodeBadSignature       = "BAD_SIGNATURE"
	CodeConflict           = "CONFLICT"
	CodeNotificationFailed = "NOTIFICATION_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, CodeValidation)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		CodeNotFound,
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		CodeUnauthorized,
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"invalid or expired token",
		http.StatusUnauthorized,
		CodeTokenInvalid,
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, CodeForbidden)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		CodeConflict,
	)
}

func ConflictError(message, code string) *AppError {
	return NewAppError(ErrDuplicateKey, message, http.StatusConflict, code)
}

func InternalError(err error) *AppError {
	return NewAppError(
		err,
		"internal server error",
		http.StatusInternalServerError,
		CodeInternal,
	)
}

// FromError maps a wrapped sentinel to its public AppError. Anything
// unrecognised becomes an opaque internal error.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(err, "invalid input", http.StatusBadRequest, CodeValidation)
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, "resource not found", http.StatusNotFound, CodeNotFound)
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("")
	case errors.Is(err, ErrInvalidCode):
		return NewAppError(err, "invalid reset code", http.StatusBadRequest, CodeInvalidCode)
	case errors.Is(err, ErrCodeExpired):
		return NewAppError(err, "reset code expired", http.StatusBadRequest, CodeCodeExpired)
	case errors.Is(err, ErrBadSignature):
		return NewAppError(err, "invalid signature", http.StatusBadRequest, CodeBadSignature)
	case errors.Is(err, ErrDuplicateKey):
		return NewAppError(err, "resource already exists", http.StatusConflict, CodeConflict)
	case errors.Is(err, ErrNotificationFailed):
		return NewAppError(
			err,
			"notification could not be delivered",
			http.StatusServiceUnavailable,
			CodeNotificationFailed,
		)
	default:
		return InternalError(err)
	}
}

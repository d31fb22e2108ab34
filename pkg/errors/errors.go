package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Error kinds shared by every module.
var (
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "datos inválidos")
	ErrBusinessRule       = New("BUSINESS_RULE", http.StatusBadRequest, "operación no permitida")
	ErrDuplicate          = New("DUPLICATE", http.StatusBadRequest, "el registro ya existe")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "No autorizado")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Credenciales inválidas")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusUnauthorized, "La cuenta no está activa")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "No tienes permisos para esta acción")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "Recurso no encontrado")
	ErrRetryable          = New("RETRYABLE", http.StatusConflict, "Conflicto temporal, intenta nuevamente")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "Error interno del servidor")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps an unexpected failure with a caller supplied message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Invalid wraps a validation failure.
func Invalid(err error, message string) *Error {
	return Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
}

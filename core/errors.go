package core

import (
	"net/http"

	"github.com/pkg/errors"
)

// GenericErrorMessage is shown to the user whenever nothing more specific is known.
const GenericErrorMessage = "Ocurrió un error inesperado, inténtelo nuevamente"

var (
	ErrUnauthorized = errors.New("su sesión ha expirado, inicie sesión nuevamente")
	ErrNotFound     = errors.New("registro no encontrado")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// APIError is a non-2xx answer from the upstream REST API.
type APIError struct {
	Status  int
	Message string
}

func NewAPIError(status int, msg string) *APIError {
	if msg == "" {
		msg = GenericErrorMessage
	}
	return &APIError{Status: status, Message: msg}
}

func (err *APIError) Error() string {
	return err.Message
}

// IsUnauthorized reports whether err means the stored token is no longer valid.
func IsUnauthorized(err error) bool {
	cause := errors.Cause(err)
	if cause == ErrUnauthorized {
		return true
	}
	apiErr, ok := cause.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a missing record, locally or upstream.
func IsNotFound(err error) bool {
	cause := errors.Cause(err)
	if cause == ErrNotFound {
		return true
	}
	apiErr, ok := cause.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

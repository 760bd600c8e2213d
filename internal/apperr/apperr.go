// Package apperr defines the typed errors returned by domain services.
//
// Every error carries a Kind and an HTTP status hint so the transport layer can
// render it without knowing which service produced it. Unknown errors are folded
// into KindInternal by From and never expose their raw message.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation    Kind = "validation_failed"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindStorageWrite  Kind = "storage_write_failed"
	KindStorageDelete Kind = "storage_delete_failed"
	KindPersistence   Kind = "persistence_failed"
	KindUnsupported   Kind = "unsupported"
	KindInternal      Kind = "internal"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is the error type shared by all services.
type Error struct {
	Kind    Kind         `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"-"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, status int, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    strings.ToUpper(string(kind)),
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation reports bad input. It is returned before any side effect.
func Validation(message string, fields ...FieldError) *Error {
	e := newError(KindValidation, http.StatusBadRequest, message, nil)
	e.Fields = fields
	return e
}

// NotFound reports a missing attachment or referenced entity.
func NotFound(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, message, nil)
}

// Conflict reports a uniqueness clash in the metadata store.
func Conflict(message string, err error) *Error {
	return newError(KindConflict, http.StatusConflict, message, err)
}

// StorageWrite reports a failed blob write.
func StorageWrite(err error) *Error {
	return newError(KindStorageWrite, http.StatusInternalServerError, "failed to store attachment content", err)
}

// StorageDelete reports a failed blob removal.
func StorageDelete(err error) *Error {
	return newError(KindStorageDelete, http.StatusInternalServerError, "failed to remove attachment content", err)
}

// Persistence reports a failed metadata transaction.
func Persistence(err error) *Error {
	return newError(KindPersistence, http.StatusInternalServerError, "failed to persist attachment", err)
}

// Unsupported reports an operation the configured backend cannot perform.
func Unsupported(message string) *Error {
	return newError(KindUnsupported, http.StatusNotImplemented, message, nil)
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return newError(KindInternal, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), err)
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrStorageWrite  = &Error{Kind: KindStorageWrite}
	ErrStorageDelete = &Error{Kind: KindStorageDelete}
	ErrPersistence   = &Error{Kind: KindPersistence}
	ErrUnsupported   = &Error{Kind: KindUnsupported}
	ErrInternal      = &Error{Kind: KindInternal}
)

// From returns the *Error in err's chain, or wraps err as KindInternal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// KindOf returns the Kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}

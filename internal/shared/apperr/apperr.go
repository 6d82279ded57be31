// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUpstream     Kind = "upstream_failure"
	KindInternal     Kind = "internal"
)

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeIdempotencyKeyExists = "IDEMPOTENCY_KEY_EXISTS"
	CodeDocumentNotProcessed = "DOCUMENT_NOT_PROCESSED"
	CodeUpstream             = "UPSTREAM_FAILURE"
	CodeInternal             = "INTERNAL_ERROR"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error returned across service boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newErr(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

// Validation reports malformed or missing input.
func Validation(msg string, fields ...FieldError) *Error {
	e := newErr(KindValidation, CodeValidation, msg, nil)
	e.Fields = fields
	return e
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) *Error {
	return newErr(KindUnauthorized, CodeUnauthorized, msg, nil)
}

// NotFound reports an absent record, or one not owned by the caller.
func NotFound(msg string) *Error {
	return newErr(KindNotFound, CodeNotFound, msg, nil)
}

// Conflict reports a duplicate unique key.
func Conflict(code, msg string) *Error {
	if code == "" {
		code = CodeConflict
	}
	return newErr(KindConflict, code, msg, nil)
}

// Upstream wraps an oracle failure.
func Upstream(msg string, err error) *Error {
	return newErr(KindUpstream, CodeUpstream, msg, err)
}

// Internal wraps a store or other infrastructure failure.
func Internal(msg string, err error) *Error {
	return newErr(KindInternal, CodeInternal, msg, err)
}

// WithCode returns a copy of e carrying a more specific code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// As extracts an *Error from err. Untyped errors become Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("internal error", err)
}

// KindOf reports the kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

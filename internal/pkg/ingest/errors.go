package ingest

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures. Every kind is terminal for the current
// request; retries are the caller's responsibility.
type Kind int

const (
	KindMalformedBody Kind = iota + 1
	KindTenantNotFound
	KindOriginNotAllowed
	KindSignatureInvalid
	KindValidationFailed
	KindPersistenceFailed
)

func (k Kind) String() string {
	switch k {
	case KindMalformedBody:
		return "malformed_body"
	case KindTenantNotFound:
		return "tenant_not_found"
	case KindOriginNotAllowed:
		return "origin_not_allowed"
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindValidationFailed:
		return "validation_failed"
	case KindPersistenceFailed:
		return "persistence_failed"
	}
	return "unknown"
}

// FieldError describes a single invalid input field. Only validation failures
// expose field detail; forbidden/unauthorized responses stay generic so
// probers cannot tell which gate rejected them.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"message"`
}

// Error is the typed pipeline failure returned by the orchestrator.
type Error struct {
	Kind   Kind
	Fields []FieldError
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func validationError(fields []FieldError) *Error {
	return &Error{Kind: KindValidationFailed, Fields: fields}
}

// KindOf extracts the failure kind from an error, or 0 when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// FieldsOf returns the field detail of a validation failure, nil otherwise.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

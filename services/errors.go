package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so the transport layer can pick a status code
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUpstream
	KindAuthorization
	KindForbidden
)

// Error is a failure the caller can act on. Code is a stable UPPER_SNAKE identifier.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports bad or missing input
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}

// NewNotFoundError reports that a referenced entity does not exist
func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: message}
}

// NewConflictError reports a request that clashes with current state
func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// NewUpstreamError reports a payment provider failure or unsuccessful outcome
func NewUpstreamError(code, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: message, Err: err}
}

// NewAuthorizationError reports missing or invalid credentials
func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Code: "UNAUTHORIZED", Message: message}
}

// NewForbiddenError reports an authenticated caller acting outside their rights
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

// KindOf returns the kind of err, KindInternal when err is not a service error
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInfrastructure   = errors.New("infrastructure failure")
	ErrRateLimited      = errors.New("rate limited")
)

// Error pairs an error kind with a message that is safe to show to clients.
// Err, when set, is the underlying cause and is only meant for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Unauthorized() error {
	return &Error{Kind: ErrUnauthorized, Message: "Unauthorized"}
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func NotFound() error {
	return &Error{Kind: ErrNotFound, Message: "Not found"}
}

func InvalidOperation(msg string) error {
	return &Error{Kind: ErrInvalidOperation, Message: msg}
}

func RateLimited() error {
	return &Error{Kind: ErrRateLimited, Message: "Too many requests"}
}

// Infrastructure wraps a store, queue or disk failure. The cause is kept for
// logging while clients only ever see a generic message.
func Infrastructure(op string, err error) error {
	return &Error{Kind: ErrInfrastructure, Message: op, Err: err}
}

// Message returns the client-facing message of err, falling back to a
// generic text for errors that did not originate here.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if errors.Is(e.Kind, ErrInfrastructure) {
			return "Internal error"
		}
		return e.Message
	}
	return "Internal error"
}

// Package apperr classifies failures so the HTTP boundary can translate them
// into a status code and a user-facing message. Every error is scoped to the
// request that triggered it; nothing here is fatal to the process.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	// Internal is the default for unexpected failures; clients get a generic
	// message instead of the underlying error text.
	Internal Kind = iota
	// Input marks malformed or missing request fields.
	Input
	// NotFound marks an unknown video, user or playlist.
	NotFound
	// Auth marks a failed credential check.
	Auth
	// Conflict marks duplicates (email already registered, video already saved).
	Conflict
	// Provider marks a catalog or classification provider failure whose message
	// is safe to pass through to the user.
	Provider
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a user-facing message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Internal when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// UserMessage returns the message to show the user. Internal errors always
// collapse to a generic message.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "Internal server error"
}

// HTTPStatus maps an error kind to the response status. Conflicts map to 400
// to match the original contract of the signup and save endpoints.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Input, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Auth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

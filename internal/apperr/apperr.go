// Package apperr defines the error taxonomy shared by every component.
// Each error carries a Kind so that the HTTP layer can translate any
// failure into the right status code without inspecting message text.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure. The zero value is KindInternal so that
// errors from collaborators (database, broker) default to a server error.
type Kind int

const (
	KindInternal    Kind = iota // unexpected failure in this service or a collaborator
	KindValidation              // malformed or missing input
	KindAuth                    // bad credential or PIN
	KindForbidden               // caller is not allowed to perform the operation
	KindNotFound                // missing user, request or rank
	KindConflict                // duplicate name, active rank, already-processed request
	KindPolicy                  // business-rule violation (insufficient points, PIN unset)
	KindRateLimited             // caller is muted or throttled
)

// Error is the concrete error type used across the service.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string) error  { return &Error{Kind: KindValidation, Message: msg} }
func Auth(msg string) error        { return &Error{Kind: KindAuth, Message: msg} }
func Forbidden(msg string) error   { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error    { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error    { return &Error{Kind: KindConflict, Message: msg} }
func Policy(msg string) error      { return &Error{Kind: KindPolicy, Message: msg} }
func RateLimited(msg string) error { return &Error{Kind: KindRateLimited, Message: msg} }
func Internal(msg string) error    { return &Error{Kind: KindInternal, Message: msg} }

// KindOf extracts the Kind from err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to the HTTP status code used by the route boundary.
// Conflicts are reported as 400, matching the wire behaviour clients of
// this API already depend on.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindPolicy:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

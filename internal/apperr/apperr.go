// Package apperr defines the cross-cutting failure kinds shared by every
// service. Callers classify failures with errors.Is; the web layer maps each
// kind to exactly one HTTP status so the same failure class never surfaces
// under two different codes.
package apperr

import "errors"

var (
	// ErrUnauthenticated is returned when the bearer credential is missing,
	// malformed, expired, or fails integrity verification.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden is returned when a valid principal lacks the rights for
	// the requested operation.
	ErrForbidden = errors.New("not authorized")

	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("invalid request")

	// ErrNotFound is returned when a referenced entity is absent or soft deleted.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a membership or ACL edge
	// that already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidReference is returned when an edge endpoint does not resolve
	// to a live entity.
	ErrInvalidReference = errors.New("invalid reference")
)

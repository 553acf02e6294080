// Package common contains shared constants and sentinel errors used across
// passtree components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors. ErrorNotFound also covers entities owned by a
	// different user: absence and foreign ownership are indistinguishable on
	// purpose, so callers cannot probe for other users' identifiers.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInvalidInput = errors.New("invalid input")

	// Auth errors (invalid, expired or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Tree invariant violation: a second root for the same user signals a
	// provisioning bug, not a user-recoverable condition.
	ErrRootAlreadyExists = errors.New("root group already exists")
)

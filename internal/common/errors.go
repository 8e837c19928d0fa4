// Package common defines shared constants and sentinel errors used across
// client and server layers of gophchat. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal        = errors.New("internal error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// ErrValidation is returned for input rejected before any persistence call.
	ErrValidation = errors.New("validation error")

	// ErrBackend wraps every failure reported by a remote collaborator.
	ErrBackend = errors.New("backend error")

	// ErrOrphanData reports nested data that could not be removed together
	// with its parent (stored objects left behind after a cascade delete).
	ErrOrphanData = errors.New("orphan data")

	// ErrUnavailable means the backend could not be reached.
	ErrUnavailable = errors.New("backend unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

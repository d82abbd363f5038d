// Package common defines the error taxonomy and shared constants used by the
// wellbeing client. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrorTransient  = errors.New("service unavailable")
	ErrorPermission = errors.New("permission denied")

	// User-correctable input. Never reaches the network.
	ErrorValidation = errors.New("validation error")

	ErrEmptyUsername      = fmt.Errorf("%w: username must not be empty", ErrorValidation)
	ErrInvalidDateOfBirth = fmt.Errorf("%w: invalid date of birth", ErrorValidation)
	ErrInvalidGender      = fmt.Errorf("%w: invalid gender", ErrorValidation)
	ErrReadOnlyField      = fmt.Errorf("%w: field is read-only", ErrorValidation)
	ErrUnknownField       = fmt.Errorf("%w: unknown field", ErrorValidation)
	ErrInvalidImage       = fmt.Errorf("%w: unsupported image", ErrorValidation)

	// The avatar blob was stored but its URL could not be written to the profile.
	// Retrying the upload is safe.
	ErrAvatarNotPersisted = fmt.Errorf("%w: avatar uploaded but not saved to profile", ErrorTransient)

	// Controller flow errors.
	ErrNoProfile = errors.New("no profile loaded")

	// Auth errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrSessionMissing = errors.New("no active session")
)

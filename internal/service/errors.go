package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("credentials incorrect")
	// ErrCredentialsTaken is returned when signing up with an email that is already registered.
	ErrCredentialsTaken = errors.New("credentials taken")
	// ErrForbidden covers both a missing bookmark and one owned by someone else.
	ErrForbidden = errors.New("access to resource denied")
	// ErrValidation wraps input that failed a component-level check.
	ErrValidation = errors.New("validation failed")
	// ErrExportsDisabled is returned when no export storage is configured.
	ErrExportsDisabled = errors.New("bookmark exports are not configured")
)

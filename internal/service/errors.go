package service

import (
	"errors"

	"loan-portal/internal/auth"
)

var (
	// ErrInvalidInput indicates missing or malformed request data.
	ErrInvalidInput = auth.ErrInvalidInput
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when attempting to register with an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden indicates the caller may not act on the requested resource.
	ErrForbidden = errors.New("forbidden")
	// ErrStorageNotConfigured is returned by document operations when no bucket is configured.
	ErrStorageNotConfigured = errors.New("storage service not configured")
)

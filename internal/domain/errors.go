package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// Verification outcomes. ErrCodeNotFound also matches ErrNotFound; it covers
// both "never issued" and "already consumed".
var (
	ErrCodeNotFound = fmt.Errorf("no pending verification for this identifier: %w", ErrNotFound)
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeInvalid  = errors.New("invalid verification code")
)

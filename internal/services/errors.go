package services

import (
	"errors"

	"github.com/Ananth-NQI/smartservice-backend/internal/storage"
)

var (
	// ErrInvalidInput rejects malformed input before any state change.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOTPMismatch means no unused code matches (mobile, code, purpose).
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrOTPExpired means the matching code is older than OTPValidity.
	ErrOTPExpired = errors.New("otp expired")
	// ErrNotFound is returned when a referenced entity is absent.
	ErrNotFound = storage.ErrNotFound
	// ErrIdentifierCollision is returned when every generated tracking id or
	// receipt number attempt hit an existing one.
	ErrIdentifierCollision = errors.New("identifier collision")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("unauthorized")
)

// IsOTPRejection reports whether err is a retryable OTP failure.
func IsOTPRejection(err error) bool {
	return errors.Is(err, ErrOTPMismatch) || errors.Is(err, ErrOTPExpired)
}

package auth

import "errors"

var (
	// ErrInvalidCredential is returned for any failed password login. It does
	// not distinguish unknown identifier from wrong password.
	ErrInvalidCredential = errors.New("auth: invalid credentials")

	// ErrOTPExpired is returned when the challenge has passed its expiry, or
	// no challenge exists for the phone.
	ErrOTPExpired = errors.New("auth: otp expired")

	// ErrOTPAlreadyUsed is returned when the challenge was consumed before.
	ErrOTPAlreadyUsed = errors.New("auth: otp already used")

	// ErrOTPMismatch is returned when the submitted code differs from the
	// issued one.
	ErrOTPMismatch = errors.New("auth: otp mismatch")
)

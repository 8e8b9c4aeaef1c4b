package auth

import (
	"errors"
	"fmt"

	"vibeauth/internal/session"
)

// Messages for credential and code failures never say whether the email
// exists.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid authentication code")
	ErrOTPRequired        = errors.New("authenticator code required")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionExpired     = session.ErrSessionExpired
	ErrSessionNotFound    = session.ErrSessionNotFound
)

// StorageError wraps a failure of the user store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Error kinds as reported to clients.
const (
	KindDuplicateEmail     = "DuplicateEmail"
	KindInvalidCredentials = "InvalidCredentials"
	KindInvalidCode        = "InvalidCode"
	KindSessionExpired     = "SessionExpired"
	KindSessionNotFound    = "SessionNotFound"
	KindOTPRequired        = "OTPRequired"
	KindInvalidPayload     = "InvalidPayload"
	KindStorageError       = "StorageError"
)

// Kind maps err to its client-facing kind. Anything unrecognized is a
// StorageError.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return KindDuplicateEmail
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrInvalidCode):
		return KindInvalidCode
	case errors.Is(err, ErrSessionExpired):
		return KindSessionExpired
	case errors.Is(err, ErrSessionNotFound):
		return KindSessionNotFound
	case errors.Is(err, ErrOTPRequired):
		return KindOTPRequired
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidPayload
	default:
		return KindStorageError
	}
}

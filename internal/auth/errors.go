package auth

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAccount                = errors.New("account already exists")
	ErrInvalidCredentials              = errors.New("invalid email or password")
	ErrVerificationRequired            = errors.New("account requires verification")
	ErrRegistrationRequiresCredentials = errors.New("account already registered with different credentials")
	ErrPermissionDenied                = errors.New("permission denied")
	ErrInvalidPassword                 = errors.New("password is not acceptable")
	ErrBackendUnavailable              = errors.New("authentication backend unavailable")
)

// unavailableError keeps the original cause while matching
// ErrBackendUnavailable.
type unavailableError struct {
	op  string
	err error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.op, ErrBackendUnavailable, e.err)
}

func (e *unavailableError) Unwrap() []error {
	return []error{ErrBackendUnavailable, e.err}
}

// Unavailable wraps a storage or network failure unrelated to the supplied
// credentials. It returns nil for a nil err.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{op: op, err: err}
}

// Kind returns the taxonomy sentinel err matches, or nil when err is not
// classified.
func Kind(err error) error {
	for _, k := range []error{
		ErrDuplicateAccount,
		ErrInvalidCredentials,
		ErrVerificationRequired,
		ErrRegistrationRequiresCredentials,
		ErrPermissionDenied,
		ErrInvalidPassword,
		ErrBackendUnavailable,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns a short sentence describing err for an end user.
func Message(err error) string {
	switch Kind(err) {
	case ErrDuplicateAccount:
		return "An account with this email already exists. Please log in."
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrVerificationRequired:
		return "Please confirm your email address, then log in."
	case ErrRegistrationRequiresCredentials:
		return "This email is already registered with a different password."
	case ErrPermissionDenied:
		return "You do not have permission to do that."
	case ErrInvalidPassword:
		return "Passwords must be at most 72 bytes long."
	case ErrBackendUnavailable:
		return "The sign-in service is unavailable. Please try again later."
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLookupFailed means the user store could not answer, as opposed to
	// answering "no such user".
	ErrLookupFailed = errors.New("failed to fetch user")

	// ErrCredentialsSignin is returned when a provider rejects the supplied
	// credentials. Its text is the code shown to the login form.
	ErrCredentialsSignin = errors.New(CredentialsSigninCode)
)

// MalformedRowError reports a persisted row that does not decode into the
// expected shape.
type MalformedRowError struct {
	Table  string
	Column string
	Reason string
}

func (e MalformedRowError) Error() string {
	return fmt.Sprintf("malformed %s row: column %q %s", e.Table, e.Column, e.Reason)
}

// Unwrap makes a malformed user row count as a failed lookup.
func (e MalformedRowError) Unwrap() error {
	return ErrLookupFailed
}

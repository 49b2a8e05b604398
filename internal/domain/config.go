package domain

import "time"

// SessionConfig controls the session cookie issued after a successful sign-in.
type SessionConfig struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Secure     bool
}

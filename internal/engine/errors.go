package engine

import (
	"errors"
	"fmt"
)

// AuthError reports that the provider rejected the bearer credential
// (expired or revoked token discovered at call time). It is a recoverable
// condition: callers log the session out and return a nil result instead of
// surfacing the error.
type AuthError struct {
	Code   int
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider auth rejected (%d %s)", e.Code, e.Reason)
}

// ProviderError is a non-auth API failure (quota, malformed query, outage).
// Message carries only the first error entry from the provider's structured
// payload — the full payload echoes the registered client credentials in
// diagnostic fields and must never travel upward.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

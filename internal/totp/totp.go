// Package totp derives the time-based one-time codes SmartAPI expects
// at login (RFC 6238: 30-second step, 6 digits, SHA-1).
package totp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
)

// InvalidSecretError reports a shared secret that cannot be decoded as
// base32. The secret should only contain letters A-Z and digits 2-7.
type InvalidSecretError struct {
	Reason string
}

func (e *InvalidSecretError) Error() string {
	return fmt.Sprintf("invalid totp secret: %s", e.Reason)
}

// Generate returns the 6-digit code for the 30-second window containing
// at. Deterministic per (secret, window); no side effects.
func Generate(secret string, at time.Time) (string, error) {
	if secret == "" {
		return "", &InvalidSecretError{Reason: "empty secret"}
	}
	code, err := totp.GenerateCode(secret, at)
	if err != nil {
		return "", &InvalidSecretError{Reason: err.Error()}
	}
	return code, nil
}

// Now returns the code for the current instant.
func Now(secret string) (string, error) {
	return Generate(secret, time.Now())
}

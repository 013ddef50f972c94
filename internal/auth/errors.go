package auth

import "errors"

var (
	// ErrInvalidInput reports a missing or unusable argument, such as an empty password.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTokenMalformed reports a token that cannot be parsed or lacks required claims.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenTampered reports a token whose signature does not verify against the server secret.
	ErrTokenTampered = errors.New("token signature invalid")
	// ErrTokenExpired reports a correctly signed token that is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked reports a token that was explicitly revoked before expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrMissingSecret is returned when a token service is built without a signing secret.
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

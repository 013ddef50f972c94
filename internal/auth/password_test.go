package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher(0)
	require.NoError(t, err)
	require.Equal(t, DefaultBcryptCost, h.cost)

	_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)

	_, err = NewPasswordHasher(1)
	require.Error(t, err)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "secret123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"unicode password", "pässwörd-密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.NotEqual(t, tt.password, digest)
			require.True(t, strings.HasPrefix(digest, "$2a$"), "digest should be bcrypt")

			require.True(t, h.Verify(tt.password, digest))
			require.False(t, h.Verify(tt.password+"x", digest))
		})
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("samepassword")
	require.NoError(t, err)
	second, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, first, second, "digests should differ due to unique salts")
	require.True(t, h.Verify("samepassword", first))
	require.True(t, h.Verify("samepassword", second))
}

func TestPasswordHasher_HashRejectsInvalidInput(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash("")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPasswordHasher_VerifyFailsClosed(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name   string
		digest string
	}{
		{"empty digest", ""},
		{"not a bcrypt digest", "plaintext"},
		{"truncated digest", "$2a$04$abc"},
		{"argon digest", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, h.Verify("secret123", tt.digest))
		})
	}

	digest, err := h.Hash("secret123")
	require.NoError(t, err)
	require.False(t, h.Verify("", digest))
}

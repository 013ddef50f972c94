package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"loan-portal/internal/domain"
)

// DefaultTokenTTL is the validity window of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the payload carried by a session token.
type Claims struct {
	AccountID int64       `json:"account_id"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig is the immutable configuration of a TokenService.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// TokenService issues and verifies HS256-signed session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService builds a token service. It refuses an empty secret.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		// expiry is checked by Verify against s.now so signature failures always win
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the fixed validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given account and role.
func (s *TokenService) Issue(accountID int64, role domain.Role) (string, error) {
	if accountID <= 0 {
		return "", fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	now := s.now()
	claims := &Claims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first, then expiry, and only then returns the claims.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenTampered, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if !token.Valid {
		return nil, ErrTokenTampered
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrTokenMalformed)
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	if claims.AccountID <= 0 {
		return nil, fmt.Errorf("%w: missing account id", ErrTokenMalformed)
	}
	return claims, nil
}

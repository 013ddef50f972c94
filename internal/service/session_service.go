package service

import (
	"context"
	"fmt"
	"time"

	"loan-portal/internal/auth"
	"loan-portal/internal/domain"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(accountID int64, role domain.Role) (string, error)
}

// Session is the result of a successful login.
type Session struct {
	Token string
	User  *domain.User
}

// SessionService orchestrates login and logout.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, identity auth.Identity) error
}

type sessionService struct {
	users    UserService
	tokens   TokenIssuer
	denylist auth.Denylist
}

func NewSessionService(users UserService, tokens TokenIssuer, denylist auth.Denylist) SessionService {
	return &sessionService{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
	}
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// Logout revokes the token behind identity until its natural expiry.
func (s *sessionService) Logout(ctx context.Context, identity auth.Identity) error {
	if identity.TokenID == "" {
		return fmt.Errorf("%w: token has no id", ErrInvalidInput)
	}
	expiresAt := identity.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(auth.DefaultTokenTTL)
	}
	return s.denylist.Revoke(ctx, identity.TokenID, expiresAt)
}

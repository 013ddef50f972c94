package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"loan-portal/internal/domain"
	"loan-portal/internal/repository"
)

const minPasswordLength = 8

var validate = validator.New()

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// RegisterInput carries the client-supplied registration fields. Registrations
// always create a plain user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	EnsureAdmin(ctx context.Context, email, password string) (*domain.User, bool, error)
}

type userService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	// decoy is verified against when the email is unknown so both login failures cost the same
	decoy string
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher) (UserService, error) {
	decoy, err := hasher.Hash("decoy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}
	return &userService{
		users:  users,
		hasher: hasher,
		decoy:  decoy,
	}, nil
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if err := validate.Var(email, "email"); err != nil {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	return nil
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	// fast path only; the unique constraint on insert is authoritative
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.Verify(password, s.decoy)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i := range users {
		out[i] = *sanitizeUser(&users[i])
	}
	return out, nil
}

// EnsureAdmin creates the admin account, or promotes an existing account with that email.
// The returned bool reports whether a new account was created.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, bool, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, false, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			if err := s.users.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				return nil, false, err
			}
			existing.Role = domain.RoleAdmin
		}
		return sanitizeUser(existing), false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, err
	}

	if len(password) < minPasswordLength {
		return nil, false, fmt.Errorf("%w: admin password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, err
	}

	admin := &domain.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if _, err := s.users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return sanitizeUser(admin), true, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

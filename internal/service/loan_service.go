package service

import (
	"context"
	"fmt"
	"math"

	"loan-portal/internal/domain"
	"loan-portal/internal/repository"
)

const (
	MinLoanAmount = 300
	MaxLoanAmount = 4000
)

// LoanService coordinates loan applications and their review.
type LoanService interface {
	Apply(ctx context.Context, userID int64, amount float64) (*domain.Loan, error)
	ListMine(ctx context.Context, userID int64) ([]domain.Loan, error)
	ListAll(ctx context.Context) ([]domain.Loan, error)
	UpdateStatus(ctx context.Context, id int64, status domain.LoanStatus) (*domain.Loan, error)
	Stats(ctx context.Context) (*domain.LoanStats, error)
}

type loanService struct {
	loans repository.LoanRepository
	users repository.UserRepository
}

func NewLoanService(loans repository.LoanRepository, users repository.UserRepository) LoanService {
	return &loanService{
		loans: loans,
		users: users,
	}
}

func (s *loanService) Apply(ctx context.Context, userID int64, amount float64) (*domain.Loan, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	}
	if amount < MinLoanAmount || amount > MaxLoanAmount {
		return nil, fmt.Errorf("%w: amount must be between %d and %d", ErrInvalidInput, MinLoanAmount, MaxLoanAmount)
	}

	loan := &domain.Loan{
		UserID: userID,
		Amount: amount,
		Status: domain.LoanStatusPending,
	}
	if _, err := s.loans.Create(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *loanService) ListMine(ctx context.Context, userID int64) ([]domain.Loan, error) {
	return s.loans.ListByUser(ctx, userID)
}

func (s *loanService) ListAll(ctx context.Context) ([]domain.Loan, error) {
	return s.loans.ListAll(ctx)
}

func (s *loanService) UpdateStatus(ctx context.Context, id int64, status domain.LoanStatus) (*domain.Loan, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid loan status value", ErrInvalidInput)
	}
	if err := s.loans.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.loans.Get(ctx, id)
}

func (s *loanService) Stats(ctx context.Context) (*domain.LoanStats, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.loans.CountByStatus(ctx, domain.LoanStatusPending)
	if err != nil {
		return nil, err
	}
	total, err := s.loans.TotalAmount(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.LoanStats{
		TotalUsers:      totalUsers,
		PendingLoans:    pending,
		TotalLoanAmount: total,
	}, nil
}

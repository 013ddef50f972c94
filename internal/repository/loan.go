package repository

import (
	"context"

	"loan-portal/internal/domain"
)

// LoanRepository exposes persistence operations for Loan applications.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Loan, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Loan, error)
	ListAll(ctx context.Context) ([]domain.Loan, error)
	UpdateStatus(ctx context.Context, id int64, status domain.LoanStatus) error
	CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error)
	TotalAmount(ctx context.Context) (float64, error)
}

// DocumentRepository manages uploaded verification document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Document, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Document, error)
	ListAll(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus) error
}

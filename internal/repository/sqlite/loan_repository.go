package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loan-portal/internal/domain"
	"loan-portal/internal/repository"
)

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) repository.LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) (int64, error) {
	now := time.Now().UTC()
	loan.CreatedAt = now
	loan.UpdatedAt = now
	if loan.Status == "" {
		loan.Status = domain.LoanStatusPending
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO loans (user_id, amount, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		loan.UserID,
		loan.Amount,
		string(loan.Status),
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert loan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("loan last insert id: %w", err)
	}
	loan.ID = id
	return id, nil
}

func (r *LoanRepository) Get(ctx context.Context, id int64) (*domain.Loan, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, amount, status, created_at, updated_at
FROM loans
WHERE id = ?`, id)

	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	return loan, nil
}

func (r *LoanRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, amount, status, created_at, updated_at
FROM loans
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

func (r *LoanRepository) ListAll(ctx context.Context) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT l.id, l.user_id, l.amount, l.status, l.created_at, l.updated_at, u.name, u.email
FROM loans l
JOIN users u ON u.id = l.user_id
ORDER BY l.created_at DESC, l.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var (
			loan   domain.Loan
			status string
		)
		if err := rows.Scan(
			&loan.ID,
			&loan.UserID,
			&loan.Amount,
			&status,
			&loan.CreatedAt,
			&loan.UpdatedAt,
			&loan.ApplicantName,
			&loan.ApplicantEmail,
		); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loan.Status = domain.LoanStatus(status)
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (r *LoanRepository) UpdateStatus(ctx context.Context, id int64, status domain.LoanStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("loan rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *LoanRepository) CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE status = ?`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}

func (r *LoanRepository) TotalAmount(ctx context.Context) (float64, error) {
	var total float64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0.0) FROM loans`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum loans: %w", err)
	}
	return total, nil
}

func scanLoan(row rowScanner) (*domain.Loan, error) {
	var (
		loan   domain.Loan
		status string
	)
	if err := row.Scan(&loan.ID, &loan.UserID, &loan.Amount, &status, &loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return nil, err
	}
	loan.Status = domain.LoanStatus(status)
	return &loan, nil
}

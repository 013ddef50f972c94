package domain

import "time"

type LoanStatus string

const (
	LoanStatusPending     LoanStatus = "pending"
	LoanStatusUnderReview LoanStatus = "under-review"
	LoanStatusApproved    LoanStatus = "approved"
	LoanStatusRejected    LoanStatus = "rejected"
)

// Valid reports whether s is a known loan status.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusUnderReview, LoanStatusApproved, LoanStatusRejected:
		return true
	}
	return false
}

// Loan is an application for credit submitted by a user.
type Loan struct {
	ID        int64
	UserID    int64
	Amount    float64
	Status    LoanStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	// Applicant fields are only populated by admin listings.
	ApplicantName  string
	ApplicantEmail string
}

// LoanStats aggregates figures for the admin dashboard.
type LoanStats struct {
	TotalUsers      int64
	PendingLoans    int64
	TotalLoanAmount float64
}

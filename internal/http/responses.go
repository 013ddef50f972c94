package http

import (
	"time"

	"loan-portal/internal/domain"
	"loan-portal/internal/storage"
)

type UserResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"createdAt,omitempty"`
}

// SessionUserResponse is the reduced account view returned on login.
type SessionUserResponse struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type LoginResponse struct {
	Token string              `json:"token"`
	User  SessionUserResponse `json:"user"`
}

type LoanResponse struct {
	ID             int64             `json:"id"`
	UserID         int64             `json:"userId"`
	Amount         float64           `json:"amount"`
	Status         domain.LoanStatus `json:"status"`
	CreatedAt      string            `json:"createdAt"`
	UpdatedAt      string            `json:"updatedAt"`
	ApplicantName  string            `json:"applicantName,omitempty"`
	ApplicantEmail string            `json:"applicantEmail,omitempty"`
}

type DocumentResponse struct {
	ID         int64                 `json:"id"`
	UserID     int64                 `json:"userId"`
	Type       domain.DocumentType   `json:"type"`
	URL        string                `json:"url"`
	ObjectKey  string                `json:"objectKey"`
	FileName   string                `json:"fileName"`
	Size       int64                 `json:"size"`
	Status     domain.DocumentStatus `json:"status"`
	UploadedAt string                `json:"uploadedAt"`
	UpdatedAt  string                `json:"updatedAt"`
	OwnerName  string                `json:"ownerName,omitempty"`
	OwnerEmail string                `json:"ownerEmail,omitempty"`
}

type StatsResponse struct {
	TotalUsers      int64   `json:"totalUsers"`
	PendingLoans    int64   `json:"pendingLoans"`
	TotalLoanAmount float64 `json:"totalLoanAmount"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func loanToResponse(loan domain.Loan) LoanResponse {
	return LoanResponse{
		ID:             loan.ID,
		UserID:         loan.UserID,
		Amount:         loan.Amount,
		Status:         loan.Status,
		CreatedAt:      formatTime(loan.CreatedAt),
		UpdatedAt:      formatTime(loan.UpdatedAt),
		ApplicantName:  loan.ApplicantName,
		ApplicantEmail: loan.ApplicantEmail,
	}
}

func documentToResponse(doc domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		UserID:     doc.UserID,
		Type:       doc.Type,
		URL:        doc.Location,
		ObjectKey:  doc.ObjectKey,
		FileName:   doc.FileName,
		Size:       doc.Size,
		Status:     doc.Status,
		UploadedAt: formatTime(doc.UploadedAt),
		UpdatedAt:  formatTime(doc.UpdatedAt),
		OwnerName:  doc.OwnerName,
		OwnerEmail: doc.OwnerEmail,
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

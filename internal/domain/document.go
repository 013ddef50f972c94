package domain

import "time"

type DocumentType string

const (
	DocumentTypeIDCopy           DocumentType = "idCopy"
	DocumentTypePayslip          DocumentType = "payslip"
	DocumentTypeProofOfResidence DocumentType = "proofOfResidence"
	DocumentTypeBankStatement    DocumentType = "bankStatement"
)

// DocumentTypes lists every accepted document type in display order.
var DocumentTypes = []DocumentType{
	DocumentTypeIDCopy,
	DocumentTypePayslip,
	DocumentTypeProofOfResidence,
	DocumentTypeBankStatement,
}

func (t DocumentType) Valid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// Document is a single verification file uploaded by a user.
type Document struct {
	ID         int64
	UserID     int64
	Type       DocumentType
	ObjectKey  string
	Location   string
	FileName   string
	Size       int64
	Status     DocumentStatus
	UploadedAt time.Time
	UpdatedAt  time.Time

	// Owner fields are only populated by admin listings.
	OwnerName  string
	OwnerEmail string
}

package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"loan-portal/internal/auth"
	"loan-portal/internal/domain"
	"loan-portal/internal/repository"
	"loan-portal/internal/storage"
)

// UploadInput describes a single document upload.
type UploadInput struct {
	UserID      int64
	Type        domain.DocumentType
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService stores verification documents and tracks their review status.
type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Document, error)
	ListMine(ctx context.Context, userID int64) ([]domain.Document, error)
	ListAll(ctx context.Context) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus) (*domain.Document, error)
	DownloadURL(ctx context.Context, caller auth.Identity, id int64) (string, error)
}

// DocumentConfig controls where documents are stored.
type DocumentConfig struct {
	Bucket     string
	KeyPrefix  string
	PresignTTL time.Duration
	Logger     *logrus.Logger
}

type documentService struct {
	docs    repository.DocumentRepository
	storage storage.Service
	cfg     DocumentConfig
}

func NewDocumentService(docs repository.DocumentRepository, store storage.Service, cfg DocumentConfig) DocumentService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return &documentService{
		docs:    docs,
		storage: store,
		cfg:     cfg,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid document type", ErrInvalidInput)
	}
	if in.Body == nil {
		return nil, fmt.Errorf("%w: no file uploaded", ErrInvalidInput)
	}
	if s.storage == nil || s.cfg.Bucket == "" {
		return nil, ErrStorageNotConfigured
	}

	key := storage.ObjectKey(s.cfg.KeyPrefix, in.UserID, string(in.Type), in.FileName)
	location, err := s.storage.Upload(ctx, in.Body, storage.UploadOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: in.ContentType,
	})
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		UserID:    in.UserID,
		Type:      in.Type,
		ObjectKey: key,
		Location:  location,
		FileName:  in.FileName,
		Size:      in.Size,
		Status:    domain.DocumentStatusPending,
	}
	if _, err := s.docs.Create(ctx, doc); err != nil {
		// the object would otherwise be orphaned in the bucket
		if delErr := s.storage.DeleteObject(context.WithoutCancel(ctx), s.cfg.Bucket, key); delErr != nil {
			s.cfg.Logger.WithError(delErr).WithField("key", key).Warn("remove orphaned document object")
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) ListMine(ctx context.Context, userID int64) ([]domain.Document, error) {
	return s.docs.ListByUser(ctx, userID)
}

func (s *documentService) ListAll(ctx context.Context) ([]domain.Document, error) {
	return s.docs.ListAll(ctx)
}

func (s *documentService) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus) (*domain.Document, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	if err := s.docs.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.docs.Get(ctx, id)
}

// DownloadURL presigns the document for its owner or an admin.
func (s *documentService) DownloadURL(ctx context.Context, caller auth.Identity, id int64) (string, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.UserID != caller.AccountID && !caller.HasRole(domain.RoleAdmin) {
		return "", ErrForbidden
	}
	if s.storage == nil {
		return "", ErrStorageNotConfigured
	}

	bucket, key, err := storage.ParseLocation(doc.Location)
	if err != nil {
		bucket, key = s.cfg.Bucket, strings.TrimPrefix(doc.ObjectKey, "/")
	}
	return s.storage.GetObjectURL(ctx, bucket, key, s.cfg.PresignTTL)
}

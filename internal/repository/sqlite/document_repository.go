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

const documentColumns = `d.id, d.user_id, d.doc_type, d.object_key, d.location, d.file_name, d.size, d.status, d.uploaded_at, d.updated_at`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) repository.DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) (int64, error) {
	now := time.Now().UTC()
	doc.UploadedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusPending
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO documents (user_id, doc_type, object_key, location, file_name, size, status, uploaded_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.UserID,
		string(doc.Type),
		doc.ObjectKey,
		doc.Location,
		doc.FileName,
		doc.Size,
		string(doc.Status),
		doc.UploadedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("document last insert id: %w", err)
	}
	doc.ID = id
	return id, nil
}

func (r *DocumentRepository) Get(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents d
WHERE d.id = ?`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents d
WHERE d.user_id = ?
ORDER BY d.uploaded_at ASC, d.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`, u.name, u.email
FROM documents d
JOIN users u ON u.id = d.user_id
ORDER BY d.user_id ASC, d.uploaded_at ASC, d.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			doc     domain.Document
			docType string
			status  string
		)
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&docType,
			&doc.ObjectKey,
			&doc.Location,
			&doc.FileName,
			&doc.Size,
			&status,
			&doc.UploadedAt,
			&doc.UpdatedAt,
			&doc.OwnerName,
			&doc.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Type = domain.DocumentType(docType)
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("document rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc     domain.Document
		docType string
		status  string
	)
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&docType,
		&doc.ObjectKey,
		&doc.Location,
		&doc.FileName,
		&doc.Size,
		&status,
		&doc.UploadedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

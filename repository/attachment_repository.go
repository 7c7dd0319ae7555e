package repository

import (
	"context"

	"formintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttachmentRepository handles database operations for file attachments
type AttachmentRepository struct {
	db *pgxpool.Pool
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *pgxpool.Pool) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// CreateAttachment creates a new attachment record
func (r *AttachmentRepository) CreateAttachment(ctx context.Context, attachment *models.FileAttachment) error {
	query := `
		INSERT INTO file_attachments (
			submission_id, field_name, stored_name, original_name, mime_type, size, url, thumbnail_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		attachment.SubmissionID,
		attachment.FieldName,
		attachment.StoredName,
		attachment.OriginalName,
		attachment.MimeType,
		attachment.Size,
		attachment.URL,
		attachment.ThumbnailURL,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

// GetAttachment retrieves an attachment by ID
func (r *AttachmentRepository) GetAttachment(ctx context.Context, id uuid.UUID) (*models.FileAttachment, error) {
	attachment := &models.FileAttachment{}
	query := `
		SELECT id, submission_id, field_name, stored_name, original_name, mime_type, size, url, thumbnail_url, created_at
		FROM file_attachments
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&attachment.ID,
		&attachment.SubmissionID,
		&attachment.FieldName,
		&attachment.StoredName,
		&attachment.OriginalName,
		&attachment.MimeType,
		&attachment.Size,
		&attachment.URL,
		&attachment.ThumbnailURL,
		&attachment.CreatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return attachment, nil
}

// ListAttachments retrieves all attachments for a submission
func (r *AttachmentRepository) ListAttachments(ctx context.Context, submissionID uuid.UUID) ([]*models.FileAttachment, error) {
	query := `
		SELECT id, submission_id, field_name, stored_name, original_name, mime_type, size, url, thumbnail_url, created_at
		FROM file_attachments
		WHERE submission_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*models.FileAttachment
	for rows.Next() {
		attachment := &models.FileAttachment{}
		err := rows.Scan(
			&attachment.ID,
			&attachment.SubmissionID,
			&attachment.FieldName,
			&attachment.StoredName,
			&attachment.OriginalName,
			&attachment.MimeType,
			&attachment.Size,
			&attachment.URL,
			&attachment.ThumbnailURL,
			&attachment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}

	return attachments, rows.Err()
}

// UpdateThumbnailURL records the thumbnail reference for an attachment
func (r *AttachmentRepository) UpdateThumbnailURL(ctx context.Context, id uuid.UUID, thumbnailURL string) error {
	tag, err := r.db.Exec(ctx, `UPDATE file_attachments SET thumbnail_url = $2 WHERE id = $1`, id, thumbnailURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

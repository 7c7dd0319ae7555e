package repository

import (
	"context"
	"fmt"

	"formintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRepository handles database operations for submissions
type SubmissionRepository struct {
	db *pgxpool.Pool
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// CreateSubmission inserts a submission row and returns its id
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, title string) (uuid.UUID, error) {
	query := `
		INSERT INTO submissions (title)
		VALUES ($1)
		RETURNING id`

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, title).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

// SetInitialStatus stamps the status a new submission starts with
func (r *SubmissionRepository) SetInitialStatus(ctx context.Context, id uuid.UUID, status models.SubmissionStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE submissions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMetadata upserts one metadata value for a submission
func (r *SubmissionRepository) SetMetadata(ctx context.Context, id uuid.UUID, key, value string) error {
	query := `
		INSERT INTO submission_meta (submission_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (submission_id, meta_key)
		DO UPDATE SET meta_value = EXCLUDED.meta_value`

	_, err := r.db.Exec(ctx, query, id, key, value)
	return err
}

// GetSubmission retrieves a submission with its raw metadata as Fields
func (r *SubmissionRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	submission := &models.Submission{}
	query := `
		SELECT id, title, status, created_at
		FROM submissions
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&submission.ID,
		&submission.Title,
		&submission.Status,
		&submission.CreatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	rows, err := r.db.Query(ctx, `SELECT meta_key, meta_value FROM submission_meta WHERE submission_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submission.Fields = make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		submission.Fields[key] = value
	}

	return submission, rows.Err()
}

// ListSubmissions retrieves submissions newest first, without metadata
func (r *SubmissionRepository) ListSubmissions(ctx context.Context, limit, offset int) ([]*models.Submission, error) {
	query := `
		SELECT id, title, status, created_at
		FROM submissions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		submission := &models.Submission{}
		err := rows.Scan(
			&submission.ID,
			&submission.Title,
			&submission.Status,
			&submission.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}

	return submissions, rows.Err()
}

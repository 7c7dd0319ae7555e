package models

import (
	"time"

	"github.com/google/uuid"
)

// FileAttachment represents one stored upload tied to a submission field
type FileAttachment struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	FieldName    string    `json:"field_name"`
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	// ThumbnailURL stays nil until a thumbnail (or its fallback) has been generated.
	ThumbnailURL *string   `json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

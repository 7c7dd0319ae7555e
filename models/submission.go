package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus represents the workflow status of a submission
type SubmissionStatus string

const (
	StatusNew       SubmissionStatus = "New"
	StatusContacted SubmissionStatus = "Contacted"
	StatusAccepted  SubmissionStatus = "Accepted"
	StatusDeclined  SubmissionStatus = "Declined"
	StatusArchived  SubmissionStatus = "Archived"
)

// Submission represents one applicant's captured form entry
type Submission struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Status    SubmissionStatus  `json:"status"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"formintake-backend/models"

	"github.com/google/uuid"
)

// MemoryStore keeps submissions and attachments in process memory. It backs
// STORE_DRIVER=memory and the package tests.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[uuid.UUID]*models.Submission
	attachments map[uuid.UUID]*models.FileAttachment
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[uuid.UUID]*models.Submission),
		attachments: make(map[uuid.UUID]*models.FileAttachment),
		now:         time.Now,
	}
}

func (m *MemoryStore) CreateSubmission(ctx context.Context, title string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.submissions[id] = &models.Submission{
		ID:        id,
		Title:     title,
		Fields:    make(map[string]string),
		CreatedAt: m.now().UTC(),
	}
	return id, nil
}

func (m *MemoryStore) SetInitialStatus(ctx context.Context, id uuid.UUID, status models.SubmissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[id]
	if !ok {
		return ErrNotFound
	}
	submission.Status = status
	return nil
}

func (m *MemoryStore) SetMetadata(ctx context.Context, id uuid.UUID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[id]
	if !ok {
		return ErrNotFound
	}
	submission.Fields[key] = value
	return nil
}

func (m *MemoryStore) GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	submission, ok := m.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySubmission(submission, true), nil
}

func (m *MemoryStore) ListSubmissions(ctx context.Context, limit, offset int) ([]*models.Submission, error) {
	m.mu.RLock()
	all := make([]*models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		all = append(all, copySubmission(submission, false))
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) CreateAttachment(ctx context.Context, attachment *models.FileAttachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[attachment.SubmissionID]; !ok {
		return ErrNotFound
	}
	attachment.ID = uuid.New()
	attachment.CreatedAt = m.now().UTC()
	stored := *attachment
	m.attachments[attachment.ID] = &stored
	return nil
}

func (m *MemoryStore) GetAttachment(ctx context.Context, id uuid.UUID) (*models.FileAttachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attachment, ok := m.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *attachment
	return &copied, nil
}

func (m *MemoryStore) ListAttachments(ctx context.Context, submissionID uuid.UUID) ([]*models.FileAttachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var attachments []*models.FileAttachment
	for _, attachment := range m.attachments {
		if attachment.SubmissionID == submissionID {
			copied := *attachment
			attachments = append(attachments, &copied)
		}
	}
	sort.Slice(attachments, func(i, j int) bool {
		if attachments[i].CreatedAt.Equal(attachments[j].CreatedAt) {
			return attachments[i].StoredName < attachments[j].StoredName
		}
		return attachments[i].CreatedAt.Before(attachments[j].CreatedAt)
	})
	return attachments, nil
}

func (m *MemoryStore) UpdateThumbnailURL(ctx context.Context, id uuid.UUID, thumbnailURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	attachment, ok := m.attachments[id]
	if !ok {
		return ErrNotFound
	}
	attachment.ThumbnailURL = &thumbnailURL
	return nil
}

func copySubmission(submission *models.Submission, withFields bool) *models.Submission {
	copied := *submission
	copied.Fields = nil
	if withFields {
		copied.Fields = make(map[string]string, len(submission.Fields))
		for k, v := range submission.Fields {
			copied.Fields[k] = v
		}
	}
	return &copied
}

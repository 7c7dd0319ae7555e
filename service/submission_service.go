package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"

	"formintake-backend/intake"
	"formintake-backend/models"
	"formintake-backend/notify"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// DefaultReservedField carries the raw upload payload and is never stored as a field
	DefaultReservedField = "_uploads"
	// DefaultFieldKeyPrefix namespaces form fields in submission metadata
	DefaultFieldKeyPrefix = "_field_"
	// SubmittedAtKey is the metadata key of the creation timestamp
	SubmittedAtKey = "_submitted_at"
)

var (
	ErrSubmissionNotCreated = errors.New("submission could not be created")
	ErrServiceNotConfigured = errors.New("submission service not configured")
)

// SubmissionStore is the persistence collaborator for submissions
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, title string) (uuid.UUID, error)
	SetInitialStatus(ctx context.Context, id uuid.UUID, status models.SubmissionStatus) error
	SetMetadata(ctx context.Context, id uuid.UUID, key, value string) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	ListSubmissions(ctx context.Context, limit, offset int) ([]*models.Submission, error)
}

// AttachmentReader reads attachment records
type AttachmentReader interface {
	GetAttachment(ctx context.Context, id uuid.UUID) (*models.FileAttachment, error)
	ListAttachments(ctx context.Context, submissionID uuid.UUID) ([]*models.FileAttachment, error)
}

// SubmissionService captures form submissions and serves them back
type SubmissionService struct {
	submissions SubmissionStore
	attachments AttachmentReader
	intake      *intake.Intake
	notifier    notify.Notifier
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger
	now         func() time.Time
}

// SubmissionServiceOption is a functional option for SubmissionService
type SubmissionServiceOption func(*SubmissionService)

// WithSubmissionStore sets the submission persistence collaborator
func WithSubmissionStore(store SubmissionStore) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.submissions = store
	}
}

// WithAttachmentReader sets the attachment reader
func WithAttachmentReader(reader AttachmentReader) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.attachments = reader
	}
}

// WithIntake sets the file intake used for uploads
func WithIntake(in *intake.Intake) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.intake = in
	}
}

// WithNotifier sets the sink for submission_created events
func WithNotifier(n notify.Notifier) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.notifier = n
	}
}

// WithLogger sets the service logger
func WithLogger(l *slog.Logger) SubmissionServiceOption {
	return func(s *SubmissionService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.now = now
	}
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(opts ...SubmissionServiceOption) *SubmissionService {
	s := &SubmissionService{
		sanitizer: bluemonday.StrictPolicy(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "submission_service"))
	return s
}

// IngestConfig selects which form is captured and how
type IngestConfig struct {
	TargetFormID   string
	StoreFiles     bool
	ReservedField  string
	FieldKeyPrefix string
}

func (c IngestConfig) reservedField() string {
	if c.ReservedField == "" {
		return DefaultReservedField
	}
	return c.ReservedField
}

func (c IngestConfig) fieldKeyPrefix() string {
	if c.FieldKeyPrefix == "" {
		return DefaultFieldKeyPrefix
	}
	return c.FieldKeyPrefix
}

// Payload is one posted form: scalar or repeated values per field plus the
// uploads per file field.
type Payload struct {
	FormID  string
	Fields  map[string][]string
	Uploads map[string][]intake.Upload
}

// IngestResult represents the result of ingesting a payload
type IngestResult struct {
	// Created is false when the payload was deliberately ignored
	Created      bool
	SubmissionID uuid.UUID
	Title        string
	Attachments  map[string][]models.FileAttachment
}

// Ingest captures one submission. Payloads for other forms and payloads
// without fields are ignored without error, whatever files they carry. The submission_created event fires
// once, after every field and file has been committed.
func (s *SubmissionService) Ingest(ctx context.Context, payload Payload, cfg IngestConfig) (*IngestResult, error) {
	if s.submissions == nil {
		return nil, ErrServiceNotConfigured
	}
	if payload.FormID != cfg.TargetFormID || len(payload.Fields) == 0 {
		return &IngestResult{}, nil
	}

	now := s.now()
	title := s.deriveTitle(payload.Fields, now)

	id, err := s.submissions.CreateSubmission(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionNotCreated, err)
	}
	log := s.logger.With(slog.String("submission_id", id.String()))

	if err := s.submissions.SetInitialStatus(ctx, id, models.StatusNew); err != nil {
		return nil, fmt.Errorf("set initial status: %w", err)
	}

	reserved := cfg.reservedField()
	prefix := cfg.fieldKeyPrefix()
	for _, name := range sortedKeys(payload.Fields) {
		if name == reserved {
			continue
		}
		value := s.flatten(payload.Fields[name])
		if value == "" {
			continue
		}
		if err := s.submissions.SetMetadata(ctx, id, prefix+name, value); err != nil {
			return nil, fmt.Errorf("store field %s: %w", name, err)
		}
	}

	result := &IngestResult{
		Created:      true,
		SubmissionID: id,
		Title:        title,
		Attachments:  map[string][]models.FileAttachment{},
	}

	switch {
	case !cfg.StoreFiles:
		if len(payload.Uploads) > 0 {
			log.Debug("file storage disabled, discarding uploads", slog.Int("fields", len(payload.Uploads)))
		}
	case s.intake == nil:
		log.Warn("file storage enabled but no intake configured, discarding uploads")
	default:
		uploads := make(map[string][]intake.Upload, len(payload.Uploads))
		for field, list := range payload.Uploads {
			// TODO: confirm whether the reserved field should go through intake too
			if field == reserved {
				continue
			}
			uploads[field] = list
		}
		result.Attachments = s.intake.CommitAll(ctx, id, uploads)
	}

	if err := s.submissions.SetMetadata(ctx, id, SubmittedAtKey, now.UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("store submission time: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SubmissionCreated(ctx, notify.NewSubmissionCreated(id, title, now)); err != nil {
			log.Warn("submission_created notification failed", slog.Any("error", err))
		}
	}

	log.Info("submission captured",
		slog.String("title", title),
		slog.Int("file_fields", len(result.Attachments)),
	)
	return result, nil
}

// deriveTitle picks the display title: artist-name, your-name, name, then
// first-name + last-name, else a timestamped placeholder.
func (s *SubmissionService) deriveTitle(fields map[string][]string, now time.Time) string {
	for _, key := range []string{"artist-name", "your-name", "name"} {
		if title := s.flatten(fields[key]); title != "" {
			return title
		}
	}

	first := s.flatten(fields["first-name"])
	last := s.flatten(fields["last-name"])
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}

	return "Submission " + now.Format("2006-01-02 15:04:05")
}

// flatten joins repeated values, drops empty ones and strips markup.
func (s *SubmissionService) flatten(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if clean := s.sanitize(v); clean != "" {
			parts = append(parts, clean)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *SubmissionService) sanitize(value string) string {
	clean := s.sanitizer.Sanitize(value)
	// StrictPolicy escapes entities; fields are stored as plain text
	clean = html.UnescapeString(clean)
	return strings.Join(strings.Fields(clean), " ")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SubmissionView is a submission with its form fields and attachments
type SubmissionView struct {
	Submission  *models.Submission
	SubmittedAt string
	Attachments []*models.FileAttachment
}

// GetSubmission returns a submission with prefix-stripped fields and its attachments
func (s *SubmissionService) GetSubmission(ctx context.Context, id uuid.UUID) (*SubmissionView, error) {
	if s.submissions == nil {
		return nil, ErrServiceNotConfigured
	}

	submission, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &SubmissionView{Submission: submission}
	fields := make(map[string]string)
	for key, value := range submission.Fields {
		switch {
		case key == SubmittedAtKey:
			view.SubmittedAt = value
		case strings.HasPrefix(key, DefaultFieldKeyPrefix):
			fields[strings.TrimPrefix(key, DefaultFieldKeyPrefix)] = value
		}
	}
	submission.Fields = fields

	if s.attachments != nil {
		view.Attachments, err = s.attachments.ListAttachments(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// ListSubmissions lists submissions newest first
func (s *SubmissionService) ListSubmissions(ctx context.Context, limit, offset int) ([]*models.Submission, error) {
	if s.submissions == nil {
		return nil, ErrServiceNotConfigured
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissions.ListSubmissions(ctx, limit, offset)
}

// GetAttachment returns one attachment record
func (s *SubmissionService) GetAttachment(ctx context.Context, id uuid.UUID) (*models.FileAttachment, error) {
	if s.attachments == nil {
		return nil, ErrServiceNotConfigured
	}
	return s.attachments.GetAttachment(ctx, id)
}

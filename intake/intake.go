// Package intake validates uploaded files and commits them to storage as
// attachments of a submission.
package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"

	"formintake-backend/media"
	"formintake-backend/models"
	"formintake-backend/storage"

	"github.com/google/uuid"
)

// DefaultAllowedExtensions is the extension allow-list applied when none is configured
var DefaultAllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "pdf", "doc", "docx", "txt", "zip"}

// maxCreateAttempts bounds retries when another writer takes a name between
// UniqueName and Create.
const maxCreateAttempts = 16

// AttachmentStore records attachment metadata
type AttachmentStore interface {
	CreateAttachment(ctx context.Context, attachment *models.FileAttachment) error
}

// Intake commits uploads for one submission at a time
type Intake struct {
	storage storage.Storage
	store   AttachmentStore
	allowed map[string]bool
	logger  *slog.Logger
}

// Option configures an Intake
type Option func(*Intake)

// WithAllowedExtensions replaces the extension allow-list
func WithAllowedExtensions(exts ...string) Option {
	return func(in *Intake) {
		in.allowed = make(map[string]bool, len(exts))
		for _, ext := range exts {
			ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
			if ext != "" {
				in.allowed[ext] = true
			}
		}
	}
}

// WithLogger sets the logger used for skip diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(in *Intake) {
		if l != nil {
			in.logger = l
		}
	}
}

// New creates an Intake writing bytes to st and metadata to store
func New(st storage.Storage, store AttachmentStore, opts ...Option) *Intake {
	in := &Intake{
		storage: st,
		store:   store,
		logger:  slog.Default(),
	}
	WithAllowedExtensions(DefaultAllowedExtensions...)(in)
	for _, opt := range opts {
		opt(in)
	}
	in.logger = in.logger.With(slog.String("component", "intake"))
	return in
}

// CommitAll commits every field's uploads and returns the attachments per
// field. Fields without a single committed file are absent from the result.
func (in *Intake) CommitAll(ctx context.Context, submissionID uuid.UUID, uploads map[string][]Upload) map[string][]models.FileAttachment {
	fields := make([]string, 0, len(uploads))
	for field := range uploads {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	result := make(map[string][]models.FileAttachment)
	for _, field := range fields {
		if attachments := in.Commit(ctx, submissionID, field, uploads[field]); len(attachments) > 0 {
			result[field] = attachments
		}
	}
	return result
}

// Commit validates and stores uploads in order. A file that fails any check
// is skipped; its siblings are still processed.
func (in *Intake) Commit(ctx context.Context, submissionID uuid.UUID, field string, uploads []Upload) []models.FileAttachment {
	var attachments []models.FileAttachment
	for _, upload := range uploads {
		attachment, skipped := in.commitOne(ctx, submissionID, field, upload)
		if skipped != nil {
			in.logger.Log(ctx, skipped.level, "upload skipped",
				slog.String("submission_id", submissionID.String()),
				slog.String("field", field),
				slog.String("original_name", upload.OriginalName),
				slog.String("reason", skipped.reason),
			)
			continue
		}
		attachments = append(attachments, *attachment)
	}
	return attachments
}

// skip is why an upload was dropped. Policy rejections log at debug, I/O
// failures at warn.
type skip struct {
	reason string
	level  slog.Level
}

func rejected(reason string) *skip {
	return &skip{reason: reason, level: slog.LevelDebug}
}

func failed(reason string) *skip {
	return &skip{reason: reason, level: slog.LevelWarn}
}

func (in *Intake) commitOne(ctx context.Context, submissionID uuid.UUID, field string, upload Upload) (*models.FileAttachment, *skip) {
	if upload.Open == nil {
		return nil, failed("missing source")
	}

	ext := media.Extension(upload.OriginalName)
	if !in.allowed[ext] {
		return nil, rejected("extension not allowed")
	}

	mimeType, ok := media.TypeByFilename(upload.OriginalName)
	if !ok {
		return nil, rejected("unresolvable mime type")
	}
	if declared := media.NormalizeMime(upload.DeclaredType); declared != "" && declared != "application/octet-stream" {
		if media.Classify(declared) != media.Classify(mimeType) {
			return nil, rejected("declared type " + declared + " does not match extension")
		}
	}

	source, err := upload.Open()
	if err != nil {
		return nil, failed("unreadable source: " + err.Error())
	}
	defer source.Close()

	size := upload.Size
	if seeker, ok := source.(io.Seeker); ok {
		if end, err := seeker.Seek(0, io.SeekEnd); err == nil {
			size = end
		}
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, failed("unreadable source: " + err.Error())
		}
	}

	namespace := submissionID.String()
	storedName, err := in.writeUnique(ctx, namespace, upload.OriginalName, source)
	if err != nil {
		return nil, failed(err.Error())
	}

	attachment := &models.FileAttachment{
		SubmissionID: submissionID,
		FieldName:    field,
		StoredName:   storedName,
		OriginalName: upload.OriginalName,
		MimeType:     mimeType,
		Size:         size,
		URL:          in.storage.URL(namespace, storedName),
	}

	// Bytes and record go together: a file whose record cannot be written is removed.
	if err := in.store.CreateAttachment(ctx, attachment); err != nil {
		if delErr := in.storage.Delete(ctx, namespace, storedName); delErr != nil {
			in.logger.Error("failed to remove orphaned upload",
				slog.String("namespace", namespace),
				slog.String("stored_name", storedName),
				slog.Any("error", delErr),
			)
		}
		return nil, failed("record attachment: " + err.Error())
	}

	return attachment, nil
}

// writeUnique picks a free name and writes the source under it, retrying
// with a fresh name when a concurrent writer claimed the candidate first.
func (in *Intake) writeUnique(ctx context.Context, namespace, originalName string, source io.Reader) (string, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		name, err := in.storage.UniqueName(ctx, namespace, originalName)
		if err != nil {
			return "", err
		}

		err = in.storage.Create(ctx, namespace, name, source)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, storage.ErrObjectExists) {
			return "", err
		}

		// Backends may have consumed the body before rejecting the name.
		seeker, ok := source.(io.Seeker)
		if !ok {
			return "", err
		}
		if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
			return "", seekErr
		}
	}
	return "", errors.New("could not claim a unique stored name")
}

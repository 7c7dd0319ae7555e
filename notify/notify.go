// Package notify delivers the "submission created" event to the collaborators
// that react to new submissions (mail alerts, audit log, event bus).
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is the payload published for every created submission
type Event struct {
	Type         string    `json:"type"`
	SubmissionID uuid.UUID `json:"submission_id"`
	Title        string    `json:"title"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventSubmissionCreated is the only event type this service emits
const EventSubmissionCreated = "submission_created"

// Notifier receives submission lifecycle events
type Notifier interface {
	SubmissionCreated(ctx context.Context, event Event) error
}

// NewSubmissionCreated builds the event for a freshly created submission
func NewSubmissionCreated(id uuid.UUID, title string, at time.Time) Event {
	return Event{
		Type:         EventSubmissionCreated,
		SubmissionID: id,
		Title:        title,
		OccurredAt:   at.UTC(),
	}
}

// LogNotifier writes events to the audit log
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs each event
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{logger: l.With(slog.String("component", "notify"))}
}

func (n *LogNotifier) SubmissionCreated(ctx context.Context, event Event) error {
	n.logger.InfoContext(ctx, "submission created",
		slog.String("submission_id", event.SubmissionID.String()),
		slog.String("title", event.Title),
	)
	return nil
}

// Multi fans an event out to several notifiers. Every notifier is called;
// their errors are joined.
type Multi []Notifier

func (m Multi) SubmissionCreated(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.SubmissionCreated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"formintake-backend/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) SubmissionCreated(ctx context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestMultiCallsEveryNotifier(t *testing.T) {
	first := &recordingNotifier{err: errors.New("bus down")}
	second := &recordingNotifier{}
	m := Multi{first, nil, second, NewLogNotifier(logger.Discard())}

	event := NewSubmissionCreated(uuid.New(), "Jane Doe", time.Now())
	err := m.SubmissionCreated(context.Background(), event)

	assert.ErrorContains(t, err, "bus down")
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, EventSubmissionCreated, second.events[0].Type)
}

func TestMultiNoErrors(t *testing.T) {
	m := Multi{&recordingNotifier{}}
	assert.NoError(t, m.SubmissionCreated(context.Background(), Event{}))
}

func TestAlertBody(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	event := NewSubmissionCreated(id, "Jane Doe", time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))

	body := alertBody(event, "https://admin.example.com")
	assert.True(t, strings.Contains(body, "Title: Jane Doe"))
	assert.True(t, strings.Contains(body, "https://admin.example.com/api/submissions/"+id.String()))

	assert.NotContains(t, alertBody(event, ""), "View:")
}

func TestNewMailNotifierRequiresRecipients(t *testing.T) {
	_, err := NewMailNotifier(MailConfig{Host: "smtp.example.com", Port: 587, From: "intake@example.com"}, nil)
	assert.Error(t, err)
}

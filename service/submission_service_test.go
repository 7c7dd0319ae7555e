package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"formintake-backend/intake"
	"formintake-backend/logger"
	"formintake-backend/models"
	"formintake-backend/notify"
	"formintake-backend/repository"
	"formintake-backend/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) SubmissionCreated(ctx context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

type failingCreateStore struct {
	*repository.MemoryStore
	calls int
}

func (s *failingCreateStore) CreateSubmission(ctx context.Context, title string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("insert failed")
}

func (s *failingCreateStore) SetMetadata(ctx context.Context, id uuid.UUID, key, value string) error {
	s.calls++
	return nil
}

type testEnv struct {
	svc      *SubmissionService
	store    *repository.MemoryStore
	notifier *recordingNotifier
	root     string
	cfg      IngestConfig
}

func setupService(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	st, err := storage.NewLocalStorage(root, "/uploads")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	in := intake.New(st, store, intake.WithLogger(logger.Discard()))

	svc := NewSubmissionService(
		WithSubmissionStore(store),
		WithAttachmentReader(store),
		WithIntake(in),
		WithNotifier(notifier),
		WithLogger(logger.Discard()),
		WithClock(func() time.Time { return fixedNow }),
	)

	return &testEnv{
		svc:      svc,
		store:    store,
		notifier: notifier,
		root:     root,
		cfg:      IngestConfig{TargetFormID: "3", StoreFiles: true},
	}
}

func writeUpload(t *testing.T, name, content string) intake.Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.tmp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return intake.FromPath(path, name)
}

func TestIngestFirstAndLastNameTitle(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID: "3",
		Fields: map[string][]string{
			"first-name": {"Jane"},
			"last-name":  {"Doe"},
			"email":      {"jane@example.com"},
		},
	}, env.cfg)
	require.NoError(t, err)
	require.True(t, res.Created)
	assert.Equal(t, "Jane Doe", res.Title)

	got, err := env.store.GetSubmission(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Title)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, "jane@example.com", got.Fields["_field_email"])
	assert.Equal(t, "Jane", got.Fields["_field_first-name"])
	assert.Equal(t, "2024-05-17T09:30:00Z", got.Fields[SubmittedAtKey])

	require.Len(t, env.notifier.events, 1)
	assert.Equal(t, res.SubmissionID, env.notifier.events[0].SubmissionID)
	assert.Equal(t, notify.EventSubmissionCreated, env.notifier.events[0].Type)
}

func TestIngestTitlePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string][]string
		want   string
	}{
		{"artist name wins", map[string][]string{"artist-name": {"Ada"}, "your-name": {"Bea"}, "name": {"Cy"}}, "Ada"},
		{"your name before name", map[string][]string{"your-name": {"Bea"}, "name": {"Cy"}}, "Bea"},
		{"name before split name", map[string][]string{"name": {"Cy"}, "first-name": {"Jane"}}, "Cy"},
		{"empty artist name skipped", map[string][]string{"artist-name": {"  "}, "name": {"Cy"}}, "Cy"},
		{"last name only", map[string][]string{"last-name": {"Doe"}}, "Doe"},
		{"markup stripped", map[string][]string{"name": {"<b>Jane</b> Doe"}}, "Jane Doe"},
		{"entities decoded", map[string][]string{"name": {"O'Brien & Sons"}}, "O'Brien & Sons"},
		{"placeholder", map[string][]string{"message": {"hello"}}, "Submission 2024-05-17 09:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupService(t)
			res, err := env.svc.Ingest(context.Background(), Payload{FormID: "3", Fields: tt.fields}, env.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Title)
			assert.Len(t, env.notifier.events, 1)
		})
	}
}

func TestIngestIgnoresOtherForms(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID: "4",
		Fields: map[string][]string{"name": {"Jane"}},
	}, env.cfg)
	require.NoError(t, err)
	assert.False(t, res.Created)

	list, err := env.store.ListSubmissions(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, env.notifier.events)
}

func TestIngestIgnoresEmptyPayload(t *testing.T) {
	env := setupService(t)

	res, err := env.svc.Ingest(context.Background(), Payload{FormID: "3"}, env.cfg)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Empty(t, env.notifier.events)
}

func TestIngestIgnoresUploadsWithoutFields(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID:  "3",
		Uploads: map[string][]intake.Upload{"portfolio": {writeUpload(t, "a.png", "png")}},
	}, env.cfg)
	require.NoError(t, err)
	assert.False(t, res.Created)

	list, err := env.store.ListSubmissions(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, env.notifier.events)

	entries, err := os.ReadDir(env.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestCreateFailure(t *testing.T) {
	store := &failingCreateStore{MemoryStore: repository.NewMemoryStore()}
	notifier := &recordingNotifier{}
	svc := NewSubmissionService(
		WithSubmissionStore(store),
		WithNotifier(notifier),
		WithLogger(logger.Discard()),
	)

	res, err := svc.Ingest(context.Background(), Payload{
		FormID: "3",
		Fields: map[string][]string{"name": {"Jane"}},
	}, IngestConfig{TargetFormID: "3"})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSubmissionNotCreated)
	assert.Zero(t, store.calls)
	assert.Empty(t, notifier.events)
}

func TestIngestFieldFlattening(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID: "3",
		Fields: map[string][]string{
			"name":     {"Jane"},
			"media":    {"Oil", "", "Ink"},
			"empty":    {""},
			"blank":    {},
			"note":     {"Tom & Jerry <script>x</script>"},
			"_uploads": {"a.png"},
		},
	}, env.cfg)
	require.NoError(t, err)

	got, err := env.store.GetSubmission(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "Oil, Ink", got.Fields["_field_media"])
	assert.Equal(t, "Tom & Jerry", got.Fields["_field_note"])
	assert.NotContains(t, got.Fields, "_field_empty")
	assert.NotContains(t, got.Fields, "_field_blank")
	assert.NotContains(t, got.Fields, "_field__uploads")
}

func TestIngestStoresFiles(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID: "3",
		Fields: map[string][]string{"name": {"Jane"}},
		Uploads: map[string][]intake.Upload{
			"portfolio": {writeUpload(t, "piece.jpg", "jpg"), writeUpload(t, "virus.exe", "exe")},
			"_uploads":  {writeUpload(t, "raw.png", "png")},
		},
	}, env.cfg)
	require.NoError(t, err)

	require.Len(t, res.Attachments["portfolio"], 1)
	assert.Equal(t, "piece.jpg", res.Attachments["portfolio"][0].StoredName)
	assert.NotContains(t, res.Attachments, "_uploads")

	_, err = os.Stat(filepath.Join(env.root, res.SubmissionID.String(), "piece.jpg"))
	require.NoError(t, err)

	list, err := env.store.ListAttachments(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, env.notifier.events, 1)
}

func TestIngestFileStorageDisabled(t *testing.T) {
	env := setupService(t)
	env.cfg.StoreFiles = false
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID:  "3",
		Fields:  map[string][]string{"name": {"Jane"}},
		Uploads: map[string][]intake.Upload{"portfolio": {writeUpload(t, "piece.jpg", "jpg")}},
	}, env.cfg)
	require.NoError(t, err)
	require.True(t, res.Created)
	assert.Empty(t, res.Attachments)

	list, err := env.store.ListAttachments(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = os.Stat(filepath.Join(env.root, res.SubmissionID.String()))
	assert.True(t, os.IsNotExist(err))
	assert.Len(t, env.notifier.events, 1)
}

func TestIngestNotifierFailureIsNotFatal(t *testing.T) {
	env := setupService(t)
	env.notifier.err = errors.New("bus down")

	res, err := env.svc.Ingest(context.Background(), Payload{
		FormID: "3",
		Fields: map[string][]string{"name": {"Jane"}},
	}, env.cfg)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, env.notifier.events, 1)
}

func TestIngestNotConfigured(t *testing.T) {
	svc := NewSubmissionService()
	_, err := svc.Ingest(context.Background(), Payload{FormID: "3"}, IngestConfig{TargetFormID: "3"})
	assert.ErrorIs(t, err, ErrServiceNotConfigured)
}

func TestGetSubmissionView(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Ingest(ctx, Payload{
		FormID:  "3",
		Fields:  map[string][]string{"name": {"Jane"}, "city": {"Oslo"}},
		Uploads: map[string][]intake.Upload{"cv": {writeUpload(t, "cv.pdf", "pdf")}},
	}, env.cfg)
	require.NoError(t, err)

	view, err := env.svc.GetSubmission(ctx, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Jane", "city": "Oslo"}, view.Submission.Fields)
	assert.Equal(t, "2024-05-17T09:30:00Z", view.SubmittedAt)
	require.Len(t, view.Attachments, 1)
	assert.Equal(t, "application/pdf", view.Attachments[0].MimeType)

	att, err := env.svc.GetAttachment(ctx, view.Attachments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", att.StoredName)

	_, err = env.svc.GetSubmission(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListSubmissionsClampsLimit(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Ingest(ctx, Payload{FormID: "3", Fields: map[string][]string{"name": {"n"}}}, env.cfg)
		require.NoError(t, err)
	}

	list, err := env.svc.ListSubmissions(ctx, 0, -5)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

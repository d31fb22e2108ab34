package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

type fakeMessageRepo struct {
	messages  map[string]*models.Message
	createErr error
	readCalls int
	statsNow  time.Time
}

func newFakeMessageRepo(messages ...*models.Message) *fakeMessageRepo {
	repo := &fakeMessageRepo{messages: map[string]*models.Message{}}
	for _, m := range messages {
		repo.messages[m.ID] = m
	}
	return repo
}

func (f *fakeMessageRepo) active(id string) (*models.Message, error) {
	m, ok := f.messages[id]
	if !ok || !m.Active {
		return nil, sql.ErrNoRows
	}
	return m, nil
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	msg.ID = "m-new"
	clone := *msg
	f.messages[msg.ID] = &clone
	return nil
}

func (f *fakeMessageRepo) FindByID(ctx context.Context, id string) (*models.Message, error) {
	m, err := f.active(id)
	if err != nil {
		return nil, err
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	return []models.Message{}, 0, nil
}

func (f *fakeMessageRepo) Unread(ctx context.Context) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range f.messages {
		if m.Active && !m.Read {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Search(ctx context.Context, term string) ([]models.Message, error) {
	return []models.Message{}, nil
}

func (f *fakeMessageRepo) Stats(ctx context.Context, now time.Time) (*models.MessageStats, error) {
	f.statsNow = now
	return &models.MessageStats{Total: len(f.messages), ByType: map[string]int{}, ByMonth: []models.MonthCount{}}, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, id string, read bool) (*models.Message, error) {
	f.readCalls++
	m, err := f.active(id)
	if err != nil {
		return nil, err
	}
	m.Read = read
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) SetImportant(ctx context.Context, id string, important bool) (*models.Message, error) {
	m, err := f.active(id)
	if err != nil {
		return nil, err
	}
	m.Important = important
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) SetArchived(ctx context.Context, id string, archived bool) (*models.Message, error) {
	m, err := f.active(id)
	if err != nil {
		return nil, err
	}
	m.Archived = archived
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) Reply(ctx context.Context, id, reply, repliedBy string, at time.Time) (*models.Message, error) {
	m, err := f.active(id)
	if err != nil {
		return nil, err
	}
	m.Reply = reply
	m.Replied = true
	m.Read = true
	m.RepliedBy = &repliedBy
	m.RepliedAt = &at
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) SetNotes(ctx context.Context, id, notes string) (*models.Message, error) {
	m, err := f.active(id)
	if err != nil {
		return nil, err
	}
	m.InternalNotes = notes
	clone := *m
	return &clone, nil
}

func (f *fakeMessageRepo) MarkManyRead(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if m, err := f.active(id); err == nil && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) Deactivate(ctx context.Context, id string) error {
	m, err := f.active(id)
	if err != nil {
		return err
	}
	m.Active = false
	return nil
}

var messageNow = time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

func newMessageFixture(messages ...*models.Message) (*MessageService, *fakeMessageRepo, *recordingQueue) {
	repo := newFakeMessageRepo(messages...)
	queue := &recordingQueue{}
	svc := NewMessageService(repo, NewNotificationService(queue, nil, nil, true), nil, nil)
	svc.now = func() time.Time { return messageNow }
	return svc, repo, queue
}

func TestMessageServiceCreate(t *testing.T) {
	svc, repo, _ := newMessageFixture()

	msg, err := svc.Create(context.Background(), ContactMessageRequest{
		Name:    "Carlos Díaz",
		Email:   "Carlos@Example.com",
		Subject: "Horarios",
		Body:    "¿Tienen jornada nocturna para sistemas?",
	}, MessageOrigin{IPAddress: "10.0.0.8", UserAgent: "Mozilla/5.0"})
	require.NoError(t, err)
	assert.Equal(t, "consulta", msg.Type)
	assert.Equal(t, "carlos@example.com", msg.Email)

	stored := repo.messages["m-new"]
	assert.Equal(t, "10.0.0.8", stored.IPAddress)
	assert.Equal(t, "Mozilla/5.0", stored.UserAgent)
	assert.True(t, stored.Active)
	assert.False(t, stored.Read)
}

func TestMessageServiceCreateValidation(t *testing.T) {
	svc, repo, _ := newMessageFixture()

	cases := map[string]ContactMessageRequest{
		"short body":   {Name: "Ana", Email: "ana@example.com", Subject: "Hola", Body: "corto"},
		"bad email":    {Name: "Ana", Email: "ana", Subject: "Hola", Body: "Mensaje suficientemente largo"},
		"unknown type": {Name: "Ana", Email: "ana@example.com", Subject: "Hola", Body: "Mensaje suficientemente largo", Type: "spam"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req, MessageOrigin{})
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}

	repo.createErr = errors.New("db down")
	_, err := svc.Create(context.Background(), ContactMessageRequest{Name: "Ana", Email: "ana@example.com", Subject: "Hola", Body: "Mensaje suficientemente largo"}, MessageOrigin{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestMessageServiceOpenMarksRead(t *testing.T) {
	svc, repo, _ := newMessageFixture(
		&models.Message{ID: "m1", Active: true},
		&models.Message{ID: "m2", Active: true, Read: true},
		&models.Message{ID: "gone", Active: false},
	)

	msg, err := svc.Open(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, msg.Read)
	assert.Equal(t, 1, repo.readCalls)

	_, err = svc.Open(context.Background(), "m2")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.readCalls)

	_, err = svc.Open(context.Background(), "gone")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMessageServiceReplyEnqueuesMail(t *testing.T) {
	svc, repo, queue := newMessageFixture(&models.Message{ID: "m1", Name: "Ana", Email: "ana@example.com", Subject: "Costos", Active: true})

	msg, err := svc.Reply(context.Background(), "m1", MessageReplyRequest{Reply: "La matrícula cuesta 200.000 COP."}, "admin-1")
	require.NoError(t, err)
	assert.True(t, msg.Replied)
	assert.True(t, msg.Read)
	require.NotNil(t, msg.RepliedAt)
	assert.Equal(t, messageNow, *msg.RepliedAt)
	assert.Equal(t, "admin-1", *repo.messages["m1"].RepliedBy)

	mails := queue.messages(t)
	require.Len(t, mails, 1)
	assert.Equal(t, "Re: Costos", mails[0].Subject)
	assert.Contains(t, mails[0].Text, "200.000 COP")

	_, err = svc.Reply(context.Background(), "m1", MessageReplyRequest{Reply: "ok"}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Reply(context.Background(), "missing", MessageReplyRequest{Reply: "Respuesta suficientemente larga"}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Len(t, queue.jobs, 1)
}

func TestMessageServiceFlags(t *testing.T) {
	svc, repo, _ := newMessageFixture(&models.Message{ID: "m1", Active: true})

	msg, err := svc.SetImportant(context.Background(), "m1", MessageImportantRequest{})
	require.NoError(t, err)
	assert.True(t, msg.Important)

	msg, err = svc.Archive(context.Background(), "m1", MessageArchiveRequest{Archived: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, msg.Archived)

	msg, err = svc.MarkRead(context.Background(), "m1", MessageReadRequest{Read: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, msg.Read)

	msg, err = svc.SetNotes(context.Background(), "m1", MessageNotesRequest{Notes: " llamar el lunes "})
	require.NoError(t, err)
	assert.Equal(t, "llamar el lunes", msg.InternalNotes)

	require.NoError(t, svc.Delete(context.Background(), "m1"))
	assert.False(t, repo.messages["m1"].Active)
	assert.ErrorIs(t, svc.Delete(context.Background(), "m1"), appErrors.ErrNotFound)
}

func TestMessageServiceMarkManyRead(t *testing.T) {
	svc, _, _ := newMessageFixture(
		&models.Message{ID: "m1", Active: true},
		&models.Message{ID: "m2", Active: true, Read: true},
		&models.Message{ID: "m3", Active: true},
	)

	n, err := svc.MarkManyRead(context.Background(), MarkMessagesReadRequest{IDs: []string{"m1", "m2", "m3", "missing"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err := svc.Unread(context.Background())
	require.NoError(t, err)
	assert.Empty(t, unread)

	_, err = svc.MarkManyRead(context.Background(), MarkMessagesReadRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMessageServiceStatsAndList(t *testing.T) {
	svc, repo, _ := newMessageFixture()

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, messageNow, repo.statsNow)

	_, page, err := svc.List(context.Background(), models.MessageFilter{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)

	_, err = svc.Search(context.Background(), " a ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

package service

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/pkg/jobs"
	"github.com/fundalink/fundalink-api/pkg/mailer"
)

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) messages(t *testing.T) []mailer.Message {
	t.Helper()
	out := make([]mailer.Message, 0, len(q.jobs))
	for _, job := range q.jobs {
		assert.Equal(t, JobTypeMail, job.Type)
		msg, ok := job.Payload.(mailer.Message)
		require.True(t, ok)
		out = append(out, msg)
	}
	return out
}

func TestNotificationServiceEnrollmentEvents(t *testing.T) {
	queue := &recordingQueue{}
	svc := NewNotificationService(queue, nil, nil, true)
	e := &models.Enrollment{FullName: "Ana Gómez", Email: "ana@example.com", ProgramName: "Sistemas"}

	svc.EnrollmentReceived(context.Background(), e)

	e.Status = models.EnrollmentRejected
	e.RejectionReason = "Documentación incompleta"
	svc.EnrollmentDecided(context.Background(), e)

	e.Status = models.EnrollmentInReview
	svc.EnrollmentDecided(context.Background(), e)

	msgs := queue.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ana@example.com", msgs[0].To[0].Address)
	assert.Contains(t, msgs[0].Text, "Sistemas")
	assert.Equal(t, "Respuesta a tu solicitud de inscripción", msgs[1].Subject)
	assert.Contains(t, msgs[1].Text, "Motivo: Documentación incompleta")
}

func TestNotificationServiceDisabledOrFailingQueue(t *testing.T) {
	queue := &recordingQueue{}
	NewNotificationService(queue, nil, nil, false).MessageReplied(context.Background(), &models.Message{Email: "a@b.co"})
	assert.Empty(t, queue.jobs)

	var nilSvc *NotificationService
	nilSvc.EnrollmentReceived(context.Background(), &models.Enrollment{Email: "a@b.co"})

	queue.err = jobs.ErrFull
	NewNotificationService(queue, nil, nil, true).MessageReplied(context.Background(), &models.Message{Email: "a@b.co"})
	assert.Empty(t, queue.jobs)
}

func TestNotificationServiceSkipsMissingRecipient(t *testing.T) {
	queue := &recordingQueue{}
	NewNotificationService(queue, nil, nil, true).MessageReplied(context.Background(), &models.Message{Name: "Sin correo"})
	assert.Empty(t, queue.jobs)
}

type failingMailer struct{ calls int }

func (f *failingMailer) Send(context.Context, mailer.Message) error {
	f.calls++
	return errors.New("smtp down")
}

func TestNotificationServiceDeliver(t *testing.T) {
	logMailer := mailer.NewLogMailer(mail.Address{Address: "no-reply@fundalink.org"}, "FUNDALink", nil)
	svc := NewNotificationService(nil, logMailer, nil, true)

	msg := mailer.Message{To: []mail.Address{{Address: "ana@example.com"}}, Subject: "Re: Horarios", Text: "Hola"}
	require.NoError(t, svc.Deliver(context.Background(), jobs.Job{ID: "1", Type: JobTypeMail, Payload: msg}))
	sent := logMailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "[FUNDALink] Re: Horarios", sent[0].Subject)

	assert.NoError(t, svc.Deliver(context.Background(), jobs.Job{ID: "2", Payload: "garbage"}))

	failing := &failingMailer{}
	err := NewNotificationService(nil, failing, nil, true).Deliver(context.Background(), jobs.Job{ID: "3", Payload: msg})
	assert.Error(t, err)
	assert.Equal(t, 1, failing.calls)
}

func TestNotificationServiceRegister(t *testing.T) {
	q := jobs.New("mail", jobs.Config{Workers: 1})
	svc := NewNotificationService(q, nil, nil, true)
	svc.Register(q)
	svc.MessageReplied(context.Background(), &models.Message{Email: "a@b.co"})
	assert.Equal(t, 0, q.Pending())
}

package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/pkg/jobs"
	"github.com/fundalink/fundalink-api/pkg/mailer"
	"github.com/fundalink/fundalink-api/pkg/middleware/requestid"
)

// JobTypeMail routes rendered e-mails to the mail handler.
const JobTypeMail = "mail.send"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type jobRegistry interface {
	Handle(jobType string, h jobs.Handler)
}

// NotificationService turns domain events into queued e-mails.
type NotificationService struct {
	queue   jobDispatcher
	mailer  mailer.Mailer
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService constructs the notifier. A disabled notifier drops every event.
func NewNotificationService(queue jobDispatcher, m mailer.Mailer, logger *zap.Logger, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, mailer: m, logger: logger, enabled: enabled}
}

// Register binds the delivery handler to the queue.
func (s *NotificationService) Register(registry jobRegistry) {
	registry.Handle(JobTypeMail, s.Deliver)
}

// Deliver sends the message carried by a mail job.
func (s *NotificationService) Deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("unexpected mail payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail %q: %w", msg.Subject, err)
	}
	return nil
}

// EnrollmentReceived confirms a new application to the applicant.
func (s *NotificationService) EnrollmentReceived(ctx context.Context, e *models.Enrollment) {
	program := e.ProgramName
	if program == "" {
		program = "el programa seleccionado"
	}
	s.enqueue(ctx, mailer.Message{
		To:      []mail.Address{{Name: e.FullName, Address: e.Email}},
		Subject: "Hemos recibido tu solicitud de inscripción",
		Text: fmt.Sprintf("Hola %s,\n\nRecibimos tu solicitud de inscripción a %s. Nuestro equipo la revisará y te contactará pronto.\n\nFundación FUNDALink",
			e.FullName, program),
	})
}

// EnrollmentDecided tells the applicant their application was approved or rejected.
func (s *NotificationService) EnrollmentDecided(ctx context.Context, e *models.Enrollment) {
	var subject, body string
	switch e.Status {
	case models.EnrollmentApproved:
		subject = "Tu solicitud de inscripción fue aprobada"
		body = fmt.Sprintf("Hola %s,\n\nTu solicitud para %s fue aprobada. Pronto te contactaremos para completar la matrícula.", e.FullName, e.ProgramName)
	case models.EnrollmentRejected:
		subject = "Respuesta a tu solicitud de inscripción"
		body = fmt.Sprintf("Hola %s,\n\nLamentamos informarte que tu solicitud para %s no fue aprobada.", e.FullName, e.ProgramName)
		if reason := strings.TrimSpace(e.RejectionReason); reason != "" {
			body += "\n\nMotivo: " + reason
		}
	default:
		return
	}
	s.enqueue(ctx, mailer.Message{
		To:      []mail.Address{{Name: e.FullName, Address: e.Email}},
		Subject: subject,
		Text:    body + "\n\nFundación FUNDALink",
	})
}

// MessageReplied sends the staff reply to the contact.
func (s *NotificationService) MessageReplied(ctx context.Context, m *models.Message) {
	s.enqueue(ctx, mailer.Message{
		To:      []mail.Address{{Name: m.Name, Address: m.Email}},
		Subject: "Re: " + m.Subject,
		Text:    fmt.Sprintf("Hola %s,\n\n%s\n\nFundación FUNDALink", m.Name, m.Reply),
	})
}

func (s *NotificationService) enqueue(ctx context.Context, msg mailer.Message) {
	if s == nil || !s.enabled || s.queue == nil || !msg.HasRecipients() {
		return
	}
	job := jobs.Job{
		ID:        uuid.NewString(),
		Type:      JobTypeMail,
		Payload:   msg,
		RequestID: requestid.FromContext(ctx),
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("job_id", job.ID),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const (
	defaultMessagePageSize = 20
	defaultMessageType     = "consulta"
	msgMessageNotFound     = "Mensaje no encontrado"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id string) (*models.Message, error)
	List(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	Unread(ctx context.Context) ([]models.Message, error)
	Search(ctx context.Context, term string) ([]models.Message, error)
	Stats(ctx context.Context, now time.Time) (*models.MessageStats, error)
	MarkRead(ctx context.Context, id string, read bool) (*models.Message, error)
	SetImportant(ctx context.Context, id string, important bool) (*models.Message, error)
	SetArchived(ctx context.Context, id string, archived bool) (*models.Message, error)
	Reply(ctx context.Context, id, reply, repliedBy string, at time.Time) (*models.Message, error)
	SetNotes(ctx context.Context, id, notes string) (*models.Message, error)
	MarkManyRead(ctx context.Context, ids []string) (int64, error)
	Deactivate(ctx context.Context, id string) error
}

// ContactMessageRequest is the public contact form.
type ContactMessageRequest struct {
	Name    string `json:"nombre" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"telefono" validate:"max=20"`
	Subject string `json:"asunto" validate:"notblank,max=200"`
	Body    string `json:"mensaje" validate:"required,min=10,max=2000"`
	Type    string `json:"tipo" validate:"omitempty,oneof=consulta sugerencia queja felicitacion otro"`
}

// MessageOrigin describes where a submission came from.
type MessageOrigin struct {
	IPAddress string
	UserAgent string
}

// MessageReadRequest sets the read flag. An omitted leido means true.
type MessageReadRequest struct {
	Read *bool `json:"leido"`
}

// MessageImportantRequest sets the important flag. An omitted importante means true.
type MessageImportantRequest struct {
	Important *bool `json:"importante"`
}

// MessageArchiveRequest archives or restores a message. An omitted archivado means true.
type MessageArchiveRequest struct {
	Archived *bool `json:"archivado"`
}

func flagOrTrue(v *bool) bool {
	return v == nil || *v
}

// MessageReplyRequest is the staff answer.
type MessageReplyRequest struct {
	Reply string `json:"respuesta" validate:"required,min=10,max=5000"`
}

// MessageNotesRequest replaces the internal notes.
type MessageNotesRequest struct {
	Notes string `json:"notasInternas" validate:"max=2000"`
}

// MarkMessagesReadRequest marks several messages read at once.
type MarkMessagesReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,notblank"`
}

// MessageService manages the contact inbox.
type MessageService struct {
	repo      messageRepository
	notifier  *NotificationService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewMessageService constructs the message service.
func NewMessageService(repo messageRepository, notifier *NotificationService, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, notifier: notifier, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a contact message from the public form.
func (s *MessageService) Create(ctx context.Context, req ContactMessageRequest, origin MessageOrigin) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	msg := &models.Message{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(req.Subject),
		Body:      strings.TrimSpace(req.Body),
		Type:      req.Type,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
		Active:    true,
	}
	if msg.Type == "" {
		msg.Type = defaultMessageType
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Internal(err, "Error al enviar el mensaje")
	}
	s.logger.Info("contact message received", zap.String("message_id", msg.ID), zap.String("type", msg.Type))
	return msg, nil
}

// List returns the inbox, important first then newest.
func (s *MessageService) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error) {
	filter.PageQuery = filter.PageQuery.Normalize(defaultMessagePageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener mensajes")
	}
	return items, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Unread returns up to 50 unread messages.
func (s *MessageService) Unread(ctx context.Context) ([]models.Message, error) {
	items, err := s.repo.Unread(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al obtener mensajes no leídos")
	}
	return items, nil
}

// Stats summarises the inbox, including the last six months.
func (s *MessageService) Stats(ctx context.Context) (*models.MessageStats, error) {
	stats, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return nil, appErrors.Internal(err, "Error al obtener estadísticas")
	}
	return stats, nil
}

// Search matches name, email, subject and body.
func (s *MessageService) Search(ctx context.Context, q string) ([]models.Message, error) {
	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al buscar mensajes")
	}
	return items, nil
}

// Open returns a message and marks it read.
func (s *MessageService) Open(ctx context.Context, id string) (*models.Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al obtener el mensaje")
	}
	if msg.Read {
		return msg, nil
	}
	read, err := s.repo.MarkRead(ctx, id, true)
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al obtener el mensaje")
	}
	return read, nil
}

// MarkRead sets or clears the read flag.
func (s *MessageService) MarkRead(ctx context.Context, id string, req MessageReadRequest) (*models.Message, error) {
	msg, err := s.repo.MarkRead(ctx, id, flagOrTrue(req.Read))
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al actualizar el mensaje")
	}
	return msg, nil
}

// SetImportant sets or clears the important flag.
func (s *MessageService) SetImportant(ctx context.Context, id string, req MessageImportantRequest) (*models.Message, error) {
	msg, err := s.repo.SetImportant(ctx, id, flagOrTrue(req.Important))
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al actualizar el mensaje")
	}
	return msg, nil
}

// Archive sets or clears the archived flag.
func (s *MessageService) Archive(ctx context.Context, id string, req MessageArchiveRequest) (*models.Message, error) {
	msg, err := s.repo.SetArchived(ctx, id, flagOrTrue(req.Archived))
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al actualizar el mensaje")
	}
	return msg, nil
}

// Reply stores the answer and e-mails it to the contact.
func (s *MessageService) Reply(ctx context.Context, id string, req MessageReplyRequest, actorID string) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	msg, err := s.repo.Reply(ctx, id, strings.TrimSpace(req.Reply), actorID, s.now())
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al responder el mensaje")
	}
	s.notifier.MessageReplied(ctx, msg)
	s.logger.Info("contact message replied", zap.String("message_id", msg.ID), zap.String("replied_by", actorID))
	return msg, nil
}

// SetNotes replaces the internal notes.
func (s *MessageService) SetNotes(ctx context.Context, id string, req MessageNotesRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	msg, err := s.repo.SetNotes(ctx, id, strings.TrimSpace(req.Notes))
	if err != nil {
		return nil, lookupError(err, msgMessageNotFound, "Error al guardar las notas")
	}
	return msg, nil
}

// MarkManyRead marks the listed messages read and returns how many changed.
func (s *MessageService) MarkManyRead(ctx context.Context, req MarkMessagesReadRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err)
	}
	n, err := s.repo.MarkManyRead(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Internal(err, "Error al marcar mensajes")
	}
	return n, nil
}

// Delete soft deletes a message.
func (s *MessageService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, msgMessageNotFound, "Error al eliminar el mensaje")
	}
	return nil
}

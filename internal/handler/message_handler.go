package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

type messageService interface {
	Create(ctx context.Context, req service.ContactMessageRequest, origin service.MessageOrigin) (*models.Message, error)
	List(ctx context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error)
	Unread(ctx context.Context) ([]models.Message, error)
	Stats(ctx context.Context) (*models.MessageStats, error)
	Search(ctx context.Context, q string) ([]models.Message, error)
	Open(ctx context.Context, id string) (*models.Message, error)
	MarkRead(ctx context.Context, id string, req service.MessageReadRequest) (*models.Message, error)
	SetImportant(ctx context.Context, id string, req service.MessageImportantRequest) (*models.Message, error)
	Archive(ctx context.Context, id string, req service.MessageArchiveRequest) (*models.Message, error)
	Reply(ctx context.Context, id string, req service.MessageReplyRequest, actorID string) (*models.Message, error)
	SetNotes(ctx context.Context, id string, req service.MessageNotesRequest) (*models.Message, error)
	MarkManyRead(ctx context.Context, req service.MarkMessagesReadRequest) (int64, error)
	Delete(ctx context.Context, id string) error
}

// MessageHandler exposes the contact form and the staff inbox.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// Create godoc
// @Summary Send a contact message
// @Tags Mensajes
// @Accept json
// @Produce json
// @Param payload body service.ContactMessageRequest true "Mensaje"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mensajes [post]
func (h *MessageHandler) Create(c *gin.Context) {
	var req service.ContactMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	origin := service.MessageOrigin{IPAddress: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	msg, err := h.service.Create(c.Request.Context(), req, origin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Mensaje enviado exitosamente. Te responderemos pronto.", gin.H{"id": msg.ID})
}

// List godoc
// @Summary Inbox
// @Tags Mensajes
// @Produce json
// @Security BearerAuth
// @Param leido query bool false "Leído"
// @Param respondido query bool false "Respondido"
// @Param tipo query string false "Tipo"
// @Param importante query bool false "Importante"
// @Param archivado query bool false "Archivado"
// @Success 200 {object} response.Envelope
// @Router /mensajes [get]
func (h *MessageHandler) List(c *gin.Context) {
	filter := models.MessageFilter{
		Read:      boolQuery(c, "leido"),
		Replied:   boolQuery(c, "respondido"),
		Type:      trimmedQuery(c, "tipo"),
		Important: boolQuery(c, "importante"),
		Archived:  boolQuery(c, "archivado"),
		PageQuery: pageQuery(c),
	}
	msgs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msgs, pagination)
}

// Unread godoc
// @Summary Unread messages
// @Tags Mensajes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mensajes/no-leidos [get]
func (h *MessageHandler) Unread(c *gin.Context) {
	msgs, err := h.service.Unread(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msgs, nil)
}

// Stats godoc
// @Summary Inbox statistics
// @Tags Mensajes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mensajes/estadisticas [get]
func (h *MessageHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Search godoc
// @Summary Search messages
// @Tags Mensajes
// @Produce json
// @Security BearerAuth
// @Param q query string true "Texto a buscar"
// @Success 200 {object} response.Envelope
// @Router /mensajes/buscar [get]
func (h *MessageHandler) Search(c *gin.Context) {
	msgs, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msgs, nil)
}

// Get godoc
// @Summary Open a message
// @Description Marks the message as read.
// @Tags Mensajes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mensajes/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	msg, err := h.service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msg, nil)
}

// MarkRead godoc
// @Summary Mark message read
// @Tags Mensajes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param payload body service.MessageReadRequest false "Leído"
// @Success 200 {object} response.Envelope
// @Router /mensajes/{id}/leido [put]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req service.MessageReadRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	msg, err := h.service.MarkRead(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := "no leído"
	if msg.Read {
		status = "leído"
	}
	response.Message(c, http.StatusOK, "Mensaje marcado como "+status, msg)
}

// SetImportant godoc
// @Summary Flag message as important
// @Tags Mensajes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param payload body service.MessageImportantRequest false "Importante"
// @Success 200 {object} response.Envelope
// @Router /mensajes/{id}/importante [put]
func (h *MessageHandler) SetImportant(c *gin.Context) {
	var req service.MessageImportantRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	msg, err := h.service.SetImportant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := "normal"
	if msg.Important {
		status = "importante"
	}
	response.Message(c, http.StatusOK, "Mensaje marcado como "+status, msg)
}

// Archive godoc
// @Summary Archive message
// @Tags Mensajes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param payload body service.MessageArchiveRequest false "Archivado"
// @Success 200 {object} response.Envelope
// @Router /mensajes/{id}/archivar [put]
func (h *MessageHandler) Archive(c *gin.Context) {
	var req service.MessageArchiveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	msg, err := h.service.Archive(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := "restaurado"
	if msg.Archived {
		status = "archivado"
	}
	response.Message(c, http.StatusOK, "Mensaje "+status, msg)
}

// Reply godoc
// @Summary Reply to a message
// @Description Stores the reply and e-mails it to the sender.
// @Tags Mensajes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param payload body service.MessageReplyRequest true "Respuesta"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mensajes/{id}/responder [put]
func (h *MessageHandler) Reply(c *gin.Context) {
	var req service.MessageReplyRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.service.Reply(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Respuesta registrada exitosamente", msg)
}

// SetNotes godoc
// @Summary Internal notes
// @Tags Mensajes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Param payload body service.MessageNotesRequest true "Notas"
// @Success 200 {object} response.Envelope
// @Router /mensajes/{id}/notas [put]
func (h *MessageHandler) SetNotes(c *gin.Context) {
	var req service.MessageNotesRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.service.SetNotes(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Notas actualizadas", msg)
}

// MarkManyRead godoc
// @Summary Mark several messages read
// @Tags Mensajes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.MarkMessagesReadRequest true "IDs"
// @Success 200 {object} response.Envelope
// @Router /mensajes/marcar-leidos [put]
func (h *MessageHandler) MarkManyRead(c *gin.Context) {
	var req service.MarkMessagesReadRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.service.MarkManyRead(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Mensajes marcados como leídos", gin.H{"actualizados": updated})
}

// Delete godoc
// @Summary Delete message
// @Tags Mensajes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Router /mensajes/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Mensaje eliminado exitosamente", nil)
}

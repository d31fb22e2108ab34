package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// EventHandler serves the events calendar.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary Active events
// @Tags Eventos
// @Produce json
// @Param tipo query string false "Tipo"
// @Param destacado query bool false "Solo destacados"
// @Param proximos query bool false "Solo próximos"
// @Success 200 {object} response.Envelope
// @Router /eventos [get]
func (h *EventHandler) List(c *gin.Context) {
	filter := models.EventFilter{
		Type:      trimmedQuery(c, "tipo"),
		Featured:  boolQuery(c, "destacado"),
		PageQuery: pageQuery(c),
	}
	if upcoming := boolQuery(c, "proximos"); upcoming != nil {
		filter.Upcoming = *upcoming
	}
	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Event detail
// @Tags Eventos
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eventos/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// SignUp godoc
// @Summary Sign up for an event
// @Tags Eventos
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eventos/{id}/inscribirse [post]
func (h *EventHandler) SignUp(c *gin.Context) {
	event, err := h.service.SignUp(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Inscripción al evento registrada exitosamente", event)
}

// Create godoc
// @Summary Create event
// @Tags Eventos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EventRequest true "Evento"
// @Success 201 {object} response.Envelope
// @Router /eventos [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.EventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.service.Create(c.Request.Context(), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Evento creado exitosamente", event)
}

// Update godoc
// @Summary Update event
// @Tags Eventos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param payload body service.EventRequest true "Evento"
// @Success 200 {object} response.Envelope
// @Router /eventos/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req service.EventRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Evento actualizado exitosamente", event)
}

// Delete godoc
// @Summary Delete event
// @Tags Eventos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /eventos/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), principalID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Evento eliminado exitosamente", nil)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// FAQHandler serves frequently asked questions.
type FAQHandler struct {
	service *service.FAQService
}

// NewFAQHandler constructs a FAQHandler.
func NewFAQHandler(svc *service.FAQService) *FAQHandler {
	return &FAQHandler{service: svc}
}

// List godoc
// @Summary Public FAQs
// @Description Grouped by category unless categoria is given.
// @Tags FAQs
// @Produce json
// @Param categoria query string false "Categoría"
// @Success 200 {object} response.Envelope
// @Router /faqs [get]
func (h *FAQHandler) List(c *gin.Context) {
	listing, hit, err := h.service.ListPublic(c.Request.Context(), c.Query("categoria"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, listing, nil)
}

// Search godoc
// @Summary Search FAQs
// @Tags FAQs
// @Produce json
// @Param q query string true "Texto a buscar"
// @Success 200 {object} response.Envelope
// @Router /faqs/buscar [get]
func (h *FAQHandler) Search(c *gin.Context) {
	faqs, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faqs, nil)
}

// Get godoc
// @Summary FAQ detail
// @Description Counts a view.
// @Tags FAQs
// @Produce json
// @Param id path string true "FAQ ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /faqs/{id} [get]
func (h *FAQHandler) Get(c *gin.Context) {
	faq, err := h.service.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faq, nil)
}

// Vote godoc
// @Summary Rate a FAQ answer
// @Tags FAQs
// @Accept json
// @Produce json
// @Param id path string true "FAQ ID"
// @Param payload body service.FAQVoteRequest true "Valoración"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id}/valorar [put]
func (h *FAQHandler) Vote(c *gin.Context) {
	var req service.FAQVoteRequest
	if !bindJSON(c, &req) {
		return
	}
	faq, err := h.service.Vote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Gracias por tu valoración", faq)
}

// ListAdmin godoc
// @Summary Every FAQ
// @Tags FAQs
// @Produce json
// @Security BearerAuth
// @Param categoria query string false "Categoría"
// @Param activo query bool false "Estado"
// @Success 200 {object} response.Envelope
// @Router /faqs/admin/todas [get]
func (h *FAQHandler) ListAdmin(c *gin.Context) {
	filter := models.FAQFilter{
		Category:  trimmedQuery(c, "categoria"),
		Active:    boolQuery(c, "activo"),
		PageQuery: pageQuery(c),
	}
	faqs, pagination, err := h.service.ListAdmin(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faqs, pagination)
}

// Stats godoc
// @Summary FAQ statistics
// @Tags FAQs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /faqs/admin/estadisticas [get]
func (h *FAQHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Create godoc
// @Summary Create FAQ
// @Tags FAQs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.FAQRequest true "FAQ"
// @Success 201 {object} response.Envelope
// @Router /faqs [post]
func (h *FAQHandler) Create(c *gin.Context) {
	var req service.FAQRequest
	if !bindJSON(c, &req) {
		return
	}
	faq, err := h.service.Create(c.Request.Context(), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Pregunta frecuente creada exitosamente", faq)
}

// Update godoc
// @Summary Update FAQ
// @Tags FAQs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "FAQ ID"
// @Param payload body service.FAQRequest true "FAQ"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id} [put]
func (h *FAQHandler) Update(c *gin.Context) {
	var req service.FAQRequest
	if !bindJSON(c, &req) {
		return
	}
	faq, err := h.service.Update(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Pregunta frecuente actualizada exitosamente", faq)
}

// SetOrder godoc
// @Summary Change FAQ position
// @Tags FAQs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "FAQ ID"
// @Param payload body service.FAQOrderRequest true "Orden"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id}/orden [put]
func (h *FAQHandler) SetOrder(c *gin.Context) {
	var req service.FAQOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	faq, err := h.service.SetOrder(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Orden actualizado", faq)
}

// Toggle godoc
// @Summary Activate or deactivate FAQ
// @Tags FAQs
// @Produce json
// @Security BearerAuth
// @Param id path string true "FAQ ID"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id}/toggle [put]
func (h *FAQHandler) Toggle(c *gin.Context) {
	faq, err := h.service.Toggle(c.Request.Context(), c.Param("id"), principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Estado actualizado", faq)
}

// Delete godoc
// @Summary Delete FAQ
// @Tags FAQs
// @Produce json
// @Security BearerAuth
// @Param id path string true "FAQ ID"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id} [delete]
func (h *FAQHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), principalID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Pregunta frecuente eliminada exitosamente", nil)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// TestimonialHandler serves graduate testimonials and their moderation.
type TestimonialHandler struct {
	service *service.TestimonialService
}

// NewTestimonialHandler constructs a TestimonialHandler.
func NewTestimonialHandler(svc *service.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{service: svc}
}

// List godoc
// @Summary Published testimonials
// @Tags Testimonios
// @Produce json
// @Param destacado query bool false "Solo destacados"
// @Param programa query string false "Programa"
// @Success 200 {object} response.Envelope
// @Router /testimonios [get]
func (h *TestimonialHandler) List(c *gin.Context) {
	filter := models.TestimonialFilter{
		Featured:  boolQuery(c, "destacado"),
		Program:   trimmedQuery(c, "programa"),
		PageQuery: pageQuery(c),
	}
	items, pagination, err := h.service.ListPublic(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Published testimonial
// @Tags Testimonios
// @Produce json
// @Param id path string true "Testimonial ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /testimonios/{id} [get]
func (h *TestimonialHandler) Get(c *gin.Context) {
	item, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Submit godoc
// @Summary Submit a testimonial
// @Description Stored unapproved until staff review it.
// @Tags Testimonios
// @Accept json
// @Produce json
// @Param payload body service.TestimonialRequest true "Testimonio"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /testimonios [post]
func (h *TestimonialHandler) Submit(c *gin.Context) {
	var req service.TestimonialRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Testimonio enviado exitosamente. Será revisado antes de publicarse.", item)
}

// ListAdmin godoc
// @Summary Every testimonial
// @Tags Testimonios
// @Produce json
// @Security BearerAuth
// @Param aprobado query bool false "Aprobado"
// @Param destacado query bool false "Destacado"
// @Success 200 {object} response.Envelope
// @Router /testimonios/admin/todos [get]
func (h *TestimonialHandler) ListAdmin(c *gin.Context) {
	filter := models.TestimonialFilter{
		Approved:  boolQuery(c, "aprobado"),
		Featured:  boolQuery(c, "destacado"),
		PageQuery: pageQuery(c),
	}
	items, pagination, err := h.service.ListAdmin(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Pending godoc
// @Summary Testimonials awaiting review
// @Tags Testimonios
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /testimonios/admin/pendientes [get]
func (h *TestimonialHandler) Pending(c *gin.Context) {
	items, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Update godoc
// @Summary Edit testimonial
// @Tags Testimonios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Param payload body service.TestimonialRequest true "Testimonio"
// @Success 200 {object} response.Envelope
// @Router /testimonios/{id} [put]
func (h *TestimonialHandler) Update(c *gin.Context) {
	var req service.TestimonialRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Testimonio actualizado exitosamente", item)
}

// Approve godoc
// @Summary Approve testimonial
// @Tags Testimonios
// @Produce json
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Success 200 {object} response.Envelope
// @Router /testimonios/{id}/aprobar [put]
func (h *TestimonialHandler) Approve(c *gin.Context) {
	item, err := h.service.Approve(c.Request.Context(), c.Param("id"), principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Testimonio aprobado exitosamente", item)
}

// Reject godoc
// @Summary Reject testimonial
// @Tags Testimonios
// @Produce json
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Success 200 {object} response.Envelope
// @Router /testimonios/{id}/rechazar [put]
func (h *TestimonialHandler) Reject(c *gin.Context) {
	item, err := h.service.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Testimonio rechazado", item)
}

// SetFeatured godoc
// @Summary Feature testimonial
// @Tags Testimonios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Param payload body service.TestimonialFeatureRequest false "Destacado"
// @Success 200 {object} response.Envelope
// @Router /testimonios/{id}/destacado [put]
func (h *TestimonialHandler) SetFeatured(c *gin.Context) {
	var req service.TestimonialFeatureRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	item, err := h.service.SetFeatured(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Testimonio actualizado", item)
}

// Delete godoc
// @Summary Delete testimonial
// @Tags Testimonios
// @Produce json
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Success 200 {object} response.Envelope
// @Router /testimonios/{id} [delete]
func (h *TestimonialHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Testimonio eliminado exitosamente", nil)
}

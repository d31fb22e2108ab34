package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// NewsHandler serves institutional news.
type NewsHandler struct {
	service *service.NewsService
}

// NewNewsHandler constructs a NewsHandler.
func NewNewsHandler(svc *service.NewsService) *NewsHandler {
	return &NewsHandler{service: svc}
}

// List godoc
// @Summary Published news
// @Tags Noticias
// @Produce json
// @Param categoria query string false "Categoría"
// @Param destacada query bool false "Solo destacadas"
// @Success 200 {object} response.Envelope
// @Router /noticias [get]
func (h *NewsHandler) List(c *gin.Context) {
	filter := models.NewsFilter{
		Category:  trimmedQuery(c, "categoria"),
		Featured:  boolQuery(c, "destacada"),
		PageQuery: pageQuery(c),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary News detail
// @Tags Noticias
// @Produce json
// @Param id path string true "News ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /noticias/{id} [get]
func (h *NewsHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Publish news
// @Tags Noticias
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.NewsRequest true "Noticia"
// @Success 201 {object} response.Envelope
// @Router /noticias [post]
func (h *NewsHandler) Create(c *gin.Context) {
	var req service.NewsRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Noticia creada exitosamente", item)
}

// Update godoc
// @Summary Update news
// @Tags Noticias
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "News ID"
// @Param payload body service.NewsRequest true "Noticia"
// @Success 200 {object} response.Envelope
// @Router /noticias/{id} [put]
func (h *NewsHandler) Update(c *gin.Context) {
	var req service.NewsRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, currentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Noticia actualizada exitosamente", item)
}

// Delete godoc
// @Summary Delete news
// @Tags Noticias
// @Produce json
// @Security BearerAuth
// @Param id path string true "News ID"
// @Success 200 {object} response.Envelope
// @Router /noticias/{id} [delete]
func (h *NewsHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), principalID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Noticia eliminada exitosamente", nil)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/pkg/response"
)

type institutionService interface {
	Get(ctx context.Context) (*models.Institution, bool, error)
	Update(ctx context.Context, update models.InstitutionUpdate, actorID string) (*models.Institution, error)
	MergeSection(ctx context.Context, section string, fields map[string]string, actorID string) (*models.Institution, error)
}

// InstitutionHandler serves the institution information document.
type InstitutionHandler struct {
	service institutionService
}

// NewInstitutionHandler constructs an InstitutionHandler.
func NewInstitutionHandler(svc institutionService) *InstitutionHandler {
	return &InstitutionHandler{service: svc}
}

// Get godoc
// @Summary Institution information
// @Tags Informacion
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /informacion [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	inst, hit, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, inst, nil)
}

// Update godoc
// @Summary Replace institution sections
// @Description Only the sections present in the payload are written.
// @Tags Informacion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.InstitutionUpdate true "Secciones"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /informacion [put]
func (h *InstitutionHandler) Update(c *gin.Context) {
	var req models.InstitutionUpdate
	if !bindJSON(c, &req) {
		return
	}
	inst, err := h.service.Update(c.Request.Context(), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Información actualizada exitosamente", inst)
}

// MergeSection returns a handler merging the posted keys into one section.
// @Summary Update one institution section
// @Tags Informacion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /informacion/redes-sociales [put]
// @Router /informacion/contacto [put]
// @Router /informacion/rectoria [put]
func (h *InstitutionHandler) MergeSection(section string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields map[string]string
		if !bindJSON(c, &fields) {
			return
		}
		inst, err := h.service.MergeSection(c.Request.Context(), section, fields, principalID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Información actualizada exitosamente", inst)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/response"
)

type programService interface {
	ListPublic(ctx context.Context, filter models.ProgramFilter) (*service.ProgramPage, bool, error)
	ListAdmin(ctx context.Context, filter models.ProgramFilter) ([]models.ProgramView, *models.Pagination, error)
	Available(ctx context.Context) ([]models.ProgramView, bool, error)
	GetPublic(ctx context.Context, id string) (*models.ProgramView, error)
	GetByCode(ctx context.Context, code string) (*models.ProgramView, error)
	Create(ctx context.Context, req service.ProgramRequest, actorID string) (*models.ProgramView, error)
	Update(ctx context.Context, id string, req service.ProgramUpdateRequest, actorID string) (*models.ProgramView, error)
	SetFeatured(ctx context.Context, id string, featured bool, actorID string) (*models.ProgramView, error)
	SetAvailability(ctx context.Context, id string, req service.ProgramAvailabilityRequest, actorID string) (*models.ProgramView, error)
	Delete(ctx context.Context, id, actorID string) error
}

type programFeaturedRequest struct {
	Featured *bool `json:"destacado"`
}

// ProgramHandler exposes the program catalogue.
type ProgramHandler struct {
	service programService
}

// NewProgramHandler constructs a ProgramHandler.
func NewProgramHandler(svc programService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// List godoc
// @Summary List active programs
// @Tags Programas
// @Produce json
// @Param modalidad query string false "Modalidad"
// @Param destacado query bool false "Solo destacados"
// @Param disponible query bool false "Inscripción abierta"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} response.Envelope
// @Router /programas [get]
func (h *ProgramHandler) List(c *gin.Context) {
	filter := models.ProgramFilter{
		Modality:  trimmedQuery(c, "modalidad"),
		Featured:  boolQuery(c, "destacado"),
		Available: boolQuery(c, "disponible"),
		PageQuery: pageQuery(c),
	}
	page, hit, err := h.service.ListPublic(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, page.Items, page.Pagination)
}

// Available godoc
// @Summary Programs open for enrollment
// @Tags Programas
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programas/disponibles [get]
func (h *ProgramHandler) Available(c *gin.Context) {
	programs, hit, err := h.service.Available(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, programs, nil)
}

// GetByCode godoc
// @Summary Program by code
// @Tags Programas
// @Produce json
// @Param codigo path string true "Código del programa"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programas/codigo/{codigo} [get]
func (h *ProgramHandler) GetByCode(c *gin.Context) {
	program, err := h.service.GetByCode(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Get godoc
// @Summary Program detail
// @Tags Programas
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programas/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// ListAdmin godoc
// @Summary List every program
// @Tags Programas
// @Produce json
// @Security BearerAuth
// @Param activo query bool false "Estado"
// @Success 200 {object} response.Envelope
// @Router /programas/admin/todos [get]
func (h *ProgramHandler) ListAdmin(c *gin.Context) {
	filter := models.ProgramFilter{
		Active:    boolQuery(c, "activo"),
		PageQuery: pageQuery(c),
	}
	programs, pagination, err := h.service.ListAdmin(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, pagination)
}

// Create godoc
// @Summary Create program
// @Tags Programas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ProgramRequest true "Programa"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programas [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.ProgramRequest
	if !bindJSON(c, &req) {
		return
	}
	program, err := h.service.Create(c.Request.Context(), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Programa creado exitosamente", program)
}

// Update godoc
// @Summary Update program
// @Description Only the fields sent are changed. inscripcion.cuposDisponibles null means unlimited.
// @Tags Programas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param payload body service.ProgramUpdateRequest true "Programa"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programas/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msgInvalidPayload))
		return
	}
	var req service.ProgramUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msgInvalidPayload))
		return
	}
	if req.Enrollment != nil {
		var doc struct {
			Enrollment map[string]json.RawMessage `json:"inscripcion"`
		}
		if err := json.Unmarshal(body, &doc); err == nil {
			_, req.Enrollment.SetSeats = doc.Enrollment["cuposDisponibles"]
		}
	}
	program, err := h.service.Update(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Programa actualizado exitosamente", program)
}

// SetFeatured godoc
// @Summary Mark program as featured
// @Tags Programas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /programas/{id}/destacado [put]
func (h *ProgramHandler) SetFeatured(c *gin.Context) {
	var req programFeaturedRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Featured == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "El campo destacado es obligatorio"))
		return
	}
	program, err := h.service.SetFeatured(c.Request.Context(), c.Param("id"), *req.Featured, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Programa actualizado exitosamente", program)
}

// SetAvailability godoc
// @Summary Open or close enrollment
// @Description Sending cuposDisponibles changes capacity; null means unlimited.
// @Tags Programas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param payload body service.ProgramAvailabilityRequest true "Disponibilidad"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programas/{id}/disponibilidad [put]
func (h *ProgramHandler) SetAvailability(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msgInvalidPayload))
		return
	}
	var req service.ProgramAvailabilityRequest
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msgInvalidPayload))
		return
	}
	if err := json.Unmarshal(body, &keys); err == nil {
		_, req.SetSeats = keys["cuposDisponibles"]
	}

	program, err := h.service.SetAvailability(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Disponibilidad actualizada exitosamente", program)
}

// Delete godoc
// @Summary Deactivate program
// @Tags Programas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programas/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), principalID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Programa eliminado exitosamente", nil)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

type enrollmentService interface {
	Create(ctx context.Context, req service.CreateEnrollmentRequest) (*models.EnrollmentView, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentView, *models.Pagination, error)
	Pending(ctx context.Context) ([]models.EnrollmentView, error)
	Stats(ctx context.Context) (*models.EnrollmentStats, error)
	Search(ctx context.Context, q string) ([]models.EnrollmentView, error)
	Get(ctx context.Context, id string) (*models.EnrollmentView, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateEnrollmentStatusRequest, actorID string) (*models.EnrollmentView, error)
	UpdatePriority(ctx context.Context, id string, req service.UpdateEnrollmentPriorityRequest) (*models.EnrollmentView, error)
	Cancel(ctx context.Context, id string) error
	Matriculate(ctx context.Context, id, actorID string) (*models.Matriculation, error)
}

type exportService interface {
	Enrollments(ctx context.Context, filter models.EnrollmentFilter, rawFormat string) (*service.ExportFile, error)
	Students(ctx context.Context, filter models.StudentFilter, rawFormat string) (*service.ExportFile, error)
}

// EnrollmentHandler manages enrollment applications and matriculation.
type EnrollmentHandler struct {
	service enrollmentService
	exports exportService
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService, exports exportService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, exports: exports}
}

func enrollmentFilter(c *gin.Context) models.EnrollmentFilter {
	return models.EnrollmentFilter{
		Status:    models.EnrollmentStatus(trimmedQuery(c, "estado")),
		ProgramID: trimmedQuery(c, "programa"),
		Priority:  models.Priority(trimmedQuery(c, "prioridad")),
		PageQuery: pageQuery(c),
	}
}

// Create godoc
// @Summary Submit an enrollment application
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Solicitud"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inscripciones [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Solicitud de inscripción enviada exitosamente", enrollment)
}

// List godoc
// @Summary List enrollment applications
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Param estado query string false "Estado"
// @Param programa query string false "Program ID"
// @Param prioridad query string false "Prioridad"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} response.Envelope
// @Router /inscripciones [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), enrollmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Pending godoc
// @Summary Pending applications, oldest first
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /inscripciones/pendientes [get]
func (h *EnrollmentHandler) Pending(c *gin.Context) {
	items, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Stats godoc
// @Summary Enrollment statistics
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /inscripciones/estadisticas [get]
func (h *EnrollmentHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Search godoc
// @Summary Search applications
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Param q query string true "Texto a buscar"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inscripciones/buscar [get]
func (h *EnrollmentHandler) Search(c *gin.Context) {
	items, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Application detail
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inscripciones/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// UpdateStatus godoc
// @Summary Review an application
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentStatusRequest true "Estado"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscripciones/{id}/estado [put]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateEnrollmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Estado actualizado exitosamente", enrollment)
}

// UpdatePriority godoc
// @Summary Change application priority
// @Tags Inscripciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentPriorityRequest true "Prioridad"
// @Success 200 {object} response.Envelope
// @Router /inscripciones/{id}/prioridad [put]
func (h *EnrollmentHandler) UpdatePriority(c *gin.Context) {
	var req service.UpdateEnrollmentPriorityRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.service.UpdatePriority(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Prioridad actualizada exitosamente", enrollment)
}

// Matriculate godoc
// @Summary Matriculate an approved application
// @Description Creates the student, consumes a program seat and returns the one-time access code.
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscripciones/{id}/matricular [post]
func (h *EnrollmentHandler) Matriculate(c *gin.Context) {
	result, err := h.service.Matriculate(c.Request.Context(), c.Param("id"), principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, result.Message, result)
}

// Cancel godoc
// @Summary Cancel an application
// @Tags Inscripciones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inscripciones/{id} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Inscripción cancelada exitosamente", nil)
}

// Export godoc
// @Summary Export applications
// @Tags Inscripciones
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param formato query string false "csv o pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /inscripciones/exportar [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	file, err := h.exports.Enrollments(c.Request.Context(), enrollmentFilter(c), c.DefaultQuery("formato", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

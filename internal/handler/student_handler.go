package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// StudentHandler handles student administration.
type StudentHandler struct {
	service *service.StudentService
	exports exportService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(svc *service.StudentService, exports exportService) *StudentHandler {
	return &StudentHandler{service: svc, exports: exports}
}

func studentFilter(c *gin.Context) models.StudentFilter {
	return models.StudentFilter{
		Status:    models.StudentStatus(trimmedQuery(c, "estado")),
		ProgramID: trimmedQuery(c, "programa"),
		Schedule:  trimmedQuery(c, "jornada"),
		PageQuery: pageQuery(c),
	}
}

// Register godoc
// @Summary Register a student directly
// @Description Consumes a program seat and returns the one-time access code.
// @Tags Estudiantes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RegisterStudentRequest true "Estudiante"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /estudiantes [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req service.RegisterStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Register(c.Request.Context(), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Estudiante registrado exitosamente", result)
}

// List godoc
// @Summary List students
// @Tags Estudiantes
// @Produce json
// @Security BearerAuth
// @Param estado query string false "Estado"
// @Param programa query string false "Program ID"
// @Param jornada query string false "Jornada"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} response.Envelope
// @Router /estudiantes [get]
func (h *StudentHandler) List(c *gin.Context) {
	students, pagination, err := h.service.List(c.Request.Context(), studentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Search godoc
// @Summary Search students
// @Tags Estudiantes
// @Produce json
// @Security BearerAuth
// @Param q query string true "Texto a buscar"
// @Success 200 {object} response.Envelope
// @Router /estudiantes/buscar [get]
func (h *StudentHandler) Search(c *gin.Context) {
	students, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Student detail
// @Tags Estudiantes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /estudiantes/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Update godoc
// @Summary Update student
// @Tags Estudiantes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Estudiante"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /estudiantes/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.service.Update(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Estudiante actualizado exitosamente", student)
}

// UpdateStatus godoc
// @Summary Change student status
// @Tags Estudiantes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentStatusRequest true "Estado"
// @Success 200 {object} response.Envelope
// @Router /estudiantes/{id}/estado [put]
func (h *StudentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStudentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Estado actualizado exitosamente", student)
}

// ResetAccessCode godoc
// @Summary Issue a new access code
// @Tags Estudiantes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /estudiantes/{id}/resetear-codigo [put]
func (h *StudentHandler) ResetAccessCode(c *gin.Context) {
	code, err := h.service.ResetAccessCode(c.Request.Context(), c.Param("id"), principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Código de acceso restablecido exitosamente", gin.H{"nuevoCodigoAcceso": code})
}

// Deactivate godoc
// @Summary Deactivate student
// @Tags Estudiantes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /estudiantes/{id} [delete]
func (h *StudentHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), principalID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Estudiante desactivado exitosamente", nil)
}

// Export godoc
// @Summary Export students
// @Tags Estudiantes
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param formato query string false "csv o pdf"
// @Success 200 {file} file
// @Router /estudiantes/exportar [get]
func (h *StudentHandler) Export(c *gin.Context) {
	file, err := h.exports.Students(c.Request.Context(), studentFilter(c), c.DefaultQuery("formato", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

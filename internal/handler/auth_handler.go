package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.StudentLoginResponse, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	StudentProfile(ctx context.Context, studentID string) (*models.StudentView, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

// AuthHandler wires login and profile endpoints for staff and students.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Staff login
// @Description Authenticate a staff user by email and password
// @Tags Usuarios
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credenciales"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /usuarios/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Inicio de sesión exitoso", res)
}

// Profile godoc
// @Summary Staff profile
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /usuarios/perfil [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	user, err := h.service.Profile(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// ChangePassword godoc
// @Summary Change own password
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ChangePasswordRequest true "Contraseñas"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /usuarios/cambiar-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), principal.ID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Contraseña actualizada exitosamente", nil)
}

// StudentLogin godoc
// @Summary Student login
// @Description Authenticate a student by student code and access code
// @Tags Estudiantes
// @Accept json
// @Produce json
// @Param payload body models.StudentLoginRequest true "Credenciales"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /estudiantes/login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req models.StudentLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.StudentLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Inicio de sesión exitoso", res)
}

// StudentProfile godoc
// @Summary Student profile
// @Tags Estudiantes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /estudiantes/perfil [get]
func (h *AuthHandler) StudentProfile(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	student, err := h.service.StudentProfile(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

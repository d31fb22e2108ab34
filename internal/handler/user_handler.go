package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// UserHandler manages staff accounts.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// Register godoc
// @Summary Register staff user
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateUserRequest true "Usuario"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /usuarios/registro [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Usuario registrado exitosamente", user)
}

// List godoc
// @Summary List staff users
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Param rol query string false "Rol"
// @Param activo query bool false "Estado"
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} response.Envelope
// @Router /usuarios [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Active:    boolQuery(c, "activo"),
		PageQuery: pageQuery(c),
	}
	if role := trimmedQuery(c, "rol"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Update godoc
// @Summary Update staff user
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "Usuario"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /usuarios/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req, principalID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Usuario actualizado exitosamente", user)
}

// Deactivate godoc
// @Summary Deactivate staff user
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /usuarios/{id} [delete]
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), principalID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Usuario desactivado exitosamente", nil)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

type fakeAuthService struct {
	loginErr      error
	lastLogin     models.LoginRequest
	passwordFor   string
	passwordReq   models.ChangePasswordRequest
	studentCalled string
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{Token: "signed", Usuario: &models.User{ID: "u1", Email: req.Email}}, nil
}

func (f *fakeAuthService) StudentLogin(_ context.Context, req models.StudentLoginRequest) (*models.StudentLoginResponse, error) {
	return &models.StudentLoginResponse{Token: "signed"}, nil
}

func (f *fakeAuthService) Profile(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func (f *fakeAuthService) StudentProfile(_ context.Context, studentID string) (*models.StudentView, error) {
	f.studentCalled = studentID
	return &models.StudentView{}, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, userID string, req models.ChangePasswordRequest) error {
	f.passwordFor = userID
	f.passwordReq = req
	return nil
}

func TestLoginReturnsToken(t *testing.T) {
	auth := &fakeAuthService{}
	router := apiRouter(t, Handlers{Auth: NewAuthHandler(auth)}, &recordedAudit{})

	rec := call(router, http.MethodPost, "/api/usuarios/login", "", `{"email":"admin@fundalink.edu.co","password":"secreto"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed", body.Data.Token)
	assert.Equal(t, "admin@fundalink.edu.co", auth.lastLogin.Email)
}

func TestLoginPropagatesInvalidCredentials(t *testing.T) {
	auth := &fakeAuthService{loginErr: appErrors.Clone(appErrors.ErrInvalidCredentials, "Credenciales inválidas")}
	router := apiRouter(t, Handlers{Auth: NewAuthHandler(auth)}, &recordedAudit{})

	rec := call(router, http.MethodPost, "/api/usuarios/login", "", `{"email":"x@y.co","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credenciales inválidas")
}

func TestChangePasswordUsesAuthenticatedUser(t *testing.T) {
	auth := &fakeAuthService{}
	router := apiRouter(t, Handlers{Auth: NewAuthHandler(auth)}, &recordedAudit{})

	rec := call(router, http.MethodPut, "/api/usuarios/cambiar-password", "editor", `{"passwordActual":"viejo1","passwordNuevo":"nuevo12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", auth.passwordFor)
	assert.Equal(t, "nuevo12", auth.passwordReq.NewPassword)
}

func TestStudentProfileUsesStudentPrincipal(t *testing.T) {
	auth := &fakeAuthService{}
	router := apiRouter(t, Handlers{Auth: NewAuthHandler(auth)}, &recordedAudit{})

	rec := call(router, http.MethodGet, "/api/estudiantes/perfil", "student", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", auth.studentCalled)
}

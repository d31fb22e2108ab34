package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

type stubAuthenticator map[string]*models.Principal

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Token inválido o expirado")
}

var principals = stubAuthenticator{
	"super":   {ID: "u0", Kind: models.PrincipalUser, Role: models.RoleSuperAdmin},
	"admin":   {ID: "u1", Kind: models.PrincipalUser, Role: models.RoleAdmin},
	"editor":  {ID: "u2", Kind: models.PrincipalUser, Role: models.RoleEditor},
	"student": {ID: "s1", Kind: models.PrincipalStudent},
}

type recordedAudit struct {
	entries []*models.AuditLog
}

func (r *recordedAudit) Create(_ context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}

type fakeEnrollmentService struct {
	cancelled   []string
	matriculate func(id, actorID string) (*models.Matriculation, error)
	lastFilter  models.EnrollmentFilter
}

func (f *fakeEnrollmentService) Create(context.Context, service.CreateEnrollmentRequest) (*models.EnrollmentView, error) {
	return &models.EnrollmentView{}, nil
}

func (f *fakeEnrollmentService) List(_ context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentView, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.EnrollmentView{}, models.NewPagination(0, 1, 20), nil
}

func (f *fakeEnrollmentService) Pending(context.Context) ([]models.EnrollmentView, error) {
	return []models.EnrollmentView{}, nil
}

func (f *fakeEnrollmentService) Stats(context.Context) (*models.EnrollmentStats, error) {
	return &models.EnrollmentStats{}, nil
}

func (f *fakeEnrollmentService) Search(context.Context, string) ([]models.EnrollmentView, error) {
	return []models.EnrollmentView{}, nil
}

func (f *fakeEnrollmentService) Get(context.Context, string) (*models.EnrollmentView, error) {
	return &models.EnrollmentView{}, nil
}

func (f *fakeEnrollmentService) UpdateStatus(context.Context, string, service.UpdateEnrollmentStatusRequest, string) (*models.EnrollmentView, error) {
	return &models.EnrollmentView{}, nil
}

func (f *fakeEnrollmentService) UpdatePriority(context.Context, string, service.UpdateEnrollmentPriorityRequest) (*models.EnrollmentView, error) {
	return &models.EnrollmentView{}, nil
}

func (f *fakeEnrollmentService) Cancel(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeEnrollmentService) Matriculate(_ context.Context, id, actorID string) (*models.Matriculation, error) {
	if f.matriculate != nil {
		return f.matriculate(id, actorID)
	}
	return &models.Matriculation{AccessCode: "ABCD1234", Message: "Estudiante matriculado exitosamente."}, nil
}

type fakeExports struct {
	format string
}

func (f *fakeExports) Enrollments(_ context.Context, _ models.EnrollmentFilter, format string) (*service.ExportFile, error) {
	f.format = format
	return &service.ExportFile{Filename: "inscripciones_20240101.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n")}, nil
}

func (f *fakeExports) Students(_ context.Context, _ models.StudentFilter, format string) (*service.ExportFile, error) {
	f.format = format
	return &service.ExportFile{Filename: "estudiantes_20240101.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

func apiRouter(t *testing.T, handlers Handlers, audit *recordedAudit) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Register(router.Group("/api"), handlers.Routes(), principals, audit, nil)
	return router
}

func call(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRegisterWithoutConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	assert.NotPanics(t, func() {
		Register(router.Group("/api"), Handlers{}.Routes(), principals, nil, nil)
	})

	seen := map[string]bool{}
	for _, r := range (Handlers{}).Routes() {
		key := r.Method + " " + r.Path
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
	}
}

func TestRoutesPolicyTable(t *testing.T) {
	rules := map[string]string{}
	audits := map[string]string{}
	for _, r := range (Handlers{}).Routes() {
		rules[r.Method+" "+r.Path] = r.Rule.String()
		audits[r.Method+" "+r.Path] = r.Audit
	}

	cases := map[string]string{
		"POST /usuarios/login":                 "public",
		"GET /usuarios/perfil":                 "staff",
		"POST /usuarios/registro":              "staff(superadmin)",
		"DELETE /usuarios/:id":                 "staff(superadmin)",
		"GET /programas":                       "public",
		"GET /programas/admin/todos":           "staff(admin,superadmin)",
		"POST /inscripciones":                  "public",
		"POST /inscripciones/:id/matricular":   "staff(admin,superadmin)",
		"GET /estudiantes/perfil":              "student",
		"PUT /estudiantes/:id/resetear-codigo": "staff(admin,superadmin)",
		"POST /mensajes":                       "public",
		"PUT /faqs/:id/valorar":                "public",
		"POST /faqs":                           "staff(editor,admin,superadmin)",
		"POST /eventos/:id/inscribirse":        "public",
		"PUT /noticias/:id":                    "staff(editor,admin,superadmin)",
		"PUT /informacion/redes-sociales":      "staff(admin,superadmin)",
		"GET /informacion":                     "public",
	}
	for route, rule := range cases {
		assert.Equal(t, rule, rules[route], route)
	}

	assert.Equal(t, models.AuditActionEnrollmentStatus, audits["PUT /inscripciones/:id/estado"])
	assert.Equal(t, models.AuditActionStudentRegister, audits["POST /estudiantes"])
	assert.Equal(t, models.AuditActionAccessCodeReset, audits["PUT /estudiantes/:id/resetear-codigo"])
	assert.Equal(t, models.AuditActionUserCreate, audits["POST /usuarios/registro"])
	assert.Equal(t, models.AuditActionUserUpdate, audits["PUT /usuarios/:id"])
	assert.Empty(t, audits["POST /inscripciones/:id/matricular"])
	for route, action := range audits {
		if strings.HasPrefix(route, http.MethodDelete+" ") {
			assert.Equal(t, models.AuditActionDelete, action, route)
		}
	}
}

func TestGateAppliesRoles(t *testing.T) {
	enrollments := &fakeEnrollmentService{}
	router := apiRouter(t, Handlers{Enrollments: NewEnrollmentHandler(enrollments, &fakeExports{})}, &recordedAudit{})

	assert.Equal(t, http.StatusUnauthorized, call(router, http.MethodGet, "/api/inscripciones", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(router, http.MethodGet, "/api/inscripciones", "forged", "").Code)
	assert.Equal(t, http.StatusForbidden, call(router, http.MethodGet, "/api/inscripciones", "editor", "").Code)
	assert.Equal(t, http.StatusForbidden, call(router, http.MethodGet, "/api/inscripciones", "student", "").Code)
	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/api/inscripciones", "admin", "").Code)
	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/api/inscripciones?estado=aprobado&page=2", "super", "").Code)

	assert.Equal(t, models.EnrollmentApproved, enrollments.lastFilter.Status)
	assert.Equal(t, 2, enrollments.lastFilter.Page)
}

func TestDeleteIsAudited(t *testing.T) {
	enrollments := &fakeEnrollmentService{}
	audit := &recordedAudit{}
	router := apiRouter(t, Handlers{Enrollments: NewEnrollmentHandler(enrollments, &fakeExports{})}, audit)

	rec := call(router, http.MethodDelete, "/api/inscripciones/e-7", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"e-7"}, enrollments.cancelled)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionDelete, audit.entries[0].Action)
	assert.Equal(t, "inscripciones", audit.entries[0].Resource)
	require.NotNil(t, audit.entries[0].ResourceID)
	assert.Equal(t, "e-7", *audit.entries[0].ResourceID)
}

func TestMatriculateReturnsAccessCodeOnce(t *testing.T) {
	var actor string
	enrollments := &fakeEnrollmentService{matriculate: func(id, actorID string) (*models.Matriculation, error) {
		actor = actorID
		return &models.Matriculation{AccessCode: "K7Q2M9XZ", Message: "Estudiante matriculado exitosamente."}, nil
	}}
	audit := &recordedAudit{}
	router := apiRouter(t, Handlers{Enrollments: NewEnrollmentHandler(enrollments, &fakeExports{})}, audit)

	rec := call(router, http.MethodPost, "/api/inscripciones/e-1/matricular", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string `json:"message"`
		Data    struct {
			AccessCode string `json:"codigoAccesoTemporal"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "K7Q2M9XZ", body.Data.AccessCode)
	assert.Equal(t, "Estudiante matriculado exitosamente.", body.Message)
	assert.Equal(t, "u1", actor)
	assert.Empty(t, audit.entries)
}

func TestMatriculateSurfacesBusinessRules(t *testing.T) {
	enrollments := &fakeEnrollmentService{matriculate: func(string, string) (*models.Matriculation, error) {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "No hay cupos disponibles")
	}}
	router := apiRouter(t, Handlers{Enrollments: NewEnrollmentHandler(enrollments, &fakeExports{})}, &recordedAudit{})

	rec := call(router, http.MethodPost, "/api/inscripciones/e-1/matricular", "admin", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No hay cupos disponibles")
	assert.Contains(t, rec.Body.String(), appErrors.ErrBusinessRule.Code)
}

func TestExportStreamsAttachment(t *testing.T) {
	exports := &fakeExports{}
	router := apiRouter(t, Handlers{Enrollments: NewEnrollmentHandler(&fakeEnrollmentService{}, exports)}, &recordedAudit{})

	rec := call(router, http.MethodGet, "/api/inscripciones/exportar", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exports.format)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inscripciones_20240101.csv")
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestPublicEnrollmentNeedsNoToken(t *testing.T) {
	router := apiRouter(t, Handlers{Enrollments: NewEnrollmentHandler(&fakeEnrollmentService{}, &fakeExports{})}, &recordedAudit{})

	rec := call(router, http.MethodPost, "/api/inscripciones", "", `{"nombreCompleto":"Ana Gómez"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = call(router, http.MethodPost, "/api/inscripciones", "", `{"nombreCompleto":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrValidation.Code)
}

func TestStudentRouteRejectsStaff(t *testing.T) {
	router := apiRouter(t, Handlers{Auth: NewAuthHandler(&fakeAuthService{})}, &recordedAudit{})

	assert.Equal(t, http.StatusForbidden, call(router, http.MethodGet, "/api/estudiantes/perfil", "admin", "").Code)
	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/api/estudiantes/perfil", "student", "").Code)
	assert.Equal(t, http.StatusForbidden, call(router, http.MethodGet, "/api/usuarios/perfil", "student", "").Code)
	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/api/usuarios/perfil", "editor", "").Code)
}

var _ middleware.Authenticator = stubAuthenticator{}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
)

type auditSink struct {
	entries []*models.AuditLog
	err     error
}

func (s *auditSink) Create(_ context.Context, log *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, log)
	return nil
}

func auditedRouter(sink *auditSink, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	withPrincipal := func(c *gin.Context) {
		c.Set(ContextPrincipalKey, &models.Principal{ID: "u1", Kind: models.PrincipalUser, Role: models.RoleAdmin})
		c.Next()
	}
	router.DELETE("/api/estudiantes/:id", withPrincipal, Audit(sink, nil, models.AuditActionDelete, "estudiantes"), func(c *gin.Context) {
		c.Status(status)
	})
	return router
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	sink := &auditSink{}
	router := auditedRouter(sink, http.StatusOK)

	req := httptest.NewRequest(http.MethodDelete, "/api/estudiantes/s-42", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, models.AuditActionDelete, entry.Action)
	assert.Equal(t, "estudiantes", entry.Resource)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "s-42", *entry.ResourceID)
	require.NotNil(t, entry.PrincipalID)
	assert.Equal(t, "u1", *entry.PrincipalID)
	assert.Equal(t, "user", entry.PrincipalKind)
	assert.Equal(t, "/api/estudiantes/:id", entry.Path)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, "curl/8.0", entry.UserAgent)
	assert.Contains(t, string(entry.Details), `"method":"DELETE"`)
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	sink := &auditSink{}
	router := auditedRouter(sink, http.StatusNotFound)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/estudiantes/s-42", nil))
	assert.Empty(t, sink.entries)
}

func TestAuditFailureDoesNotChangeResponse(t *testing.T) {
	sink := &auditSink{err: errors.New("db down")}
	router := auditedRouter(sink, http.StatusNoContent)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/estudiantes/s-42", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

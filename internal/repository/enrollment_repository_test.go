package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
)

var enrollmentRowColumns = []string{
	"id", "full_name", "document.type", "document.number", "email", "phone", "birth_date", "gender",
	"address.street", "address.city", "address.department",
	"program_id", "program_name", "preferred_schedule", "education_level", "currently_working",
	"current_company", "motivation", "referral",
	"emergency.name", "emergency.relation", "emergency.phone",
	"status", "priority", "submitted_at", "reviewed_at", "responded_at", "matriculated_at",
	"admin_notes", "rejection_reason", "reviewed_by", "student_id", "active", "created_at", "updated_at",
}

func enrollmentRow(rows *sqlmock.Rows, id string, status models.EnrollmentStatus, studentID interface{}) *sqlmock.Rows {
	now := time.Now()
	birth := time.Date(2000, 3, 14, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "María José Pérez Gil", "CC", "1144000111", "maria@example.com", "3001234567", birth, "Femenino",
		"Cra 1", "Cali", "Valle del Cauca",
		"p1", "Auxiliar de Enfermería", "Diurna", "Bachiller", false,
		"", "Quiero trabajar en salud", "Redes sociales",
		"Rosa Gil", "Madre", "3000000000",
		string(status), "media", now, nil, nil, nil,
		"", "", nil, studentID, true, now, now)
}

func TestFindEnrollmentMapsNestedColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments e JOIN programs p ON p.id = e.program_id WHERE e.id = $1 LIMIT 1")).
		WithArgs("e1").
		WillReturnRows(enrollmentRow(sqlmock.NewRows(enrollmentRowColumns), "e1", models.EnrollmentPending, nil))

	e, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentCC, e.Document.Type)
	assert.Equal(t, "1144000111", e.Document.Number)
	assert.Equal(t, "Cali", e.Address.City)
	assert.Equal(t, "Rosa Gil", e.EmergencyContact.Name)
	assert.Equal(t, "Auxiliar de Enfermería", e.ProgramName)
	assert.False(t, e.Matriculated())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasOpenApplication(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM enrollments WHERE active AND status = ANY($3)")).
		WithArgs("1144000111", "maria@example.com", `{"pendiente","en_revision","aprobado"}`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasOpenApplication(context.Background(), "1144000111", "maria@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEnrollmentStatusIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2")).
		WithArgs("e1", models.EnrollmentPending, models.EnrollmentApproved, "ok", "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := &models.Enrollment{ID: "e1", Status: models.EnrollmentApproved, AdminNotes: "ok"}
	err := repo.UpdateStatus(context.Background(), e, models.EnrollmentPending)
	assert.ErrorIs(t, err, ErrNotApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentStatsFillsEveryStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM enrollments GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pendiente", 4).AddRow("aprobado", 2))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY e.program_id, p.name")).
		WillReturnRows(sqlmock.NewRows([]string{"program_id", "program_name", "count"}).AddRow("p1", "Enfermería", 6))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 4, stats.ByStatus[models.EnrollmentPending])
	assert.Equal(t, 0, stats.ByStatus[models.EnrollmentCancelled])
	assert.Len(t, stats.ByStatus, len(models.EnrollmentStatuses))
	require.Len(t, stats.ByProgram, 1)
	assert.Equal(t, "Enfermería", stats.ByProgram[0].ProgramName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchEnrollmentsEscapesTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.active AND (e.full_name ILIKE $1 OR e.email ILIKE $1 OR e.document_number ILIKE $1) ORDER BY e.submitted_at DESC LIMIT 20")).
		WithArgs(`%100\%%`).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns))

	items, err := repo.Search(context.Background(), "100%")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMatriculatedEnrollmentIsNotApplied(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, active = FALSE")).
		WithArgs("e1", models.EnrollmentCancelled, sqlmock.AnyArg(), models.EnrollmentMatriculated).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Cancel(context.Background(), "e1"), ErrNotApplied)
}

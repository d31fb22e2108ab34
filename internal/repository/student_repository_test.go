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

var studentRowColumns = []string{
	"id", "first_name", "last_name", "document.type", "document.number", "email", "phone", "birth_date", "gender",
	"address.street", "address.city", "address.department", "address.postal_code",
	"program_id", "program_name", "student_code", "access_code_hash", "status", "schedule",
	"enrolled_at", "start_date", "graduated_at",
	"emergency.name", "emergency.relation", "emergency.phone",
	"photo", "notes", "active", "last_access", "created_by", "updated_by", "created_at", "updated_at",
}

func TestFindStudentByCodeUpperCases(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(studentRowColumns).AddRow(
		"s1", "María", "Pérez", "CC", "1144000111", "maria@example.com", "300", nil, "Femenino",
		"", "Cali", "Valle del Cauca", "",
		"p1", "Auxiliar de Enfermería", "EST20260001", "$2a$10$hash", "activo", "Diurna",
		now, now, nil,
		"Rosa", "Madre", "301",
		"", "", true, nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.student_code = $1 LIMIT 1")).
		WithArgs("EST20260001").
		WillReturnRows(rows)

	student, err := repo.FindByCode(context.Background(), " est20260001 ")
	require.NoError(t, err)
	assert.Equal(t, "Auxiliar de Enfermería", student.ProgramName)
	assert.Equal(t, "$2a$10$hash", student.AccessCodeHash)
	assert.True(t, student.CanSignIn())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudentsFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.status = $1 AND s.schedule = $2 ORDER BY s.enrolled_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.StudentGraduated, "Nocturna").
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE s.status = $1 AND s.schedule = $2")).
		WithArgs(models.StudentGraduated, "Nocturna").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.StudentFilter{Status: models.StudentGraduated, Schedule: "Nocturna", PageQuery: models.PageQuery{Page: 1, Limit: 20}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateStudentSetsInactiveStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET active = FALSE, status = $2")).
		WithArgs("s1", models.StudentInactive, "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "s1", "admin-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
)

const lockEnrollmentPattern = `FROM enrollments e JOIN programs p ON p.id = e.program_id WHERE e.id = \$1 FOR UPDATE OF e`

func TestMatriculateCreatesStudentAndConsumesSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(lockEnrollmentPattern).
		WithArgs("e1").
		WillReturnRows(enrollmentRow(sqlmock.NewRows(enrollmentRowColumns), "e1", models.EnrollmentApproved, nil))
	mock.ExpectExec(regexp.QuoteMeta(reserveSeatQuery)).
		WithArgs("p1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(studentCodeLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, matriculated_at = $3, student_id = $4")).
		WithArgs("e1", models.EnrollmentMatriculated, now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student, err := repo.Matriculate(context.Background(), "e1", AdmissionRequest{AccessCodeHash: "hash", ActorID: "admin-1", Now: now})
	require.NoError(t, err)
	assert.Equal(t, "EST20260042", student.StudentCode)
	assert.Equal(t, "María", student.FirstName)
	assert.Equal(t, "José Pérez Gil", student.LastName)
	assert.Equal(t, "hash", student.AccessCodeHash)
	assert.Equal(t, models.StudentActive, student.Status)
	assert.Equal(t, "Auxiliar de Enfermería", student.ProgramName)
	require.NotNil(t, student.CreatedBy)
	assert.Equal(t, "admin-1", *student.CreatedBy)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatriculateRequiresApproval(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockEnrollmentPattern).
		WithArgs("e1").
		WillReturnRows(enrollmentRow(sqlmock.NewRows(enrollmentRowColumns), "e1", models.EnrollmentInReview, nil))
	mock.ExpectRollback()

	_, err := repo.Matriculate(context.Background(), "e1", AdmissionRequest{Now: time.Now()})
	assert.ErrorIs(t, err, ErrEnrollmentNotApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatriculateRejectsSecondStudent(t *testing.T) {
	tests := []struct {
		name      string
		status    models.EnrollmentStatus
		studentID interface{}
	}{
		{name: "matriculated row", status: models.EnrollmentMatriculated, studentID: "s1"},
		{name: "status without link", status: models.EnrollmentMatriculated, studentID: nil},
		{name: "link without status", status: models.EnrollmentApproved, studentID: "s1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()
			repo := NewAdmissionRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(lockEnrollmentPattern).
				WithArgs("e1").
				WillReturnRows(enrollmentRow(sqlmock.NewRows(enrollmentRowColumns), "e1", tc.status, tc.studentID))
			mock.ExpectRollback()

			_, err := repo.Matriculate(context.Background(), "e1", AdmissionRequest{Now: time.Now()})
			assert.ErrorIs(t, err, ErrAlreadyMatriculated)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMatriculateRollsBackWhenProgramIsFull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockEnrollmentPattern).
		WithArgs("e1").
		WillReturnRows(enrollmentRow(sqlmock.NewRows(enrollmentRowColumns), "e1", models.EnrollmentApproved, nil))
	mock.ExpectExec(regexp.QuoteMeta(reserveSeatQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Matriculate(context.Background(), "e1", AdmissionRequest{Now: time.Now()})
	assert.ErrorIs(t, err, ErrNoSeatsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterSurfacesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(reserveSeatQuery)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO students").WillReturnError(&pq.Error{Code: "23505", Constraint: "students_email_key"})
	mock.ExpectRollback()

	student := &models.Student{FirstName: "Ana", ProgramID: "p1", Email: "ana@example.com"}
	err := repo.Register(context.Background(), student, AdmissionRequest{AccessCodeHash: "hash", Now: time.Now()})
	require.Error(t, err)
	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "students_email_key", constraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatStudentCode(t *testing.T) {
	assert.Equal(t, "EST20260001", FormatStudentCode(2026, 1))
	assert.Equal(t, "EST202512345", FormatStudentCode(2025, 12345))
}

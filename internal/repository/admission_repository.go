package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fundalink/fundalink-api/internal/models"
)

// studentCodeLockKey serialises student-code sequencing across transactions.
const studentCodeLockKey int64 = 0x46554e44414c4b // "FUNDALK"

var (
	// ErrEnrollmentNotApproved is returned when matriculating an application that is not approved.
	ErrEnrollmentNotApproved = errors.New("enrollment is not approved")
	// ErrAlreadyMatriculated is returned when the application already produced a student.
	ErrAlreadyMatriculated = errors.New("enrollment already matriculated")
	// ErrNoSeatsAvailable is returned when the conditional seat reservation matched no program.
	ErrNoSeatsAvailable = errors.New("no seats available")
)

// AdmissionRequest carries what the caller decides for a new student.
type AdmissionRequest struct {
	AccessCodeHash string
	ActorID        string
	Now            time.Time
}

// AdmissionRepository turns applications and direct registrations into students,
// consuming a program seat in the same transaction.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// Matriculate converts an approved application into a student. Every write is rolled
// back when any step fails. sql.ErrNoRows is returned for an unknown application.
func (r *AdmissionRepository) Matriculate(ctx context.Context, enrollmentID string, req AdmissionRequest) (student *models.Student, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin matriculation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var enrollment models.Enrollment
	lockQuery := `SELECT ` + enrollmentColumns + ` ` + enrollmentFrom + ` WHERE e.id = $1 FOR UPDATE OF e`
	if err = tx.GetContext(ctx, &enrollment, lockQuery, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}

	if enrollment.Matriculated() || enrollment.Status == models.EnrollmentMatriculated {
		err = ErrAlreadyMatriculated
		return nil, err
	}
	if enrollment.Status != models.EnrollmentApproved {
		err = ErrEnrollmentNotApproved
		return nil, err
	}

	student = enrollment.ToStudent(req.Now)
	student.StartDate = &req.Now
	student.ProgramName = enrollment.ProgramName
	if err = r.admit(ctx, tx, student, req); err != nil {
		return nil, err
	}

	const markQuery = `UPDATE enrollments SET status = $2, matriculated_at = $3, student_id = $4, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, markQuery, enrollment.ID, models.EnrollmentMatriculated, req.Now, student.ID); err != nil {
		return nil, fmt.Errorf("mark enrollment matriculated: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit matriculation: %w", err)
	}
	return student, nil
}

// Register inserts a student created directly by staff, consuming a seat.
func (r *AdmissionRepository) Register(ctx context.Context, student *models.Student, req AdmissionRequest) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.admit(ctx, tx, student, req); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}

// admit reserves the seat, assigns the next student code and inserts the student.
func (r *AdmissionRepository) admit(ctx context.Context, tx *sqlx.Tx, student *models.Student, req AdmissionRequest) error {
	reserved, err := reserveSeat(ctx, tx, student.ProgramID, req.Now)
	if err != nil {
		return err
	}
	if !reserved {
		return ErrNoSeatsAvailable
	}

	code, err := nextStudentCode(ctx, tx, req.Now)
	if err != nil {
		return err
	}

	student.StudentCode = code
	student.AccessCodeHash = req.AccessCodeHash
	if student.Status == "" {
		student.Status = models.StudentActive
	}
	if student.EnrolledAt.IsZero() {
		student.EnrolledAt = req.Now
	}
	student.Active = true
	if req.ActorID != "" {
		actor := req.ActorID
		student.CreatedBy = &actor
		student.UpdatedBy = &actor
	}
	student.CreatedAt = req.Now
	student.UpdatedAt = req.Now

	return insertStudent(ctx, tx, student)
}

// nextStudentCode builds EST<year><4-digit sequence> under a transaction-scoped advisory lock.
func nextStudentCode(ctx context.Context, tx *sqlx.Tx, now time.Time) (string, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, studentCodeLockKey); err != nil {
		return "", fmt.Errorf("lock student code sequence: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return "", fmt.Errorf("count students: %w", err)
	}
	return FormatStudentCode(now.Year(), count+1), nil
}

// FormatStudentCode renders EST<year><seq> with a zero-padded four-digit sequence.
func FormatStudentCode(year, seq int) string {
	return fmt.Sprintf("EST%d%04d", year, seq)
}

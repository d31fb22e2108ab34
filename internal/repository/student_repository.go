package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fundalink/fundalink-api/internal/models"
)

const studentColumns = `s.id, s.first_name, s.last_name, s.document_type AS "document.type", s.document_number AS "document.number",
	s.email, s.phone, s.birth_date, s.gender,
	s.street AS "address.street", s.city AS "address.city", s.department AS "address.department", s.postal_code AS "address.postal_code",
	s.program_id, COALESCE(p.name, '') AS program_name, s.student_code, s.access_code_hash, s.status, s.schedule,
	s.enrolled_at, s.start_date, s.graduated_at,
	s.emergency_name AS "emergency.name", s.emergency_relation AS "emergency.relation", s.emergency_phone AS "emergency.phone",
	s.photo, s.notes, s.active, s.last_access, s.created_by, s.updated_by, s.created_at, s.updated_at`

const studentFrom = `FROM students s LEFT JOIN programs p ON p.id = s.program_id`

const insertStudentQuery = `INSERT INTO students (id, first_name, last_name, document_type, document_number, email, phone, birth_date, gender, street, city, department, postal_code, program_id, student_code, access_code_hash, status, schedule, enrolled_at, start_date, emergency_name, emergency_relation, emergency_phone, photo, notes, active, created_by, updated_by, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :document.type, :document.number, :email, :phone, :birth_date, :gender, :address.street, :address.city, :address.department, :address.postal_code, :program_id, :student_code, :access_code_hash, :status, :schedule, :enrolled_at, :start_date, :emergency.name, :emergency.relation, :emergency.phone, :photo, :notes, :active, :created_by, :updated_by, :created_at, :updated_at)`

// StudentRepository provides database access for students. Inserts happen in AdmissionRepository.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student with the program name.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "s.id = $1", id, "find student by id")
}

// FindByCode returns a student by student code, case-insensitively.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	return r.findOne(ctx, "s.student_code = $1", strings.ToUpper(strings.TrimSpace(code)), "find student by code")
}

func (r *StudentRepository) findOne(ctx context.Context, cond string, arg interface{}, op string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` ` + studentFrom + ` WHERE ` + cond + ` LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &student, nil
}

func studentWhere(filter models.StudentFilter) *where {
	w := &where{}
	if filter.Status != "" {
		w.add("s.status = $%d", filter.Status)
	}
	if filter.ProgramID != "" {
		w.add("s.program_id = $%d", filter.ProgramID)
	}
	if filter.Schedule != "" {
		w.add("s.schedule = $%d", filter.Schedule)
	}
	return w
}

// List returns students by enrollment date, newest first, with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	w := studentWhere(filter)
	listQuery := fmt.Sprintf("SELECT %s %s %s ORDER BY s.enrolled_at DESC LIMIT %d OFFSET %d", studentColumns, studentFrom, w.String(), filter.Limit, filter.Offset())
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListForExport returns every student matching the filter.
func (r *StudentRepository) ListForExport(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	w := studentWhere(filter)
	query := fmt.Sprintf("SELECT %s %s %s ORDER BY s.enrolled_at DESC LIMIT %d", studentColumns, studentFrom, w.String(), maxExportRows)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, w.args...); err != nil {
		return nil, fmt.Errorf("export students: %w", err)
	}
	return students, nil
}

// Search matches names, e-mail, student code and document number.
func (r *StudentRepository) Search(ctx context.Context, term string) ([]models.Student, error) {
	var w where
	w.search(term, "s.first_name", "s.last_name", "s.email", "s.student_code", "s.document_number")
	query := fmt.Sprintf("SELECT %s %s %s ORDER BY s.last_name ASC, s.first_name ASC LIMIT %d", studentColumns, studentFrom, w.String(), SearchLimit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, w.args...); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// Update writes the editable profile. Codes and program stay untouched.
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, document_type = :document.type, document_number = :document.number, email = :email, phone = :phone, birth_date = :birth_date, gender = :gender, street = :address.street, city = :address.city, department = :address.department, postal_code = :address.postal_code, schedule = :schedule, start_date = :start_date, emergency_name = :emergency.name, emergency_relation = :emergency.relation, emergency_phone = :emergency.phone, photo = :photo, notes = :notes, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireRow(res, "update student")
}

// UpdateStatus changes the academic status and graduation date.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id string, status models.StudentStatus, graduatedAt *time.Time, updatedBy string) error {
	const query = `UPDATE students SET status = $2, graduated_at = COALESCE($3, graduated_at), updated_by = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, graduatedAt, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return requireRow(res, "update student status")
}

// UpdateAccessCode replaces the stored access-code hash.
func (r *StudentRepository) UpdateAccessCode(ctx context.Context, id, hash, updatedBy string) error {
	const query = `UPDATE students SET access_code_hash = $2, updated_by = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hash, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student access code: %w", err)
	}
	return requireRow(res, "update student access code")
}

// UpdateLastAccess records a successful sign-in.
func (r *StudentRepository) UpdateLastAccess(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE students SET last_access = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update student last access: %w", err)
	}
	return nil
}

// Deactivate soft deletes a student.
func (r *StudentRepository) Deactivate(ctx context.Context, id, updatedBy string) error {
	const query = `UPDATE students SET active = FALSE, status = $2, updated_by = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StudentInactive, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return requireRow(res, "deactivate student")
}

func insertStudent(ctx context.Context, tx *sqlx.Tx, s *models.Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, err := tx.NamedExecContext(ctx, insertStudentQuery, s); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

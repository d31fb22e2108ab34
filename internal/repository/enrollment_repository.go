package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fundalink/fundalink-api/internal/models"
)

const enrollmentColumns = `e.id, e.full_name, e.document_type AS "document.type", e.document_number AS "document.number",
	e.email, e.phone, e.birth_date, e.gender,
	e.street AS "address.street", e.city AS "address.city", e.department AS "address.department",
	e.program_id, p.name AS program_name, e.preferred_schedule, e.education_level, e.currently_working,
	e.current_company, e.motivation, e.referral,
	e.emergency_name AS "emergency.name", e.emergency_relation AS "emergency.relation", e.emergency_phone AS "emergency.phone",
	e.status, e.priority, e.submitted_at, e.reviewed_at, e.responded_at, e.matriculated_at,
	e.admin_notes, e.rejection_reason, e.reviewed_by, e.student_id, e.active, e.created_at, e.updated_at`

const enrollmentFrom = `FROM enrollments e JOIN programs p ON p.id = e.program_id`

// maxExportRows bounds export queries.
const maxExportRows = 5000

// EnrollmentRepository provides database access for enrollment applications.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts a new application.
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = now
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	const query = `INSERT INTO enrollments (id, full_name, document_type, document_number, email, phone, birth_date, gender, street, city, department, program_id, preferred_schedule, education_level, currently_working, current_company, motivation, referral, emergency_name, emergency_relation, emergency_phone, status, priority, submitted_at, active, created_at, updated_at)
VALUES (:id, :full_name, :document.type, :document.number, :email, :phone, :birth_date, :gender, :address.street, :address.city, :address.department, :program_id, :preferred_schedule, :education_level, :currently_working, :current_company, :motivation, :referral, :emergency.name, :emergency.relation, :emergency.phone, :status, :priority, :submitted_at, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByID returns an application with its program name.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` ` + enrollmentFrom + ` WHERE e.id = $1 LIMIT 1`
	var e models.Enrollment
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &e, nil
}

// HasOpenApplication reports whether an active application in an open state exists
// for the same document number or e-mail.
func (r *EnrollmentRepository) HasOpenApplication(ctx context.Context, documentNumber, email string) (bool, error) {
	statuses := make([]string, len(models.OpenEnrollmentStatuses))
	for i, s := range models.OpenEnrollmentStatuses {
		statuses[i] = string(s)
	}
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE active AND status = ANY($3) AND (document_number = $1 OR LOWER(email) = LOWER($2)))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, documentNumber, email, pq.Array(statuses)); err != nil {
		return false, fmt.Errorf("check open enrollment: %w", err)
	}
	return exists, nil
}

func enrollmentWhere(filter models.EnrollmentFilter) *where {
	w := &where{}
	if filter.Status != "" {
		w.add("e.status = $%d", filter.Status)
	}
	if filter.ProgramID != "" {
		w.add("e.program_id = $%d", filter.ProgramID)
	}
	if filter.Priority != "" {
		w.add("e.priority = $%d", filter.Priority)
	}
	return w
}

// List returns applications newest first with the total count.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	w := enrollmentWhere(filter)
	listQuery := fmt.Sprintf("SELECT %s %s %s ORDER BY e.submitted_at DESC LIMIT %d OFFSET %d", enrollmentColumns, enrollmentFrom, w.String(), filter.Limit, filter.Offset())
	var items []models.Enrollment
	if err := r.db.SelectContext(ctx, &items, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM enrollments e "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return items, total, nil
}

// ListForExport returns every application matching the filter, newest first.
func (r *EnrollmentRepository) ListForExport(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	w := enrollmentWhere(filter)
	query := fmt.Sprintf("SELECT %s %s %s ORDER BY e.submitted_at DESC LIMIT %d", enrollmentColumns, enrollmentFrom, w.String(), maxExportRows)
	var items []models.Enrollment
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, fmt.Errorf("export enrollments: %w", err)
	}
	return items, nil
}

// Pending returns active pending applications, oldest first.
func (r *EnrollmentRepository) Pending(ctx context.Context) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` ` + enrollmentFrom + ` WHERE e.active AND e.status = $1 ORDER BY e.submitted_at ASC`
	var items []models.Enrollment
	if err := r.db.SelectContext(ctx, &items, query, models.EnrollmentPending); err != nil {
		return nil, fmt.Errorf("list pending enrollments: %w", err)
	}
	return items, nil
}

// Search matches full name, e-mail and document number among active applications.
func (r *EnrollmentRepository) Search(ctx context.Context, term string) ([]models.Enrollment, error) {
	var w where
	w.raw("e.active")
	w.search(term, "e.full_name", "e.email", "e.document_number")
	query := fmt.Sprintf("SELECT %s %s %s ORDER BY e.submitted_at DESC LIMIT %d", enrollmentColumns, enrollmentFrom, w.String(), SearchLimit)
	var items []models.Enrollment
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, fmt.Errorf("search enrollments: %w", err)
	}
	return items, nil
}

// Stats counts applications per status and per program.
func (r *EnrollmentRepository) Stats(ctx context.Context) (*models.EnrollmentStats, error) {
	var byStatus []models.StatusCount
	if err := r.db.SelectContext(ctx, &byStatus, `SELECT status, COUNT(*) AS count FROM enrollments GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count enrollments by status: %w", err)
	}

	var byProgram []models.ProgramEnrollmentCount
	const programQuery = `SELECT e.program_id, p.name AS program_name, COUNT(*) AS count FROM enrollments e JOIN programs p ON p.id = e.program_id GROUP BY e.program_id, p.name ORDER BY count DESC`
	if err := r.db.SelectContext(ctx, &byProgram, programQuery); err != nil {
		return nil, fmt.Errorf("count enrollments by program: %w", err)
	}

	stats := &models.EnrollmentStats{
		ByStatus:  make(map[models.EnrollmentStatus]int, len(models.EnrollmentStatuses)),
		ByProgram: byProgram,
	}
	for _, s := range models.EnrollmentStatuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range byStatus {
		stats.ByStatus[models.EnrollmentStatus(row.Status)] = row.Count
		stats.Total += row.Count
	}
	if stats.ByProgram == nil {
		stats.ByProgram = []models.ProgramEnrollmentCount{}
	}
	return stats, nil
}

// UpdateStatus writes the review outcome only while the status is still prev.
// A concurrent change yields ErrNotApplied.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, e *models.Enrollment, prev models.EnrollmentStatus) error {
	e.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET status = $3, admin_notes = $4, rejection_reason = $5, reviewed_by = $6, reviewed_at = $7, responded_at = $8, updated_at = $9 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, e.ID, prev, e.Status, e.AdminNotes, e.RejectionReason, e.ReviewedBy, e.ReviewedAt, e.RespondedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return rowsAffected(res, "update enrollment status")
}

// UpdatePriority sets the triage priority.
func (r *EnrollmentRepository) UpdatePriority(ctx context.Context, id string, priority models.Priority) error {
	const query = `UPDATE enrollments SET priority = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, priority, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update enrollment priority: %w", err)
	}
	return requireRow(res, "update enrollment priority")
}

// Cancel marks an application cancelled and inactive unless it was matriculated.
func (r *EnrollmentRepository) Cancel(ctx context.Context, id string) error {
	const query = `UPDATE enrollments SET status = $2, active = FALSE, updated_at = $3 WHERE id = $1 AND status <> $4`
	res, err := r.db.ExecContext(ctx, query, id, models.EnrollmentCancelled, time.Now().UTC(), models.EnrollmentMatriculated)
	if err != nil {
		return fmt.Errorf("cancel enrollment: %w", err)
	}
	return rowsAffected(res, "cancel enrollment")
}

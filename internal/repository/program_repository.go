package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fundalink/fundalink-api/internal/models"
)

const programColumns = `id, name, code, description,
	duration_value AS "duration.value", duration_unit AS "duration.unit",
	modality, schedule, requirements, objectives, graduate_profile, competencies, job_field, subjects, image,
	enrollment_fee AS "costs.enrollment_fee", monthly_fee AS "costs.monthly_fee",
	total_cost AS "costs.total_cost", currency AS "costs.currency",
	enrollment_open AS "enrollment.open", seats_available AS "enrollment.seats_available",
	seats_taken AS "enrollment.seats_taken", enrollment_start AS "enrollment.starts_at",
	enrollment_end AS "enrollment.ends_at",
	active, featured, sort_order, created_by, updated_by, created_at, updated_at`

// reserveSeatQuery consumes one seat only when the program is active and not full.
const reserveSeatQuery = `UPDATE programs SET seats_taken = seats_taken + 1, updated_at = $2 WHERE id = $1 AND active AND (seats_available IS NULL OR seats_taken < seats_available)`

// ProgramRepository provides database access for programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// List returns programs matching the filter with the total count.
// Public listings sort by display order, staff listings by recency.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error) {
	var w where
	if filter.PublicOnly {
		w.raw("active")
	} else if filter.Active != nil {
		w.add("active = $%d", *filter.Active)
	}
	if filter.Modality != "" {
		w.add("modality = $%d", filter.Modality)
	}
	if filter.Featured != nil {
		w.add("featured = $%d", *filter.Featured)
	}
	if filter.Available != nil {
		w.add("enrollment_open = $%d", *filter.Available)
	}

	order := "created_at DESC"
	if filter.PublicOnly {
		order = "sort_order ASC, name ASC"
	}

	listQuery := fmt.Sprintf("SELECT %s FROM programs %s ORDER BY %s LIMIT %d OFFSET %d", programColumns, w.String(), order, filter.Limit, filter.Offset())
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM programs "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	return programs, total, nil
}

// ListOpen returns active programs accepting applications that still have seats.
func (r *ProgramRepository) ListOpen(ctx context.Context) ([]models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE active AND enrollment_open AND (seats_available IS NULL OR seats_taken < seats_available) ORDER BY sort_order ASC, name ASC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list open programs: %w", err)
	}
	return programs, nil
}

// FindByID returns a program regardless of its active flag.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	return r.findOne(ctx, "id = $1", id, "find program by id")
}

// FindByCode returns a program by its upper-cased code.
func (r *ProgramRepository) FindByCode(ctx context.Context, code string) (*models.Program, error) {
	return r.findOne(ctx, "code = $1", strings.ToUpper(code), "find program by code")
}

func (r *ProgramRepository) findOne(ctx context.Context, cond string, arg interface{}, op string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE ` + cond + ` LIMIT 1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &program, nil
}

// Create inserts a program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	normalizeProgramLists(program)

	const query = `INSERT INTO programs (id, name, code, description, duration_value, duration_unit, modality, schedule, requirements, objectives, graduate_profile, competencies, job_field, subjects, image, enrollment_fee, monthly_fee, total_cost, currency, enrollment_open, seats_available, seats_taken, enrollment_start, enrollment_end, active, featured, sort_order, created_by, updated_by, created_at, updated_at)
VALUES (:id, :name, :code, :description, :duration.value, :duration.unit, :modality, :schedule, :requirements, :objectives, :graduate_profile, :competencies, :job_field, :subjects, :image, :costs.enrollment_fee, :costs.monthly_fee, :costs.total_cost, :costs.currency, :enrollment.open, :enrollment.seats_available, :enrollment.seats_taken, :enrollment.starts_at, :enrollment.ends_at, :active, :featured, :sort_order, :created_by, :updated_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update writes every editable field. Seats taken is never touched here and the
// capacity guard rejects shrinking below it with ErrNotApplied.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	normalizeProgramLists(program)

	const query = `UPDATE programs SET name = :name, code = :code, description = :description, duration_value = :duration.value, duration_unit = :duration.unit, modality = :modality, schedule = :schedule, requirements = :requirements, objectives = :objectives, graduate_profile = :graduate_profile, competencies = :competencies, job_field = :job_field, subjects = :subjects, image = :image, enrollment_fee = :costs.enrollment_fee, monthly_fee = :costs.monthly_fee, total_cost = :costs.total_cost, currency = :costs.currency, enrollment_open = :enrollment.open, seats_available = :enrollment.seats_available, enrollment_start = :enrollment.starts_at, enrollment_end = :enrollment.ends_at, active = :active, featured = :featured, sort_order = :sort_order, updated_by = :updated_by, updated_at = :updated_at
WHERE id = :id AND (CAST(:enrollment.seats_available AS INTEGER) IS NULL OR seats_taken <= :enrollment.seats_available)`
	res, err := r.db.NamedExecContext(ctx, query, program)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return rowsAffected(res, "update program")
}

// SetFeatured toggles the featured flag.
func (r *ProgramRepository) SetFeatured(ctx context.Context, id string, featured bool, updatedBy string) error {
	const query = `UPDATE programs SET featured = $2, updated_by = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, featured, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set program featured: %w", err)
	}
	return requireRow(res, "set program featured")
}

// SetAvailability opens or closes enrollment and optionally changes capacity.
// A capacity below the seats already taken yields ErrNotApplied.
func (r *ProgramRepository) SetAvailability(ctx context.Context, id string, open bool, seats *int, setSeats bool, updatedBy string) error {
	const query = `UPDATE programs SET enrollment_open = $2,
	seats_available = CASE WHEN $3 THEN $4::INTEGER ELSE seats_available END,
	updated_by = $5, updated_at = $6
WHERE id = $1 AND (NOT $3 OR $4::INTEGER IS NULL OR seats_taken <= $4::INTEGER)`
	res, err := r.db.ExecContext(ctx, query, id, open, setSeats, seats, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set program availability: %w", err)
	}
	return rowsAffected(res, "set program availability")
}

// Deactivate soft deletes a program.
func (r *ProgramRepository) Deactivate(ctx context.Context, id, updatedBy string) error {
	const query = `UPDATE programs SET active = FALSE, updated_by = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate program: %w", err)
	}
	return requireRow(res, "deactivate program")
}

// Search matches name, code and description.
func (r *ProgramRepository) Search(ctx context.Context, term string) ([]models.Program, error) {
	var w where
	w.raw("active")
	w.search(term, "name", "code", "description")
	query := fmt.Sprintf("SELECT %s FROM programs %s ORDER BY sort_order ASC, name ASC LIMIT %d", programColumns, w.String(), SearchLimit)
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, w.args...); err != nil {
		return nil, fmt.Errorf("search programs: %w", err)
	}
	return programs, nil
}

// reserveSeat runs the conditional seat increment inside tx. No affected row means no seat.
func reserveSeat(ctx context.Context, tx *sqlx.Tx, programID string, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, reserveSeatQuery, programID, now)
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seat rows affected: %w", err)
	}
	return n == 1, nil
}

func normalizeProgramLists(p *models.Program) {
	if p.Requirements == nil {
		p.Requirements = pq.StringArray{}
	}
	if p.Competencies == nil {
		p.Competencies = pq.StringArray{}
	}
	if p.Subjects == nil {
		p.Subjects = pq.StringArray{}
	}
}

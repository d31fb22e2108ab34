package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fundalink/fundalink-api/internal/models"
)

const testimonialColumns = `id, first_name, last_name, email, photo, body, program, cohort, occupation, company, rating, featured, approved, active, published_at, approved_by, approved_at, created_at, updated_at`

// TestimonialRepository provides database access for testimonials.
type TestimonialRepository struct {
	db *sqlx.DB
}

// NewTestimonialRepository constructs the repository.
func NewTestimonialRepository(db *sqlx.DB) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

// List returns testimonials with the total count. Public listings show approved and
// active entries by publication date; staff listings show everything by recency.
func (r *TestimonialRepository) List(ctx context.Context, filter models.TestimonialFilter) ([]models.Testimonial, int, error) {
	var w where
	if filter.PublicOnly {
		w.raw("approved AND active")
	} else {
		if filter.Approved != nil {
			w.add("approved = $%d", *filter.Approved)
		}
		if filter.Active != nil {
			w.add("active = $%d", *filter.Active)
		}
	}
	if filter.Featured != nil {
		w.add("featured = $%d", *filter.Featured)
	}
	if filter.Program != "" {
		w.add("program = $%d", filter.Program)
	}

	order := "created_at DESC"
	if filter.PublicOnly {
		order = "published_at DESC NULLS LAST"
	}

	listQuery := fmt.Sprintf("SELECT %s FROM testimonials %s ORDER BY %s LIMIT %d OFFSET %d", testimonialColumns, w.String(), order, filter.Limit, filter.Offset())
	var items []models.Testimonial
	if err := r.db.SelectContext(ctx, &items, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list testimonials: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM testimonials "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count testimonials: %w", err)
	}
	return items, total, nil
}

// Pending returns active testimonials awaiting approval, newest first.
func (r *TestimonialRepository) Pending(ctx context.Context) ([]models.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials WHERE NOT approved AND active ORDER BY created_at DESC`
	var items []models.Testimonial
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list pending testimonials: %w", err)
	}
	return items, nil
}

// FindByID returns a testimonial regardless of its state.
func (r *TestimonialRepository) FindByID(ctx context.Context, id string) (*models.Testimonial, error) {
	return r.returning(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1 LIMIT 1`, "find testimonial", id)
}

// Create inserts a testimonial.
func (r *TestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	const query = `INSERT INTO testimonials (id, first_name, last_name, email, photo, body, program, cohort, occupation, company, rating, featured, approved, active, published_at, created_at, updated_at) VALUES (:id, :first_name, :last_name, :email, :photo, :body, :program, :cohort, :occupation, :company, :rating, :featured, :approved, :active, :published_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("create testimonial: %w", err)
	}
	return nil
}

// Update writes the editable content. Moderation fields change through Approve and Reject.
func (r *TestimonialRepository) Update(ctx context.Context, t *models.Testimonial) error {
	t.UpdatedAt = time.Now().UTC()
	const query = `UPDATE testimonials SET first_name = :first_name, last_name = :last_name, email = :email, photo = :photo, body = :body, program = :program, cohort = :cohort, occupation = :occupation, company = :company, rating = :rating, featured = :featured, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return fmt.Errorf("update testimonial: %w", err)
	}
	return requireRow(res, "update testimonial")
}

// Approve publishes a testimonial.
func (r *TestimonialRepository) Approve(ctx context.Context, id, approvedBy string, at time.Time) (*models.Testimonial, error) {
	query := `UPDATE testimonials SET approved = TRUE, active = TRUE, approved_by = $2, approved_at = $3, published_at = $3, updated_at = $3 WHERE id = $1 RETURNING ` + testimonialColumns
	return r.returning(ctx, query, "approve testimonial", id, approvedBy, at)
}

// Reject hides a testimonial.
func (r *TestimonialRepository) Reject(ctx context.Context, id string) (*models.Testimonial, error) {
	query := `UPDATE testimonials SET approved = FALSE, active = FALSE, updated_at = $2 WHERE id = $1 RETURNING ` + testimonialColumns
	return r.returning(ctx, query, "reject testimonial", id, time.Now().UTC())
}

// SetFeatured toggles the featured flag.
func (r *TestimonialRepository) SetFeatured(ctx context.Context, id string, featured bool) (*models.Testimonial, error) {
	query := `UPDATE testimonials SET featured = $2, updated_at = $3 WHERE id = $1 RETURNING ` + testimonialColumns
	return r.returning(ctx, query, "feature testimonial", id, featured, time.Now().UTC())
}

// Deactivate soft deletes a testimonial.
func (r *TestimonialRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE testimonials SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate testimonial: %w", err)
	}
	return requireRow(res, "deactivate testimonial")
}

func (r *TestimonialRepository) returning(ctx context.Context, query, op string, args ...interface{}) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

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

const faqColumns = `id, question, answer, category, sort_order, active, views, helpful, not_helpful, created_by, updated_by, created_at, updated_at`

const topViewedFAQs = 10

// FAQRepository provides database access for FAQs.
type FAQRepository struct {
	db *sqlx.DB
}

// NewFAQRepository constructs the repository.
func NewFAQRepository(db *sqlx.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

// ListPublic returns every active FAQ, optionally of one category, by display order.
func (r *FAQRepository) ListPublic(ctx context.Context, category string) ([]models.FAQ, error) {
	var w where
	w.raw("active")
	if category != "" {
		w.add("category = $%d", category)
	}
	query := fmt.Sprintf("SELECT %s FROM faqs %s ORDER BY sort_order ASC, created_at ASC", faqColumns, w.String())
	var faqs []models.FAQ
	if err := r.db.SelectContext(ctx, &faqs, query, w.args...); err != nil {
		return nil, fmt.Errorf("list public faqs: %w", err)
	}
	return faqs, nil
}

// List returns FAQs for staff, including inactive ones unless filtered.
func (r *FAQRepository) List(ctx context.Context, filter models.FAQFilter) ([]models.FAQ, int, error) {
	var w where
	if filter.PublicOnly {
		w.raw("active")
	} else if filter.Active != nil {
		w.add("active = $%d", *filter.Active)
	}
	if filter.Category != "" {
		w.add("category = $%d", filter.Category)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM faqs %s ORDER BY sort_order ASC, created_at DESC LIMIT %d OFFSET %d", faqColumns, w.String(), filter.Limit, filter.Offset())
	var faqs []models.FAQ
	if err := r.db.SelectContext(ctx, &faqs, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list faqs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM faqs "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count faqs: %w", err)
	}
	return faqs, total, nil
}

// Search matches question and answer among active FAQs.
func (r *FAQRepository) Search(ctx context.Context, term string) ([]models.FAQ, error) {
	var w where
	w.raw("active")
	w.search(term, "question", "answer")
	query := fmt.Sprintf("SELECT %s FROM faqs %s ORDER BY sort_order ASC, created_at ASC LIMIT %d", faqColumns, w.String(), SearchLimit)
	var faqs []models.FAQ
	if err := r.db.SelectContext(ctx, &faqs, query, w.args...); err != nil {
		return nil, fmt.Errorf("search faqs: %w", err)
	}
	return faqs, nil
}

// FindByID returns a FAQ regardless of its active flag.
func (r *FAQRepository) FindByID(ctx context.Context, id string) (*models.FAQ, error) {
	return r.returning(ctx, `SELECT `+faqColumns+` FROM faqs WHERE id = $1 LIMIT 1`, "find faq", id)
}

// View increments the view counter of an active FAQ and returns it.
func (r *FAQRepository) View(ctx context.Context, id string) (*models.FAQ, error) {
	query := `UPDATE faqs SET views = views + 1 WHERE id = $1 AND active RETURNING ` + faqColumns
	return r.returning(ctx, query, "view faq", id)
}

// Vote increments helpful or not-helpful atomically on an active FAQ.
func (r *FAQRepository) Vote(ctx context.Context, id string, helpful bool) (*models.FAQ, error) {
	query := `UPDATE faqs SET helpful = helpful + CASE WHEN $2 THEN 1 ELSE 0 END, not_helpful = not_helpful + CASE WHEN $2 THEN 0 ELSE 1 END WHERE id = $1 AND active RETURNING ` + faqColumns
	return r.returning(ctx, query, "vote faq", id, helpful)
}

// Toggle flips the active flag and returns the updated FAQ.
func (r *FAQRepository) Toggle(ctx context.Context, id, updatedBy string) (*models.FAQ, error) {
	query := `UPDATE faqs SET active = NOT active, updated_by = $2, updated_at = $3 WHERE id = $1 RETURNING ` + faqColumns
	return r.returning(ctx, query, "toggle faq", id, updatedBy, time.Now().UTC())
}

// SetOrder changes the display order.
func (r *FAQRepository) SetOrder(ctx context.Context, id string, order int, updatedBy string) (*models.FAQ, error) {
	query := `UPDATE faqs SET sort_order = $2, updated_by = $3, updated_at = $4 WHERE id = $1 RETURNING ` + faqColumns
	return r.returning(ctx, query, "order faq", id, order, updatedBy, time.Now().UTC())
}

func (r *FAQRepository) returning(ctx context.Context, query, op string, args ...interface{}) (*models.FAQ, error) {
	var faq models.FAQ
	if err := r.db.GetContext(ctx, &faq, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &faq, nil
}

// Create inserts a FAQ.
func (r *FAQRepository) Create(ctx context.Context, faq *models.FAQ) error {
	if faq.ID == "" {
		faq.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	faq.CreatedAt = now
	faq.UpdatedAt = now

	const query = `INSERT INTO faqs (id, question, answer, category, sort_order, active, created_by, updated_by, created_at, updated_at) VALUES (:id, :question, :answer, :category, :sort_order, :active, :created_by, :updated_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faq); err != nil {
		return fmt.Errorf("create faq: %w", err)
	}
	return nil
}

// Update writes the editable fields. Counters are left alone.
func (r *FAQRepository) Update(ctx context.Context, faq *models.FAQ) error {
	faq.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faqs SET question = :question, answer = :answer, category = :category, sort_order = :sort_order, active = :active, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, faq)
	if err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	return requireRow(res, "update faq")
}

// Deactivate soft deletes a FAQ.
func (r *FAQRepository) Deactivate(ctx context.Context, id, updatedBy string) error {
	const query = `UPDATE faqs SET active = FALSE, updated_by = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate faq: %w", err)
	}
	return requireRow(res, "deactivate faq")
}

// Stats counts FAQs overall, active ones per category, and the most viewed.
func (r *FAQRepository) Stats(ctx context.Context) (*models.FAQStats, error) {
	stats := &models.FAQStats{ByCategory: make(map[string]int)}

	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE active) AS active FROM faqs`
	var totals struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	if err := r.db.GetContext(ctx, &totals, totalsQuery); err != nil {
		return nil, fmt.Errorf("count faqs: %w", err)
	}
	stats.Total = totals.Total
	stats.Active = totals.Active

	var byCategory []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &byCategory, `SELECT category, COUNT(*) AS count FROM faqs WHERE active GROUP BY category`); err != nil {
		return nil, fmt.Errorf("count faqs by category: %w", err)
	}
	for _, row := range byCategory {
		stats.ByCategory[row.Category] = row.Count
	}

	topQuery := fmt.Sprintf("SELECT %s FROM faqs WHERE active ORDER BY views DESC LIMIT %d", faqColumns, topViewedFAQs)
	if err := r.db.SelectContext(ctx, &stats.TopViewed, topQuery); err != nil {
		return nil, fmt.Errorf("top viewed faqs: %w", err)
	}
	if stats.TopViewed == nil {
		stats.TopViewed = []models.FAQ{}
	}
	return stats, nil
}

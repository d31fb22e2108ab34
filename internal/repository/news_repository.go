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

const newsColumns = `id, title, content, image, author, category, featured, active, published_at, created_by, updated_by, created_at, updated_at`

// NewsRepository provides database access for news articles.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository constructs the repository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// List returns active articles, newest publication first.
func (r *NewsRepository) List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error) {
	var w where
	w.raw("active")
	if filter.Category != "" {
		w.add("category = $%d", filter.Category)
	}
	if filter.Featured != nil {
		w.add("featured = $%d", *filter.Featured)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM news %s ORDER BY published_at DESC LIMIT %d OFFSET %d", newsColumns, w.String(), filter.Limit, filter.Offset())
	var items []models.News
	if err := r.db.SelectContext(ctx, &items, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM news "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}
	return items, total, nil
}

// FindByID returns an article regardless of its active flag.
func (r *NewsRepository) FindByID(ctx context.Context, id string) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE id = $1 LIMIT 1`
	var item models.News
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find news: %w", err)
	}
	return &item, nil
}

// Create inserts an article.
func (r *NewsRepository) Create(ctx context.Context, item *models.News) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.PublishedAt.IsZero() {
		item.PublishedAt = now
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	const query = `INSERT INTO news (id, title, content, image, author, category, featured, active, published_at, created_by, updated_by, created_at, updated_at) VALUES (:id, :title, :content, :image, :author, :category, :featured, :active, :published_at, :created_by, :updated_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// Update writes the editable fields.
func (r *NewsRepository) Update(ctx context.Context, item *models.News) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE news SET title = :title, content = :content, image = :image, author = :author, category = :category, featured = :featured, active = :active, published_at = :published_at, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return requireRow(res, "update news")
}

// Deactivate soft deletes an article.
func (r *NewsRepository) Deactivate(ctx context.Context, id, updatedBy string) error {
	const query = `UPDATE news SET active = FALSE, updated_by = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate news: %w", err)
	}
	return requireRow(res, "deactivate news")
}

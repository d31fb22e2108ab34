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

const eventColumns = `id, name, description, event_date, start_time, end_time, location, image, type, max_capacity, registered_count, requires_registration, featured, active, organizer, created_by, updated_by, created_at, updated_at`

// EventRepository provides database access for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns active events by date with the total count.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter, now time.Time) ([]models.Event, int, error) {
	var w where
	w.raw("active")
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.Featured != nil {
		w.add("featured = $%d", *filter.Featured)
	}
	if filter.Upcoming {
		w.add("event_date >= $%d", now)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM events %s ORDER BY event_date ASC LIMIT %d OFFSET %d", eventColumns, w.String(), filter.Limit, filter.Offset())
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event regardless of its active flag.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 LIMIT 1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, name, description, event_date, start_time, end_time, location, image, type, max_capacity, registered_count, requires_registration, featured, active, organizer, created_by, updated_by, created_at, updated_at)
VALUES (:id, :name, :description, :event_date, :start_time, :end_time, :location, :image, :type, :max_capacity, :registered_count, :requires_registration, :featured, :active, :organizer, :created_by, :updated_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update writes the editable fields. A capacity below the current sign-ups yields ErrNotApplied.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET name = :name, description = :description, event_date = :event_date, start_time = :start_time, end_time = :end_time, location = :location, image = :image, type = :type, max_capacity = :max_capacity, requires_registration = :requires_registration, featured = :featured, active = :active, organizer = :organizer, updated_by = :updated_by, updated_at = :updated_at
WHERE id = :id AND (CAST(:max_capacity AS INTEGER) IS NULL OR registered_count <= :max_capacity)`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return rowsAffected(res, "update event")
}

// Deactivate soft deletes an event.
func (r *EventRepository) Deactivate(ctx context.Context, id, updatedBy string) error {
	const query = `UPDATE events SET active = FALSE, updated_by = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, updatedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate event: %w", err)
	}
	return requireRow(res, "deactivate event")
}

// SignUp takes one place in a single conditional statement. ErrNotApplied means the
// event is unknown, inactive, closed to sign-ups, past or full.
func (r *EventRepository) SignUp(ctx context.Context, id string, now time.Time) (int, error) {
	const query = `UPDATE events SET registered_count = registered_count + 1, updated_at = $2
WHERE id = $1 AND active AND requires_registration AND event_date >= $2 AND (max_capacity IS NULL OR registered_count < max_capacity)
RETURNING registered_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, now); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotApplied
		}
		return 0, fmt.Errorf("sign up for event: %w", err)
	}
	return count, nil
}

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

const messageColumns = `id, name, email, phone, subject, body, type, is_read, replied, important, archived, reply, replied_by, replied_at, internal_notes, ip_address, user_agent, active, created_at, updated_at`

const (
	maxUnreadMessages = 50
	statsMonths       = 6
)

// MessageRepository provides database access for contact messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a contact message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	const query = `INSERT INTO messages (id, name, email, phone, subject, body, type, ip_address, user_agent, active, created_at, updated_at) VALUES (:id, :name, :email, :phone, :subject, :body, :type, :ip_address, :user_agent, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// FindByID returns an active message.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.Message, error) {
	return r.returning(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1 AND active LIMIT 1`, "find message", id)
}

// List returns active messages, important first then newest, with the total count.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	var w where
	w.raw("active")
	if filter.Read != nil {
		w.add("is_read = $%d", *filter.Read)
	}
	if filter.Replied != nil {
		w.add("replied = $%d", *filter.Replied)
	}
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.Important != nil {
		w.add("important = $%d", *filter.Important)
	}
	if filter.Archived != nil {
		w.add("archived = $%d", *filter.Archived)
	}

	listQuery := fmt.Sprintf("SELECT %s FROM messages %s ORDER BY important DESC, created_at DESC LIMIT %d OFFSET %d", messageColumns, w.String(), filter.Limit, filter.Offset())
	var items []models.Message
	if err := r.db.SelectContext(ctx, &items, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM messages "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	return items, total, nil
}

// Unread returns unread, unarchived messages, important first.
func (r *MessageRepository) Unread(ctx context.Context) ([]models.Message, error) {
	query := fmt.Sprintf("SELECT %s FROM messages WHERE active AND NOT is_read AND NOT archived ORDER BY important DESC, created_at DESC LIMIT %d", messageColumns, maxUnreadMessages)
	var items []models.Message
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}
	return items, nil
}

// Search matches name, e-mail, subject and body among active messages.
func (r *MessageRepository) Search(ctx context.Context, term string) ([]models.Message, error) {
	var w where
	w.raw("active")
	w.search(term, "name", "email", "subject", "body")
	query := fmt.Sprintf("SELECT %s FROM messages %s ORDER BY created_at DESC LIMIT %d", messageColumns, w.String(), SearchLimit)
	var items []models.Message
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return items, nil
}

// Stats aggregates the inbox: totals, per type, and per month since now minus six months.
func (r *MessageRepository) Stats(ctx context.Context, now time.Time) (*models.MessageStats, error) {
	const countersQuery = `SELECT COUNT(*) AS total,
	COUNT(*) FILTER (WHERE NOT is_read) AS unread,
	COUNT(*) FILTER (WHERE NOT replied) AS unreplied,
	COUNT(*) FILTER (WHERE important) AS important,
	COUNT(*) FILTER (WHERE archived) AS archived
FROM messages WHERE active`
	var counters models.MessageCounters
	if err := r.db.GetContext(ctx, &counters, countersQuery); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	var byType []struct {
		Type  string `db:"type"`
		Count int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &byType, `SELECT type, COUNT(*) AS count FROM messages WHERE active GROUP BY type ORDER BY count DESC`); err != nil {
		return nil, fmt.Errorf("count messages by type: %w", err)
	}

	const monthQuery = `SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM') AS month, COUNT(*) AS count
FROM messages WHERE active AND created_at >= $1 GROUP BY 1 ORDER BY 1`
	var byMonth []models.MonthCount
	if err := r.db.SelectContext(ctx, &byMonth, monthQuery, now.AddDate(0, -statsMonths, 0)); err != nil {
		return nil, fmt.Errorf("count messages by month: %w", err)
	}

	stats := &models.MessageStats{
		Total:     counters.Total,
		Unread:    counters.Unread,
		Unreplied: counters.Unreplied,
		Important: counters.Important,
		Archived:  counters.Archived,
		ByType:    make(map[string]int, len(byType)),
		ByMonth:   byMonth,
	}
	for _, row := range byType {
		stats.ByType[row.Type] = row.Count
	}
	if stats.ByMonth == nil {
		stats.ByMonth = []models.MonthCount{}
	}
	return stats, nil
}

// MarkRead sets the read flag of an active message.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, read bool) (*models.Message, error) {
	return r.setFlag(ctx, "is_read", id, read)
}

// SetImportant sets the important flag.
func (r *MessageRepository) SetImportant(ctx context.Context, id string, important bool) (*models.Message, error) {
	return r.setFlag(ctx, "important", id, important)
}

// SetArchived sets the archived flag.
func (r *MessageRepository) SetArchived(ctx context.Context, id string, archived bool) (*models.Message, error) {
	return r.setFlag(ctx, "archived", id, archived)
}

// setFlag updates one boolean column; column comes from the callers above, never from input.
func (r *MessageRepository) setFlag(ctx context.Context, column, id string, value bool) (*models.Message, error) {
	query := fmt.Sprintf("UPDATE messages SET %s = $2, updated_at = $3 WHERE id = $1 AND active RETURNING %s", column, messageColumns)
	return r.returning(ctx, query, "update message "+column, id, value, time.Now().UTC())
}

// Reply stores the answer and marks the message read and replied.
func (r *MessageRepository) Reply(ctx context.Context, id, reply, repliedBy string, at time.Time) (*models.Message, error) {
	query := `UPDATE messages SET reply = $2, replied = TRUE, is_read = TRUE, replied_by = $3, replied_at = $4, updated_at = $4 WHERE id = $1 AND active RETURNING ` + messageColumns
	return r.returning(ctx, query, "reply message", id, reply, repliedBy, at)
}

// SetNotes replaces the internal notes.
func (r *MessageRepository) SetNotes(ctx context.Context, id, notes string) (*models.Message, error) {
	query := `UPDATE messages SET internal_notes = $2, updated_at = $3 WHERE id = $1 AND active RETURNING ` + messageColumns
	return r.returning(ctx, query, "update message notes", id, notes, time.Now().UTC())
}

// MarkManyRead marks the given messages read and returns how many changed.
func (r *MessageRepository) MarkManyRead(ctx context.Context, ids []string) (int64, error) {
	const query = `UPDATE messages SET is_read = TRUE, updated_at = $2 WHERE id = ANY($1) AND active AND NOT is_read`
	res, err := r.db.ExecContext(ctx, query, pq.Array(ids), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark messages read rows affected: %w", err)
	}
	return n, nil
}

// Deactivate soft deletes a message.
func (r *MessageRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE messages SET active = FALSE, updated_at = $2 WHERE id = $1 AND active`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate message: %w", err)
	}
	return requireRow(res, "deactivate message")
}

func (r *MessageRepository) returning(ctx context.Context, query, op string, args ...interface{}) (*models.Message, error) {
	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &msg, nil
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
)

var messageRowColumns = []string{"id", "name", "email", "phone", "subject", "body", "type", "is_read", "replied", "important", "archived", "reply", "replied_by", "replied_at", "internal_notes", "ip_address", "user_agent", "active", "created_at", "updated_at"}

func TestListMessagesImportantFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	read := false
	mock.ExpectQuery(regexp.QuoteMeta("FROM messages WHERE active AND is_read = $1 AND type = $2 ORDER BY important DESC, created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(false, "queja").
		WillReturnRows(sqlmock.NewRows(messageRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM messages WHERE active AND is_read = $1 AND type = $2")).
		WithArgs(false, "queja").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.MessageFilter{Read: &read, Type: "queja", PageQuery: models.PageQuery{Page: 1, Limit: 20}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplyMarksReadAndReplied(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE messages SET reply = $2, replied = TRUE, is_read = TRUE")).
		WithArgs("m1", "Gracias por escribirnos", "admin-1", now).
		WillReturnRows(sqlmock.NewRows(messageRowColumns).
			AddRow("m1", "Luis", "luis@example.com", "", "Horarios", "¿Tienen jornada nocturna?", "consulta", true, true, false, false, "Gracias por escribirnos", "admin-1", now, "", "", "", true, now, now))

	msg, err := repo.Reply(context.Background(), "m1", "Gracias por escribirnos", "admin-1", now)
	require.NoError(t, err)
	assert.True(t, msg.Read)
	assert.True(t, msg.Replied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE NOT is_read) AS unread")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "unread", "unreplied", "important", "archived"}).AddRow(10, 4, 6, 1, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT type, COUNT(*) AS count FROM messages WHERE active GROUP BY type")).
		WillReturnRows(sqlmock.NewRows([]string{"type", "count"}).AddRow("consulta", 7).AddRow("queja", 3))
	mock.ExpectQuery(regexp.QuoteMeta("TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM')")).
		WithArgs(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"month", "count"}).AddRow("2026-05", 6).AddRow("2026-06", 4))

	stats, err := repo.Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Unread)
	assert.Equal(t, 3, stats.ByType["queja"])
	require.Len(t, stats.ByMonth, 2)
	assert.Equal(t, "2026-05", stats.ByMonth[0].Month)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkManyRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ANY($1) AND active AND NOT is_read")).
		WithArgs(`{"m1","m2"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MarkManyRead(context.Background(), []string{"m1", "m2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

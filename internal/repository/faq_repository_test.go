package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var faqRowColumns = []string{"id", "question", "answer", "category", "sort_order", "active", "views", "helpful", "not_helpful", "created_by", "updated_by", "created_at", "updated_at"}

func TestViewFAQIncrementsAtomically(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFAQRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE faqs SET views = views + 1 WHERE id = $1 AND active RETURNING")).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(faqRowColumns).AddRow("f1", "¿Cuándo inicio?", "En febrero", "Inscripción", 1, true, 11, 3, 0, nil, nil, now, now))

	faq, err := repo.View(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, 11, faq.Views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteInactiveFAQNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFAQRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE faqs SET helpful = helpful + CASE WHEN $2")).
		WithArgs("f1", false).
		WillReturnRows(sqlmock.NewRows(faqRowColumns))

	_, err := repo.Vote(context.Background(), "f1", false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListPublicFAQsByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFAQRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM faqs WHERE active AND category = $1 ORDER BY sort_order ASC, created_at ASC")).
		WithArgs("Pagos").
		WillReturnRows(sqlmock.NewRows(faqRowColumns))

	faqs, err := repo.ListPublic(context.Background(), "Pagos")
	require.NoError(t, err)
	assert.Empty(t, faqs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFAQStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFAQRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE active) AS active FROM faqs")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(9, 7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, COUNT(*) AS count FROM faqs WHERE active GROUP BY category")).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).AddRow("Pagos", 4).AddRow("General", 3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM faqs WHERE active ORDER BY views DESC LIMIT 10")).
		WillReturnRows(sqlmock.NewRows(faqRowColumns))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Total)
	assert.Equal(t, 7, stats.Active)
	assert.Equal(t, 4, stats.ByCategory["Pagos"])
	assert.NotNil(t, stats.TopViewed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

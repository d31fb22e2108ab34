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

var testimonialRowColumns = []string{"id", "first_name", "last_name", "email", "photo", "body", "program", "cohort", "occupation", "company", "rating", "featured", "approved", "active", "published_at", "approved_by", "approved_at", "created_at", "updated_at"}

func TestListPublicTestimonials(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTestimonialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM testimonials WHERE approved AND active AND program = $1 ORDER BY published_at DESC NULLS LAST LIMIT 10 OFFSET 0")).
		WithArgs("Enfermería").
		WillReturnRows(sqlmock.NewRows(testimonialRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM testimonials WHERE approved AND active AND program = $1")).
		WithArgs("Enfermería").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.TestimonialFilter{Program: "Enfermería", PublicOnly: true, PageQuery: models.PageQuery{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveTestimonialPublishes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTestimonialRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE testimonials SET approved = TRUE, active = TRUE, approved_by = $2, approved_at = $3, published_at = $3")).
		WithArgs("t1", "admin-1", now).
		WillReturnRows(sqlmock.NewRows(testimonialRowColumns).
			AddRow("t1", "Carla", "Díaz", "carla@example.com", "", "Excelente formación", "Enfermería", "2024", "", "", 5, false, true, true, now, "admin-1", now, now, now))

	item, err := repo.Approve(context.Background(), "t1", "admin-1", now)
	require.NoError(t, err)
	assert.True(t, item.Public())
	require.NotNil(t, item.PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

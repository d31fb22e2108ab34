package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

type fakeTestimonialRepo struct {
	items      map[string]*models.Testimonial
	lastFilter models.TestimonialFilter
}

func (f *fakeTestimonialRepo) List(ctx context.Context, filter models.TestimonialFilter) ([]models.Testimonial, int, error) {
	f.lastFilter = filter
	out := []models.Testimonial{}
	for _, t := range f.items {
		if !filter.PublicOnly || t.Public() {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (f *fakeTestimonialRepo) Pending(ctx context.Context) ([]models.Testimonial, error) {
	out := []models.Testimonial{}
	for _, t := range f.items {
		if t.Active && !t.Approved {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTestimonialRepo) FindByID(ctx context.Context, id string) (*models.Testimonial, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTestimonialRepo) Create(ctx context.Context, t *models.Testimonial) error {
	t.ID = "t-new"
	clone := *t
	f.items[t.ID] = &clone
	return nil
}

func (f *fakeTestimonialRepo) Update(ctx context.Context, t *models.Testimonial) error {
	current, ok := f.items[t.ID]
	if !ok {
		return sql.ErrNoRows
	}
	approved, active := current.Approved, current.Active
	*current = *t
	current.Approved, current.Active = approved, active
	return nil
}

func (f *fakeTestimonialRepo) Approve(ctx context.Context, id, approvedBy string, at time.Time) (*models.Testimonial, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	t.Approved, t.Active = true, true
	t.ApprovedBy = &approvedBy
	t.ApprovedAt = &at
	t.PublishedAt = &at
	clone := *t
	return &clone, nil
}

func (f *fakeTestimonialRepo) Reject(ctx context.Context, id string) (*models.Testimonial, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	t.Approved, t.Active = false, false
	clone := *t
	return &clone, nil
}

func (f *fakeTestimonialRepo) SetFeatured(ctx context.Context, id string, featured bool) (*models.Testimonial, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	t.Featured = featured
	clone := *t
	return &clone, nil
}

func (f *fakeTestimonialRepo) Deactivate(ctx context.Context, id string) error {
	t, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Active = false
	return nil
}

func validTestimonialRequest() TestimonialRequest {
	return TestimonialRequest{
		FirstName: "Valentina",
		LastName:  "Rojas",
		Email:     "valentina@example.com",
		Body:      strings.Repeat("Excelente formación práctica. ", 3),
		Program:   "Técnico en Sistemas",
		Cohort:    "2022",
		Featured:  true,
	}
}

func TestTestimonialServiceSubmitAwaitsApproval(t *testing.T) {
	repo := &fakeTestimonialRepo{items: map[string]*models.Testimonial{}}
	svc := NewTestimonialService(repo, nil, nil)

	view, err := svc.Submit(context.Background(), validTestimonialRequest())
	require.NoError(t, err)
	assert.Equal(t, "Valentina Rojas", view.FullName)
	assert.Equal(t, 5, view.Rating)
	assert.False(t, view.Approved)
	assert.False(t, view.Featured)
	assert.True(t, view.Active)

	_, err = svc.GetPublic(context.Background(), "t-new")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	short := validTestimonialRequest()
	short.Body = "Muy bueno"
	_, err = svc.Submit(context.Background(), short)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	badRating := validTestimonialRequest()
	badRating.Rating = intPtr(6)
	_, err = svc.Submit(context.Background(), badRating)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestTestimonialServiceModeration(t *testing.T) {
	repo := &fakeTestimonialRepo{items: map[string]*models.Testimonial{"t1": {ID: "t1", FirstName: "Ana", LastName: "Gil", Active: true}}}
	svc := NewTestimonialService(repo, nil, nil)
	approvedAt := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return approvedAt }

	view, err := svc.Approve(context.Background(), "t1", "admin-1")
	require.NoError(t, err)
	assert.True(t, view.Approved)
	assert.Equal(t, "admin-1", *view.ApprovedBy)
	assert.Equal(t, approvedAt, *view.PublishedAt)

	_, err = svc.GetPublic(context.Background(), "t1")
	require.NoError(t, err)

	view, err = svc.SetFeatured(context.Background(), "t1", TestimonialFeatureRequest{})
	require.NoError(t, err)
	assert.True(t, view.Featured)

	view, err = svc.Reject(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, view.Active)

	_, err = svc.GetPublic(context.Background(), "t1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Approve(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTestimonialServiceListsAndUpdate(t *testing.T) {
	repo := &fakeTestimonialRepo{items: map[string]*models.Testimonial{
		"pub":     {ID: "pub", Approved: true, Active: true},
		"pending": {ID: "pending", Active: true},
	}}
	svc := NewTestimonialService(repo, nil, nil)

	items, page, err := svc.ListPublic(context.Background(), models.TestimonialFilter{Approved: boolPtr(false)})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 10, page.Limit)
	assert.True(t, repo.lastFilter.PublicOnly)
	assert.Nil(t, repo.lastFilter.Approved)

	items, page, err = svc.ListAdmin(context.Background(), models.TestimonialFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 20, page.Limit)

	view, err := svc.Update(context.Background(), "pending", validTestimonialRequest())
	require.NoError(t, err)
	assert.Equal(t, "Técnico en Sistemas", view.Program)
	assert.False(t, repo.items["pending"].Approved)

	require.NoError(t, svc.Delete(context.Background(), "pub"))
	assert.False(t, repo.items["pub"].Active)
}

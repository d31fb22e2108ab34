package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/repository"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

var eventNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeEventRepo struct {
	events    map[string]*models.Event
	signUpErr error
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	repo := &fakeEventRepo{events: map[string]*models.Event{}}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (f *fakeEventRepo) List(ctx context.Context, filter models.EventFilter, now time.Time) ([]models.Event, int, error) {
	out := []models.Event{}
	for _, e := range f.events {
		if e.Active && (!filter.Upcoming || !e.Date.Before(now)) {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = "ev-new"
	clone := *event
	f.events[event.ID] = &clone
	return nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	current := f.events[event.ID]
	if event.MaxCapacity != nil && current.RegisteredCount > *event.MaxCapacity {
		return repository.ErrNotApplied
	}
	clone := *event
	f.events[event.ID] = &clone
	return nil
}

func (f *fakeEventRepo) Deactivate(ctx context.Context, id, updatedBy string) error {
	e, ok := f.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Active = false
	return nil
}

func (f *fakeEventRepo) SignUp(ctx context.Context, id string, now time.Time) (int, error) {
	if f.signUpErr != nil {
		return 0, f.signUpErr
	}
	e, ok := f.events[id]
	if !ok || !e.Active || !e.RequiresRegistration || e.Date.Before(now) || e.IsFull() {
		return 0, repository.ErrNotApplied
	}
	e.RegisteredCount++
	return e.RegisteredCount, nil
}

func newEventFixture(events ...*models.Event) (*EventService, *fakeEventRepo, *MetricsService) {
	repo := newFakeEventRepo(events...)
	metrics := NewMetricsService()
	svc := NewEventService(repo, metrics, nil, nil)
	svc.now = func() time.Time { return eventNow }
	return svc, repo, metrics
}

func TestEventServiceSignUp(t *testing.T) {
	tomorrow := eventNow.Add(24 * time.Hour)
	svc, _, metrics := newEventFixture(&models.Event{ID: "e1", Date: tomorrow, Active: true, RequiresRegistration: true, MaxCapacity: intPtr(2), RegisteredCount: 1})

	view, err := svc.SignUp(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.RegisteredCount)
	assert.True(t, view.Full)
	assert.Equal(t, 0, *view.SeatsRemaining)

	_, err = svc.SignUp(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, "El evento está lleno", appErrors.FromError(err).Message)

	body := scrape(t, metrics)
	assert.Contains(t, body, `event_signups_total{result="success"} 1`)
	assert.Contains(t, body, `event_signups_total{result="rejected"} 1`)
}

func TestEventServiceSignUpReasons(t *testing.T) {
	tomorrow := eventNow.Add(24 * time.Hour)
	yesterday := eventNow.Add(-24 * time.Hour)
	svc, _, _ := newEventFixture(
		&models.Event{ID: "open", Date: tomorrow, Active: true, RequiresRegistration: false},
		&models.Event{ID: "past", Date: yesterday, Active: true, RequiresRegistration: true},
		&models.Event{ID: "hidden", Date: tomorrow, Active: false, RequiresRegistration: true},
	)

	_, err := svc.SignUp(context.Background(), "open")
	assert.Equal(t, "Este evento no requiere inscripción", appErrors.FromError(err).Message)

	_, err = svc.SignUp(context.Background(), "past")
	assert.Equal(t, "El evento ya pasó", appErrors.FromError(err).Message)

	_, err = svc.SignUp(context.Background(), "hidden")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.SignUp(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEventServiceSignUpStoreFailure(t *testing.T) {
	svc, repo, metrics := newEventFixture()
	repo.signUpErr = errors.New("db down")

	_, err := svc.SignUp(context.Background(), "e1")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Contains(t, scrape(t, metrics), `event_signups_total{result="error"} 1`)
}

func TestEventServiceCreateAndUpdate(t *testing.T) {
	svc, repo, _ := newEventFixture()

	req := EventRequest{
		Name:        "Feria de programas",
		Description: "Conoce nuestra oferta",
		Date:        eventNow.Add(72 * time.Hour),
		StartTime:   "09:00",
		Location:    "Sede principal",
		MaxCapacity: intPtr(50),
	}
	view, err := svc.Create(context.Background(), req, "editor-1")
	require.NoError(t, err)
	assert.Equal(t, "Institucional", view.Type)
	assert.True(t, view.Active)
	assert.False(t, view.Past)
	assert.Equal(t, 50, *view.SeatsRemaining)

	repo.events["ev-new"].RegisteredCount = 10
	req.MaxCapacity = intPtr(5)
	_, err = svc.Update(context.Background(), "ev-new", req, "editor-1")
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	req.Type = "Gastronómico"
	_, err = svc.Create(context.Background(), req, "editor-1")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEventServiceGetAndDelete(t *testing.T) {
	svc, _, _ := newEventFixture(&models.Event{ID: "e1", Date: eventNow, Active: true})

	_, err := svc.Get(context.Background(), "e1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "e1", "editor-1"))
	_, err = svc.Get(context.Background(), "e1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	items, page, err := svc.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 10, page.Limit)
}

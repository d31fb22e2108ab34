package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/repository"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const (
	defaultEventPageSize = 10
	defaultEventType     = "Institucional"
	msgEventNotFound     = "Evento no encontrado"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter, now time.Time) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Deactivate(ctx context.Context, id, updatedBy string) error
	SignUp(ctx context.Context, id string, now time.Time) (int, error)
}

// EventRequest is the payload for creating or replacing an event.
type EventRequest struct {
	Name                 string    `json:"nombre" validate:"notblank,max=200"`
	Description          string    `json:"descripcion" validate:"notblank,max=2000"`
	Date                 time.Time `json:"fecha" validate:"required"`
	StartTime            string    `json:"horaInicio" validate:"notblank,max=10"`
	EndTime              string    `json:"horaFin" validate:"max=10"`
	Location             string    `json:"lugar" validate:"notblank,max=200"`
	Image                string    `json:"imagen" validate:"omitempty,url"`
	Type                 string    `json:"tipo" validate:"omitempty,oneof=Académico Cultural Deportivo Institucional Social"`
	MaxCapacity          *int      `json:"capacidadMaxima" validate:"omitempty,min=1"`
	RequiresRegistration bool      `json:"requiereInscripcion"`
	Featured             bool      `json:"destacado"`
	Active               *bool     `json:"activo"`
	Organizer            string    `json:"organizador" validate:"max=200"`
}

// EventService manages public events and sign-ups.
type EventService struct {
	repo      eventRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventService constructs the event service.
func NewEventService(repo eventRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, metrics: metrics, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns active events by date.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.EventView, *models.Pagination, error) {
	filter.PageQuery = filter.PageQuery.Normalize(defaultEventPageSize)
	now := s.now()
	events, total, err := s.repo.List(ctx, filter, now)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener eventos")
	}
	return models.EventViews(events, now), models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Get returns an active event.
func (s *EventService) Get(ctx context.Context, id string) (*models.EventView, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgEventNotFound, "Error al obtener el evento")
	}
	if !event.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgEventNotFound)
	}
	view := event.View(s.now())
	return &view, nil
}

// Create adds an event.
func (s *EventService) Create(ctx context.Context, req EventRequest, actorID string) (*models.EventView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	event := &models.Event{Active: true, CreatedBy: strPtr(actorID), UpdatedBy: strPtr(actorID)}
	applyEventRequest(event, req)

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, writeError(err, msgEventNotFound, "Error al crear el evento")
	}
	view := event.View(s.now())
	return &view, nil
}

// Update replaces an event. Capacity may not drop below current sign-ups.
func (s *EventService) Update(ctx context.Context, id string, req EventRequest, actorID string) (*models.EventView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgEventNotFound, "Error al actualizar el evento")
	}
	applyEventRequest(event, req)
	event.UpdatedBy = strPtr(actorID)

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			return nil, businessRule("La capacidad no puede ser menor a los inscritos")
		}
		return nil, writeError(err, msgEventNotFound, "Error al actualizar el evento")
	}
	view := event.View(s.now())
	return &view, nil
}

// Delete soft deletes an event.
func (s *EventService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Deactivate(ctx, id, actorID); err != nil {
		return lookupError(err, msgEventNotFound, "Error al eliminar el evento")
	}
	return nil
}

// SignUp takes one place. When the conditional increment does not apply the reason is resolved from the stored event.
func (s *EventService) SignUp(ctx context.Context, id string) (*models.EventView, error) {
	now := s.now()
	if _, err := s.repo.SignUp(ctx, id, now); err != nil {
		if !errors.Is(err, repository.ErrNotApplied) {
			s.metrics.RecordEventSignup(ResultError)
			return nil, appErrors.Internal(err, "Error al inscribirse en el evento")
		}
		appErr := s.signUpRejection(ctx, id, now)
		result := ResultRejected
		if appErr.Code == appErrors.ErrRetryable.Code {
			result = ResultConflict
		}
		s.metrics.RecordEventSignup(result)
		return nil, appErr
	}

	s.metrics.RecordEventSignup(ResultSuccess)
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgEventNotFound, "Error al obtener el evento")
	}
	view := event.View(now)
	return &view, nil
}

func (s *EventService) signUpRejection(ctx context.Context, id string, now time.Time) *appErrors.Error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, msgEventNotFound, "Error al inscribirse en el evento")
	}
	switch {
	case !event.Active:
		return appErrors.Clone(appErrors.ErrNotFound, msgEventNotFound)
	case !event.RequiresRegistration:
		return businessRule("Este evento no requiere inscripción")
	case event.IsPast(now):
		return businessRule("El evento ya pasó")
	case event.IsFull():
		return businessRule("El evento está lleno")
	}
	return retryable(repository.ErrNotApplied, appErrors.ErrRetryable.Message)
}

func applyEventRequest(e *models.Event, req EventRequest) {
	e.Name = strings.TrimSpace(req.Name)
	e.Description = strings.TrimSpace(req.Description)
	e.Date = req.Date
	e.StartTime = strings.TrimSpace(req.StartTime)
	e.EndTime = strings.TrimSpace(req.EndTime)
	e.Location = strings.TrimSpace(req.Location)
	e.Image = req.Image
	e.Type = req.Type
	if e.Type == "" {
		e.Type = defaultEventType
	}
	e.MaxCapacity = req.MaxCapacity
	e.RequiresRegistration = req.RequiresRegistration
	e.Featured = req.Featured
	if req.Active != nil {
		e.Active = *req.Active
	}
	e.Organizer = strings.TrimSpace(req.Organizer)
}

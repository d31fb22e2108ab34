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
	defaultProgramPageSize      = 20
	defaultAdminProgramPageSize = 50
	defaultCurrency             = "COP"
)

const msgCapacityBelowTaken = "La capacidad no puede ser menor a los cupos ocupados"

type programRepository interface {
	List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, int, error)
	ListOpen(ctx context.Context) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	FindByCode(ctx context.Context, code string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	SetFeatured(ctx context.Context, id string, featured bool, updatedBy string) error
	SetAvailability(ctx context.Context, id string, open bool, seats *int, setSeats bool, updatedBy string) error
	Deactivate(ctx context.Context, id, updatedBy string) error
	Search(ctx context.Context, term string) ([]models.Program, error)
}

// ProgramDurationInput is the program length in a request.
type ProgramDurationInput struct {
	Value int                 `json:"valor" validate:"required,min=1"`
	Unit  models.DurationUnit `json:"unidad" validate:"omitempty,oneof=meses años semestres"`
}

// ProgramCostsInput carries the fees. The total is always derived.
type ProgramCostsInput struct {
	EnrollmentFee float64 `json:"matricula" validate:"min=0"`
	MonthlyFee    float64 `json:"mensualidad" validate:"min=0"`
	Currency      string  `json:"moneda" validate:"omitempty,len=3"`
}

// ProgramEnrollmentInput carries availability. A nil capacity means unlimited.
type ProgramEnrollmentInput struct {
	Open           *bool      `json:"disponible"`
	SeatsAvailable *int       `json:"cuposDisponibles" validate:"omitempty,min=0"`
	StartsAt       *time.Time `json:"fechaInicio"`
	EndsAt         *time.Time `json:"fechaCierre"`
}

// ProgramRequest is the payload for creating or replacing a program.
type ProgramRequest struct {
	Name            string                 `json:"nombre" validate:"notblank,max=200"`
	Code            string                 `json:"codigo" validate:"notblank,max=20"`
	Description     string                 `json:"descripcion" validate:"notblank,min=100"`
	Duration        ProgramDurationInput   `json:"duracion"`
	Modality        string                 `json:"modalidad" validate:"omitempty,oneof=Presencial Virtual Semipresencial"`
	Schedule        string                 `json:"jornada" validate:"omitempty,oneof=Diurna Nocturna Mixta 'Fines de semana'"`
	Requirements    []string               `json:"requisitos" validate:"required,min=1,dive,notblank"`
	Objectives      string                 `json:"objetivos" validate:"notblank"`
	GraduateProfile string                 `json:"perfilEgresado" validate:"notblank"`
	Competencies    []string               `json:"competencias" validate:"omitempty,dive,notblank"`
	JobField        string                 `json:"campoLaboral"`
	Subjects        []string               `json:"materias" validate:"omitempty,dive,notblank"`
	Image           string                 `json:"imagen" validate:"omitempty,url"`
	Costs           ProgramCostsInput      `json:"costos"`
	Enrollment      ProgramEnrollmentInput `json:"inscripcion"`
	Active          *bool                  `json:"activo"`
	Featured        bool                   `json:"destacado"`
	SortOrder       int                    `json:"orden"`
}

// ProgramEnrollmentUpdate changes availability fields that are present. SetSeats reports
// whether cuposDisponibles was sent, so an explicit null makes the program unlimited.
type ProgramEnrollmentUpdate struct {
	Open           *bool      `json:"disponible"`
	SeatsAvailable *int       `json:"cuposDisponibles" validate:"omitempty,min=0"`
	StartsAt       *time.Time `json:"fechaInicio"`
	EndsAt         *time.Time `json:"fechaCierre"`
	SetSeats       bool       `json:"-"`
}

// ProgramUpdateRequest merges into the stored program. Omitted fields keep their values.
type ProgramUpdateRequest struct {
	Name            *string                  `json:"nombre" validate:"omitempty,notblank,max=200"`
	Code            *string                  `json:"codigo" validate:"omitempty,notblank,max=20"`
	Description     *string                  `json:"descripcion" validate:"omitempty,notblank,min=100"`
	Duration        *ProgramDurationInput    `json:"duracion"`
	Modality        *string                  `json:"modalidad" validate:"omitempty,oneof=Presencial Virtual Semipresencial"`
	Schedule        *string                  `json:"jornada" validate:"omitempty,oneof=Diurna Nocturna Mixta 'Fines de semana'"`
	Requirements    []string                 `json:"requisitos" validate:"omitempty,min=1,dive,notblank"`
	Objectives      *string                  `json:"objetivos" validate:"omitempty,notblank"`
	GraduateProfile *string                  `json:"perfilEgresado" validate:"omitempty,notblank"`
	Competencies    []string                 `json:"competencias" validate:"omitempty,dive,notblank"`
	JobField        *string                  `json:"campoLaboral"`
	Subjects        []string                 `json:"materias" validate:"omitempty,dive,notblank"`
	Image           *string                  `json:"imagen" validate:"omitempty,url"`
	Costs           *ProgramCostsInput       `json:"costos"`
	Enrollment      *ProgramEnrollmentUpdate `json:"inscripcion"`
	Active          *bool                    `json:"activo"`
	Featured        *bool                    `json:"destacado"`
	SortOrder       *int                     `json:"orden"`
}

// ProgramAvailabilityRequest opens or closes enrollment, optionally changing capacity.
type ProgramAvailabilityRequest struct {
	Open           *bool `json:"disponible" validate:"required"`
	SeatsAvailable *int  `json:"cuposDisponibles" validate:"omitempty,min=0"`
	SetSeats       bool  `json:"-"`
}

// ProgramPage is a cacheable page of programs.
type ProgramPage struct {
	Items      []models.ProgramView `json:"items"`
	Pagination *models.Pagination   `json:"pagination"`
}

// ProgramService manages the academic catalogue.
type ProgramService struct {
	repo      programRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs the program service.
func NewProgramService(repo programRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListPublic returns active programs in display order. Results are cached per filter.
func (s *ProgramService) ListPublic(ctx context.Context, filter models.ProgramFilter) (*ProgramPage, bool, error) {
	filter.PublicOnly = true
	filter.Active = nil
	filter.PageQuery = filter.PageQuery.Normalize(defaultProgramPageSize)

	var page ProgramPage
	key := spacePrograms.key("list", filter)
	hit, err := s.cache.Remember(ctx, key, &page, func() error {
		programs, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return err
		}
		page = ProgramPage{Items: models.ProgramViews(programs), Pagination: models.NewPagination(total, filter.Page, filter.Limit)}
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "Error al obtener programas")
	}
	return &page, hit, nil
}

// ListAdmin returns every program for the back office.
func (s *ProgramService) ListAdmin(ctx context.Context, filter models.ProgramFilter) ([]models.ProgramView, *models.Pagination, error) {
	filter.PublicOnly = false
	filter.PageQuery = filter.PageQuery.Normalize(defaultAdminProgramPageSize)
	programs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener programas")
	}
	return models.ProgramViews(programs), models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Available returns active programs open for enrollment with seats left.
func (s *ProgramService) Available(ctx context.Context) ([]models.ProgramView, bool, error) {
	var views []models.ProgramView
	hit, err := s.cache.Remember(ctx, spacePrograms.key("disponibles"), &views, func() error {
		programs, err := s.repo.ListOpen(ctx)
		if err != nil {
			return err
		}
		views = models.ProgramViews(programs)
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "Error al obtener programas disponibles")
	}
	return views, hit, nil
}

// GetPublic returns an active program by id.
func (s *ProgramService) GetPublic(ctx context.Context, id string) (*models.ProgramView, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Programa no encontrado", "Error al obtener el programa")
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Programa no encontrado")
	}
	view := program.View()
	return &view, nil
}

// GetByCode returns an active program by code.
func (s *ProgramService) GetByCode(ctx context.Context, code string) (*models.ProgramView, error) {
	program, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, lookupError(err, "Programa no encontrado", "Error al obtener el programa")
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Programa no encontrado")
	}
	view := program.View()
	return &view, nil
}

// Search matches active programs by name, code or description.
func (s *ProgramService) Search(ctx context.Context, q string) ([]models.ProgramView, error) {
	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}
	programs, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al buscar programas")
	}
	return models.ProgramViews(programs), nil
}

// Create adds a program and derives its total cost.
func (s *ProgramService) Create(ctx context.Context, req ProgramRequest, actorID string) (*models.ProgramView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	program := &models.Program{Active: true, CreatedBy: strPtr(actorID), UpdatedBy: strPtr(actorID)}
	applyProgramRequest(program, req)
	if req.Enrollment.Open == nil {
		program.Enrollment.Open = true
	}

	if err := s.repo.Create(ctx, program); err != nil {
		return nil, writeError(err, "Programa no encontrado", "Error al crear el programa")
	}
	s.invalidate(ctx)

	view := program.View()
	return &view, nil
}

// Update merges the provided fields into a program. Capacity may not drop below the seats taken.
func (s *ProgramService) Update(ctx context.Context, id string, req ProgramUpdateRequest, actorID string) (*models.ProgramView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Programa no encontrado", "Error al actualizar el programa")
	}

	mergeProgramUpdate(program, req)
	program.UpdatedBy = strPtr(actorID)
	if seats := program.Enrollment.SeatsAvailable; seats != nil && *seats < program.Enrollment.SeatsTaken {
		return nil, businessRule(msgCapacityBelowTaken)
	}

	if err := s.repo.Update(ctx, program); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			return nil, s.notAppliedError(ctx, id, "Error al actualizar el programa")
		}
		return nil, writeError(err, "Programa no encontrado", "Error al actualizar el programa")
	}
	s.invalidate(ctx)

	view := program.View()
	return &view, nil
}

// SetFeatured marks or unmarks a program as featured.
func (s *ProgramService) SetFeatured(ctx context.Context, id string, featured bool, actorID string) (*models.ProgramView, error) {
	if err := s.repo.SetFeatured(ctx, id, featured, actorID); err != nil {
		return nil, lookupError(err, "Programa no encontrado", "Error al actualizar destacado")
	}
	s.invalidate(ctx)
	return s.reload(ctx, id, "Error al actualizar destacado")
}

// SetAvailability opens or closes enrollment. Capacity changes only when provided.
func (s *ProgramService) SetAvailability(ctx context.Context, id string, req ProgramAvailabilityRequest, actorID string) (*models.ProgramView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Programa no encontrado", "Error al actualizar disponibilidad")
	}
	if req.SetSeats && req.SeatsAvailable != nil && *req.SeatsAvailable < program.Enrollment.SeatsTaken {
		return nil, businessRule(msgCapacityBelowTaken)
	}

	if err := s.repo.SetAvailability(ctx, id, *req.Open, req.SeatsAvailable, req.SetSeats, actorID); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			return nil, s.notAppliedError(ctx, id, "Error al actualizar disponibilidad")
		}
		return nil, lookupError(err, "Programa no encontrado", "Error al actualizar disponibilidad")
	}
	s.invalidate(ctx)
	return s.reload(ctx, id, "Error al actualizar disponibilidad")
}

// Delete soft deletes a program.
func (s *ProgramService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Deactivate(ctx, id, actorID); err != nil {
		return lookupError(err, "Programa no encontrado", "Error al eliminar el programa")
	}
	s.invalidate(ctx)
	return nil
}

// Invalidate drops every cached program listing.
func (s *ProgramService) Invalidate(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *ProgramService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, spacePrograms.pattern()); err != nil {
		s.logger.Warn("failed to invalidate program cache", zap.Error(err))
	}
}

// notAppliedError tells a capacity conflict apart from a program removed since it was read.
func (s *ProgramService) notAppliedError(ctx context.Context, id, internal string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "Programa no encontrado", internal)
	}
	return businessRule(msgCapacityBelowTaken)
}

func (s *ProgramService) reload(ctx context.Context, id, internal string) (*models.ProgramView, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Programa no encontrado", internal)
	}
	view := program.View()
	return &view, nil
}

func applyProgramRequest(p *models.Program, req ProgramRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	p.Description = strings.TrimSpace(req.Description)
	p.Duration = models.ProgramDuration{Value: req.Duration.Value, Unit: req.Duration.Unit}
	if p.Duration.Unit == "" {
		p.Duration.Unit = models.DurationMonths
	}
	p.Modality = req.Modality
	if p.Modality == "" {
		p.Modality = models.ModalityOnsite
	}
	p.Schedule = req.Schedule
	if p.Schedule == "" {
		p.Schedule = models.Schedules[0]
	}
	p.Requirements = req.Requirements
	p.Objectives = req.Objectives
	p.GraduateProfile = req.GraduateProfile
	p.Competencies = req.Competencies
	p.JobField = req.JobField
	p.Subjects = req.Subjects
	p.Image = req.Image
	p.Costs.EnrollmentFee = req.Costs.EnrollmentFee
	p.Costs.MonthlyFee = req.Costs.MonthlyFee
	p.Costs.Currency = strings.ToUpper(req.Costs.Currency)
	if p.Costs.Currency == "" {
		p.Costs.Currency = defaultCurrency
	}
	if req.Enrollment.Open != nil {
		p.Enrollment.Open = *req.Enrollment.Open
	}
	p.Enrollment.SeatsAvailable = req.Enrollment.SeatsAvailable
	p.Enrollment.StartsAt = req.Enrollment.StartsAt
	p.Enrollment.EndsAt = req.Enrollment.EndsAt
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.Featured = req.Featured
	p.SortOrder = req.SortOrder
	p.RecalculateTotal()
}

func mergeProgramUpdate(p *models.Program, req ProgramUpdateRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		p.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Duration != nil {
		p.Duration = models.ProgramDuration{Value: req.Duration.Value, Unit: req.Duration.Unit}
		if p.Duration.Unit == "" {
			p.Duration.Unit = models.DurationMonths
		}
	}
	if req.Modality != nil && *req.Modality != "" {
		p.Modality = *req.Modality
	}
	if req.Schedule != nil && *req.Schedule != "" {
		p.Schedule = *req.Schedule
	}
	if req.Requirements != nil {
		p.Requirements = req.Requirements
	}
	if req.Objectives != nil {
		p.Objectives = *req.Objectives
	}
	if req.GraduateProfile != nil {
		p.GraduateProfile = *req.GraduateProfile
	}
	if req.Competencies != nil {
		p.Competencies = req.Competencies
	}
	if req.JobField != nil {
		p.JobField = *req.JobField
	}
	if req.Subjects != nil {
		p.Subjects = req.Subjects
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Costs != nil {
		p.Costs.EnrollmentFee = req.Costs.EnrollmentFee
		p.Costs.MonthlyFee = req.Costs.MonthlyFee
		if req.Costs.Currency != "" {
			p.Costs.Currency = strings.ToUpper(req.Costs.Currency)
		}
	}
	if e := req.Enrollment; e != nil {
		if e.Open != nil {
			p.Enrollment.Open = *e.Open
		}
		if e.SetSeats || e.SeatsAvailable != nil {
			p.Enrollment.SeatsAvailable = e.SeatsAvailable
		}
		if e.StartsAt != nil {
			p.Enrollment.StartsAt = e.StartsAt
		}
		if e.EndsAt != nil {
			p.Enrollment.EndsAt = e.EndsAt
		}
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.SortOrder != nil {
		p.SortOrder = *req.SortOrder
	}
	p.RecalculateTotal()
}

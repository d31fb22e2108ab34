package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/repository"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const defaultEnrollmentPageSize = 20

const (
	msgEnrollmentNotFound       = "Inscripción no encontrada"
	msgProgramNotAvailable      = "Programa no válido o no disponible"
	msgEnrollmentsClosed        = "Las inscripciones para este programa están cerradas"
	msgNoSeatsForProgram        = "No hay cupos disponibles para este programa"
	msgOpenApplicationExists    = "Ya existe una solicitud activa con este documento o email"
	msgOnlyApprovedMatriculate  = "Solo se pueden matricular inscripciones aprobadas"
	msgAlreadyMatriculated      = "Esta inscripción ya fue matriculada"
	msgNoSeats                  = "No hay cupos disponibles"
	msgCannotCancelMatriculated = "No se puede cancelar una inscripción matriculada"
)

type enrollmentRepository interface {
	Create(ctx context.Context, e *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	HasOpenApplication(ctx context.Context, documentNumber, email string) (bool, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	Pending(ctx context.Context) ([]models.Enrollment, error)
	Search(ctx context.Context, term string) ([]models.Enrollment, error)
	Stats(ctx context.Context) (*models.EnrollmentStats, error)
	UpdateStatus(ctx context.Context, e *models.Enrollment, prev models.EnrollmentStatus) error
	UpdatePriority(ctx context.Context, id string, priority models.Priority) error
	Cancel(ctx context.Context, id string) error
}

type programReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type matriculator interface {
	Matriculate(ctx context.Context, enrollmentID string, req repository.AdmissionRequest) (*models.Student, error)
}

type programCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// CreateEnrollmentRequest is the public application form.
type CreateEnrollmentRequest struct {
	FullName          string                  `json:"nombreCompleto" validate:"notblank,max=200"`
	Document          models.Document         `json:"documento"`
	Email             string                  `json:"email" validate:"required,email"`
	Phone             string                  `json:"telefono" validate:"notblank,max=30"`
	BirthDate         *time.Time              `json:"fechaNacimiento"`
	Gender            string                  `json:"genero" validate:"omitempty,oneof=Masculino Femenino Otro 'Prefiero no decir'"`
	Address           models.Address          `json:"direccion"`
	ProgramID         string                  `json:"programa" validate:"required"`
	PreferredSchedule string                  `json:"jornadaPreferida" validate:"omitempty,oneof=Diurna Nocturna Mixta 'Fines de semana'"`
	EducationLevel    string                  `json:"nivelEducativo" validate:"max=100"`
	CurrentlyWorking  bool                    `json:"trabajaActualmente"`
	CurrentCompany    string                  `json:"empresaActual" validate:"max=200"`
	Motivation        string                  `json:"motivacion" validate:"max=1000"`
	Referral          string                  `json:"comoSeEntero" validate:"max=100"`
	EmergencyContact  models.EmergencyContact `json:"contactoEmergencia"`
}

// UpdateEnrollmentStatusRequest is the review decision.
type UpdateEnrollmentStatusRequest struct {
	Status          models.EnrollmentStatus `json:"estado" validate:"required,oneof=pendiente en_revision aprobado rechazado matriculado cancelado"`
	AdminNotes      *string                 `json:"observacionesAdmin" validate:"omitempty,max=1000"`
	RejectionReason string                  `json:"motivoRechazo" validate:"max=500"`
}

// UpdateEnrollmentPriorityRequest sets the triage priority.
type UpdateEnrollmentPriorityRequest struct {
	Priority models.Priority `json:"prioridad" validate:"required,oneof=baja media alta"`
}

// EnrollmentService handles applications and their conversion into students.
type EnrollmentService struct {
	repo         enrollmentRepository
	programs     programReader
	admissions   matriculator
	programCache programCacheInvalidator
	notifier     *NotificationService
	audit        auditRecorder
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, programs programReader, admissions matriculator, programCache programCacheInvalidator, notifier *NotificationService, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:         repo,
		programs:     programs,
		admissions:   admissions,
		programCache: programCache,
		notifier:     notifier,
		audit:        audit,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create records a public application after checking the program and duplicates.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "Error al crear la inscripción")
	}
	switch {
	case program == nil || !program.Active:
		return nil, businessRule(msgProgramNotAvailable)
	case !program.Enrollment.Open:
		return nil, businessRule(msgEnrollmentsClosed)
	case !program.HasSeats():
		return nil, businessRule(msgNoSeatsForProgram)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	documentNumber := strings.TrimSpace(req.Document.Number)
	exists, err := s.repo.HasOpenApplication(ctx, documentNumber, email)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al crear la inscripción")
	}
	if exists {
		return nil, businessRule(msgOpenApplicationExists)
	}

	schedule := req.PreferredSchedule
	if schedule == "" {
		schedule = program.Schedule
	}
	enrollment := &models.Enrollment{
		FullName:          strings.TrimSpace(req.FullName),
		Document:          models.Document{Type: req.Document.Type, Number: documentNumber},
		Email:             email,
		Phone:             strings.TrimSpace(req.Phone),
		BirthDate:         req.BirthDate,
		Gender:            req.Gender,
		Address:           req.Address,
		ProgramID:         program.ID,
		ProgramName:       program.Name,
		PreferredSchedule: schedule,
		EducationLevel:    req.EducationLevel,
		CurrentlyWorking:  req.CurrentlyWorking,
		CurrentCompany:    req.CurrentCompany,
		Motivation:        req.Motivation,
		Referral:          req.Referral,
		EmergencyContact:  req.EmergencyContact,
		Status:            models.EnrollmentPending,
		Priority:          models.PriorityMedium,
		SubmittedAt:       s.now(),
		Active:            true,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, writeError(err, msgEnrollmentNotFound, "Error al crear la inscripción")
	}

	s.metrics.RecordEnrollmentSubmitted()
	s.notifier.EnrollmentReceived(ctx, enrollment)
	s.logger.Info("enrollment submitted",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("program_id", enrollment.ProgramID),
	)

	view := enrollment.View()
	return &view, nil
}

// List returns applications newest first.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentView, *models.Pagination, error) {
	filter.PageQuery = filter.PageQuery.Normalize(defaultEnrollmentPageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener inscripciones")
	}
	return models.EnrollmentViews(items), models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Pending returns pending applications, oldest first.
func (s *EnrollmentService) Pending(ctx context.Context) ([]models.EnrollmentView, error) {
	items, err := s.repo.Pending(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al obtener inscripciones pendientes")
	}
	return models.EnrollmentViews(items), nil
}

// Stats returns counts per status and program.
func (s *EnrollmentService) Stats(ctx context.Context) (*models.EnrollmentStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al obtener estadísticas")
	}
	return stats, nil
}

// Search matches applicant name, e-mail or document number.
func (s *EnrollmentService) Search(ctx context.Context, q string) ([]models.EnrollmentView, error) {
	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al buscar inscripciones")
	}
	return models.EnrollmentViews(items), nil
}

// Get returns one application.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentView, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgEnrollmentNotFound, "Error al obtener la inscripción")
	}
	view := enrollment.View()
	return &view, nil
}

// UpdateStatus applies a review decision. The write only lands if nobody changed the status meanwhile.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateEnrollmentStatusRequest, actorID string) (*models.EnrollmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgEnrollmentNotFound, "Error al actualizar la inscripción")
	}

	prev := enrollment.Status
	if !prev.CanTransitionTo(req.Status) {
		return nil, businessRule(fmt.Sprintf("No se puede cambiar el estado de %s a %s", prev, req.Status))
	}

	now := s.now()
	enrollment.Status = req.Status
	enrollment.ReviewedBy = strPtr(actorID)
	enrollment.ReviewedAt = &now
	if req.AdminNotes != nil {
		enrollment.AdminNotes = strings.TrimSpace(*req.AdminNotes)
	}
	switch req.Status {
	case models.EnrollmentApproved:
		enrollment.RespondedAt = &now
	case models.EnrollmentRejected:
		if reason := strings.TrimSpace(req.RejectionReason); reason != "" {
			enrollment.RejectionReason = reason
			enrollment.RespondedAt = &now
		}
	}

	if err := s.repo.UpdateStatus(ctx, enrollment, prev); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			return nil, retryable(err, "La inscripción fue modificada por otro usuario, intenta nuevamente")
		}
		return nil, lookupError(err, msgEnrollmentNotFound, "Error al actualizar la inscripción")
	}

	if prev != req.Status {
		s.notifier.EnrollmentDecided(ctx, enrollment)
	}

	view := enrollment.View()
	return &view, nil
}

// UpdatePriority sets the triage priority.
func (s *EnrollmentService) UpdatePriority(ctx context.Context, id string, req UpdateEnrollmentPriorityRequest) (*models.EnrollmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.repo.UpdatePriority(ctx, id, req.Priority); err != nil {
		return nil, lookupError(err, msgEnrollmentNotFound, "Error al actualizar la prioridad")
	}
	return s.Get(ctx, id)
}

// Cancel marks an application cancelled. Matriculated applications are kept.
func (s *EnrollmentService) Cancel(ctx context.Context, id string) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, msgEnrollmentNotFound, "Error al cancelar la inscripción")
	}
	if enrollment.Status == models.EnrollmentMatriculated {
		return businessRule(msgCannotCancelMatriculated)
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotApplied) {
			return businessRule(msgCannotCancelMatriculated)
		}
		return lookupError(err, msgEnrollmentNotFound, "Error al cancelar la inscripción")
	}
	return nil
}

// Matriculate converts an approved application into a student with a fresh access code.
func (s *EnrollmentService) Matriculate(ctx context.Context, id, actorID string) (*models.Matriculation, error) {
	code, hash, err := issueAccessCode()
	if err != nil {
		s.metrics.RecordMatriculation(ResultError)
		return nil, appErrors.Internal(err, "Error al matricular")
	}

	student, err := s.admissions.Matriculate(ctx, id, repository.AdmissionRequest{
		AccessCodeHash: hash,
		ActorID:        actorID,
		Now:            s.now(),
	})
	if err != nil {
		appErr, result := matriculationError(err)
		s.metrics.RecordMatriculation(result)
		if result == ResultError {
			s.logger.Error("matriculation failed", zap.String("enrollment_id", id), zap.Error(err))
		}
		return nil, appErr
	}

	s.metrics.RecordMatriculation(ResultSuccess)
	if s.programCache != nil {
		s.programCache.Invalidate(ctx)
	}
	s.emitAudit(ctx, actorID, id, student)
	s.logger.Info("enrollment matriculated",
		zap.String("enrollment_id", id),
		zap.String("student_id", student.ID),
		zap.String("student_code", student.StudentCode),
	)

	return &models.Matriculation{
		Student:    student.View(),
		AccessCode: code,
		Message:    "Estudiante matriculado exitosamente. Entrega el código de acceso al estudiante.",
	}, nil
}

func matriculationError(err error) (*appErrors.Error, string) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, msgEnrollmentNotFound), ResultRejected
	case errors.Is(err, repository.ErrEnrollmentNotApproved):
		return businessRule(msgOnlyApprovedMatriculate), ResultRejected
	case errors.Is(err, repository.ErrAlreadyMatriculated):
		return businessRule(msgAlreadyMatriculated), ResultRejected
	case errors.Is(err, repository.ErrNoSeatsAvailable):
		return businessRule(msgNoSeats), ResultRejected
	}
	appErr := writeError(err, msgEnrollmentNotFound, "Error al matricular")
	if appErr.Code == appErrors.ErrRetryable.Code || appErr.Code == appErrors.ErrDuplicate.Code {
		return appErr, ResultConflict
	}
	return appErr, ResultError
}

func (s *EnrollmentService) emitAudit(ctx context.Context, actorID, enrollmentID string, student *models.Student) {
	if s.audit == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{
		"estudianteId":     student.ID,
		"codigoEstudiante": student.StudentCode,
	})
	log := &models.AuditLog{
		PrincipalID:   strPtr(actorID),
		PrincipalKind: string(models.PrincipalUser),
		Action:        models.AuditActionMatriculate,
		Resource:      "inscripciones",
		ResourceID:    strPtr(enrollmentID),
		Path:          "/api/inscripciones/:id/matricular",
		Status:        http.StatusOK,
		Details:       details,
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record matriculation audit", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}

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

const defaultStudentPageSize = 20

const msgStudentNotFound = "Estudiante no encontrado"

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Search(ctx context.Context, term string) ([]models.Student, error)
	Update(ctx context.Context, s *models.Student) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus, graduatedAt *time.Time, updatedBy string) error
	UpdateAccessCode(ctx context.Context, id, hash, updatedBy string) error
	Deactivate(ctx context.Context, id, updatedBy string) error
}

type studentRegistrar interface {
	Register(ctx context.Context, student *models.Student, req repository.AdmissionRequest) error
}

// RegisterStudentRequest is a direct registration by staff.
type RegisterStudentRequest struct {
	FirstName        string                  `json:"nombre" validate:"notblank,max=100"`
	LastName         string                  `json:"apellido" validate:"notblank,max=100"`
	Document         models.Document         `json:"documento"`
	Email            string                  `json:"email" validate:"required,email"`
	Phone            string                  `json:"telefono" validate:"notblank,max=30"`
	BirthDate        *time.Time              `json:"fechaNacimiento"`
	Gender           string                  `json:"genero" validate:"omitempty,oneof=Masculino Femenino Otro 'Prefiero no decir'"`
	Address          models.Address          `json:"direccion"`
	ProgramID        string                  `json:"programa" validate:"required"`
	Schedule         string                  `json:"jornada" validate:"omitempty,oneof=Diurna Nocturna Mixta 'Fines de semana'"`
	StartDate        *time.Time              `json:"fechaInicio"`
	EmergencyContact models.EmergencyContact `json:"contactoEmergencia"`
	Photo            string                  `json:"foto" validate:"omitempty,url"`
	Notes            string                  `json:"observaciones" validate:"max=1000"`
}

// UpdateStudentRequest edits the profile. Codes and program cannot change here.
type UpdateStudentRequest struct {
	FirstName        *string                  `json:"nombre" validate:"omitempty,notblank,max=100"`
	LastName         *string                  `json:"apellido" validate:"omitempty,notblank,max=100"`
	Document         *models.Document         `json:"documento"`
	Email            *string                  `json:"email" validate:"omitempty,email"`
	Phone            *string                  `json:"telefono" validate:"omitempty,max=30"`
	BirthDate        *time.Time               `json:"fechaNacimiento"`
	Gender           *string                  `json:"genero" validate:"omitempty,oneof=Masculino Femenino Otro 'Prefiero no decir'"`
	Address          *models.Address          `json:"direccion"`
	Schedule         *string                  `json:"jornada" validate:"omitempty,oneof=Diurna Nocturna Mixta 'Fines de semana'"`
	StartDate        *time.Time               `json:"fechaInicio"`
	EmergencyContact *models.EmergencyContact `json:"contactoEmergencia"`
	Photo            *string                  `json:"foto" validate:"omitempty,url"`
	Notes            *string                  `json:"observaciones" validate:"omitempty,max=1000"`
}

// UpdateStudentStatusRequest changes the academic status.
type UpdateStudentStatusRequest struct {
	Status models.StudentStatus `json:"estado" validate:"required,oneof=activo inactivo graduado retirado suspendido"`
}

// StudentService manages matriculated students.
type StudentService struct {
	repo         studentRepository
	programs     programReader
	registrar    studentRegistrar
	programCache programCacheInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, programs programReader, registrar studentRegistrar, programCache programCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:         repo,
		programs:     programs,
		registrar:    registrar,
		programCache: programCache,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a student directly, consuming a program seat, and returns the one-time access code.
func (s *StudentService) Register(ctx context.Context, req RegisterStudentRequest, actorID string) (*models.Matriculation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "Error al registrar el estudiante")
	}
	if program == nil || !program.Active {
		return nil, businessRule("Programa no válido o inactivo")
	}
	if !program.HasSeats() {
		return nil, businessRule(msgNoSeatsForProgram)
	}

	code, hash, err := issueAccessCode()
	if err != nil {
		return nil, appErrors.Internal(err, "Error al registrar el estudiante")
	}

	now := s.now()
	schedule := req.Schedule
	if schedule == "" {
		schedule = program.Schedule
	}
	student := &models.Student{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Document:         models.Document{Type: req.Document.Type, Number: strings.TrimSpace(req.Document.Number)},
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:            strings.TrimSpace(req.Phone),
		BirthDate:        req.BirthDate,
		Gender:           req.Gender,
		Address:          req.Address,
		ProgramID:        program.ID,
		ProgramName:      program.Name,
		Status:           models.StudentActive,
		Schedule:         schedule,
		EnrolledAt:       now,
		StartDate:        req.StartDate,
		EmergencyContact: req.EmergencyContact,
		Photo:            req.Photo,
		Notes:            req.Notes,
	}

	err = s.registrar.Register(ctx, student, repository.AdmissionRequest{AccessCodeHash: hash, ActorID: actorID, Now: now})
	if err != nil {
		if errors.Is(err, repository.ErrNoSeatsAvailable) {
			return nil, businessRule(msgNoSeatsForProgram)
		}
		return nil, writeError(err, msgStudentNotFound, "Error al registrar el estudiante")
	}

	if s.programCache != nil {
		s.programCache.Invalidate(ctx)
	}
	s.logger.Info("student registered",
		zap.String("student_id", student.ID),
		zap.String("student_code", student.StudentCode),
		zap.String("program_id", student.ProgramID),
	)

	return &models.Matriculation{
		Student:    student.View(),
		AccessCode: code,
		Message:    "Estudiante registrado exitosamente. Entrega el código de acceso al estudiante.",
	}, nil
}

// List returns students, newest enrollment first.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, *models.Pagination, error) {
	filter.PageQuery = filter.PageQuery.Normalize(defaultStudentPageSize)
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener estudiantes")
	}
	return models.StudentViews(students), models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Search matches names, e-mail, student code or document number.
func (s *StudentService) Search(ctx context.Context, q string) ([]models.StudentView, error) {
	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}
	students, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al buscar estudiantes")
	}
	return models.StudentViews(students), nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentView, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgStudentNotFound, "Error al obtener el estudiante")
	}
	view := student.View()
	return &view, nil
}

// Update edits the profile fields provided.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest, actorID string) (*models.StudentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgStudentNotFound, "Error al actualizar el estudiante")
	}

	if req.FirstName != nil {
		student.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		student.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Document != nil {
		student.Document = models.Document{Type: req.Document.Type, Number: strings.TrimSpace(req.Document.Number)}
	}
	if req.Email != nil {
		student.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		student.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.BirthDate != nil {
		student.BirthDate = req.BirthDate
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.Address != nil {
		student.Address = *req.Address
	}
	if req.Schedule != nil {
		student.Schedule = *req.Schedule
	}
	if req.StartDate != nil {
		student.StartDate = req.StartDate
	}
	if req.EmergencyContact != nil {
		student.EmergencyContact = *req.EmergencyContact
	}
	if req.Photo != nil {
		student.Photo = *req.Photo
	}
	if req.Notes != nil {
		student.Notes = *req.Notes
	}
	student.UpdatedBy = strPtr(actorID)

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, writeError(err, msgStudentNotFound, "Error al actualizar el estudiante")
	}
	view := student.View()
	return &view, nil
}

// UpdateStatus changes the academic status. Graduation stamps the date.
func (s *StudentService) UpdateStatus(ctx context.Context, id string, req UpdateStudentStatusRequest, actorID string) (*models.StudentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	var graduatedAt *time.Time
	if req.Status == models.StudentGraduated {
		now := s.now()
		graduatedAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, graduatedAt, actorID); err != nil {
		return nil, lookupError(err, msgStudentNotFound, "Error al actualizar el estado")
	}
	return s.Get(ctx, id)
}

// ResetAccessCode issues a new access code and returns the plaintext once.
func (s *StudentService) ResetAccessCode(ctx context.Context, id, actorID string) (string, error) {
	code, hash, err := issueAccessCode()
	if err != nil {
		return "", appErrors.Internal(err, "Error al resetear el código de acceso")
	}
	if err := s.repo.UpdateAccessCode(ctx, id, hash, actorID); err != nil {
		return "", writeError(err, msgStudentNotFound, "Error al resetear el código de acceso")
	}
	s.logger.Info("student access code reset", zap.String("student_id", id), zap.String("actor_id", actorID))
	return code, nil
}

// Deactivate soft deletes a student.
func (s *StudentService) Deactivate(ctx context.Context, id, actorID string) error {
	if err := s.repo.Deactivate(ctx, id, actorID); err != nil {
		return lookupError(err, msgStudentNotFound, "Error al desactivar el estudiante")
	}
	return nil
}

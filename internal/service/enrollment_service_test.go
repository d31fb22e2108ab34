package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/repository"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

type fakeEnrollmentRepo struct {
	items        map[string]*models.Enrollment
	openExists   bool
	created      []*models.Enrollment
	updateErr    error
	lastPrev     models.EnrollmentStatus
	cancelled    []string
	listedFilter models.EnrollmentFilter
}

func newFakeEnrollmentRepo(items ...*models.Enrollment) *fakeEnrollmentRepo {
	repo := &fakeEnrollmentRepo{items: map[string]*models.Enrollment{}}
	for _, e := range items {
		repo.items[e.ID] = e
	}
	return repo
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, e *models.Enrollment) error {
	e.ID = "e-new"
	f.created = append(f.created, e)
	f.items[e.ID] = e
	return nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEnrollmentRepo) HasOpenApplication(ctx context.Context, documentNumber, email string) (bool, error) {
	return f.openExists, nil
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	f.listedFilter = filter
	out := []models.Enrollment{}
	for _, e := range f.items {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (f *fakeEnrollmentRepo) Pending(ctx context.Context) ([]models.Enrollment, error) {
	return []models.Enrollment{}, nil
}

func (f *fakeEnrollmentRepo) Search(ctx context.Context, term string) ([]models.Enrollment, error) {
	return []models.Enrollment{}, nil
}

func (f *fakeEnrollmentRepo) Stats(ctx context.Context) (*models.EnrollmentStats, error) {
	return &models.EnrollmentStats{}, nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, e *models.Enrollment, prev models.EnrollmentStatus) error {
	f.lastPrev = prev
	if f.updateErr != nil {
		return f.updateErr
	}
	clone := *e
	f.items[e.ID] = &clone
	return nil
}

func (f *fakeEnrollmentRepo) UpdatePriority(ctx context.Context, id string, priority models.Priority) error {
	e, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Priority = priority
	return nil
}

func (f *fakeEnrollmentRepo) Cancel(ctx context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeMatriculator struct {
	student *models.Student
	err     error
	req     repository.AdmissionRequest
}

func (f *fakeMatriculator) Matriculate(ctx context.Context, enrollmentID string, req repository.AdmissionRequest) (*models.Student, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

type invalidationCounter struct{ calls int }

func (c *invalidationCounter) Invalidate(ctx context.Context) { c.calls++ }

type auditStub struct{ logs []*models.AuditLog }

func (a *auditStub) Create(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type enrollmentFixture struct {
	svc       *EnrollmentService
	repo      *fakeEnrollmentRepo
	programs  *fakeProgramRepo
	admission *fakeMatriculator
	cache     *invalidationCounter
	audit     *auditStub
	queue     *recordingQueue
	metrics   *MetricsService
}

func newEnrollmentFixture(items ...*models.Enrollment) *enrollmentFixture {
	f := &enrollmentFixture{
		repo: newFakeEnrollmentRepo(items...),
		programs: newFakeProgramRepo(
			&models.Program{ID: "open", Name: "Sistemas", Schedule: "Nocturna", Active: true, Enrollment: models.ProgramEnrollment{Open: true}},
			&models.Program{ID: "closed", Active: true},
			&models.Program{ID: "full", Active: true, Enrollment: models.ProgramEnrollment{Open: true, SeatsAvailable: intPtr(2), SeatsTaken: 2}},
			&models.Program{ID: "retired", Active: false, Enrollment: models.ProgramEnrollment{Open: true}},
		),
		admission: &fakeMatriculator{},
		cache:     &invalidationCounter{},
		audit:     &auditStub{},
		queue:     &recordingQueue{},
		metrics:   NewMetricsService(),
	}
	notifier := NewNotificationService(f.queue, nil, nil, true)
	f.svc = NewEnrollmentService(f.repo, f.programs, f.admission, f.cache, notifier, f.audit, f.metrics, nil, nil)
	return f
}

func validEnrollmentRequest(programID string) CreateEnrollmentRequest {
	return CreateEnrollmentRequest{
		FullName:         "  Ana María Gómez ",
		Document:         models.Document{Type: models.DocumentCC, Number: " 1020304050 "},
		Email:            "Ana@Example.com",
		Phone:            "3001234567",
		ProgramID:        programID,
		EmergencyContact: models.EmergencyContact{Name: "Luis Gómez", Relation: "Padre", Phone: "3007654321"},
	}
}

func TestEnrollmentServiceCreate(t *testing.T) {
	f := newEnrollmentFixture()

	view, err := f.svc.Create(context.Background(), validEnrollmentRequest("open"))
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, view.Status)
	assert.Equal(t, models.PriorityMedium, view.Priority)
	assert.Equal(t, "ana@example.com", view.Email)
	assert.Equal(t, "Ana María Gómez", view.FullName)
	assert.Equal(t, "CC 1020304050", view.FullDocument)
	assert.Equal(t, "Nocturna", view.PreferredSchedule)
	assert.True(t, view.Active)

	require.Len(t, f.queue.jobs, 1)
	assert.Contains(t, scrape(t, f.metrics), "enrollments_submitted_total 1")
}

func TestEnrollmentServiceCreateRules(t *testing.T) {
	cases := []struct {
		name    string
		program string
		open    bool
		message string
	}{
		{name: "unknown program", program: "missing", message: "Programa no válido o no disponible"},
		{name: "inactive program", program: "retired", message: "Programa no válido o no disponible"},
		{name: "closed program", program: "closed", message: "Las inscripciones para este programa están cerradas"},
		{name: "no seats", program: "full", message: "No hay cupos disponibles para este programa"},
		{name: "open application", program: "open", open: true, message: "Ya existe una solicitud activa con este documento o email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEnrollmentFixture()
			f.repo.openExists = tc.open

			_, err := f.svc.Create(context.Background(), validEnrollmentRequest(tc.program))
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Empty(t, f.repo.created)
			assert.Empty(t, f.queue.jobs)
		})
	}
}

func TestEnrollmentServiceCreateValidation(t *testing.T) {
	f := newEnrollmentFixture()
	req := validEnrollmentRequest("open")
	req.Email = "not-an-email"
	req.Document.Type = "NIT"

	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEnrollmentServiceUpdateStatus(t *testing.T) {
	f := newEnrollmentFixture(&models.Enrollment{ID: "e1", Email: "a@b.co", FullName: "Ana", Status: models.EnrollmentPending})

	notes := "Documentos completos"
	view, err := f.svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentApproved, AdminNotes: &notes}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentApproved, view.Status)
	assert.Equal(t, models.EnrollmentPending, f.repo.lastPrev)
	require.NotNil(t, view.ReviewedBy)
	assert.Equal(t, "admin-1", *view.ReviewedBy)
	assert.NotNil(t, view.ReviewedAt)
	assert.NotNil(t, view.RespondedAt)
	assert.Equal(t, notes, view.AdminNotes)
	assert.Len(t, f.queue.jobs, 1)

	// Re-setting the same state only edits notes and sends nothing.
	_, err = f.svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentApproved}, "admin-1")
	require.NoError(t, err)
	assert.Len(t, f.queue.jobs, 1)
}

func TestEnrollmentServiceUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	f := newEnrollmentFixture(
		&models.Enrollment{ID: "approved", Status: models.EnrollmentApproved},
		&models.Enrollment{ID: "done", Status: models.EnrollmentMatriculated},
	)

	_, err := f.svc.UpdateStatus(context.Background(), "approved", UpdateEnrollmentStatusRequest{Status: models.EnrollmentPending}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	_, err = f.svc.UpdateStatus(context.Background(), "approved", UpdateEnrollmentStatusRequest{Status: models.EnrollmentMatriculated}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	_, err = f.svc.UpdateStatus(context.Background(), "done", UpdateEnrollmentStatusRequest{Status: models.EnrollmentMatriculated}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	_, err = f.svc.UpdateStatus(context.Background(), "missing", UpdateEnrollmentStatusRequest{Status: models.EnrollmentApproved}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEnrollmentServiceUpdateStatusConcurrentChange(t *testing.T) {
	f := newEnrollmentFixture(&models.Enrollment{ID: "e1", Status: models.EnrollmentInReview})
	f.repo.updateErr = repository.ErrNotApplied

	_, err := f.svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentRejected, RejectionReason: "Cupo"}, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrRetryable)
	assert.Empty(t, f.queue.jobs)
}

func TestEnrollmentServiceRejectionSetsReason(t *testing.T) {
	f := newEnrollmentFixture(&models.Enrollment{ID: "e1", Email: "a@b.co", Status: models.EnrollmentInReview})

	view, err := f.svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentRejected, RejectionReason: " Documentos ilegibles "}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Documentos ilegibles", view.RejectionReason)
	assert.NotNil(t, view.RespondedAt)
}

func TestEnrollmentServiceCancel(t *testing.T) {
	f := newEnrollmentFixture(
		&models.Enrollment{ID: "e1", Status: models.EnrollmentPending},
		&models.Enrollment{ID: "e2", Status: models.EnrollmentMatriculated},
	)

	require.NoError(t, f.svc.Cancel(context.Background(), "e1"))
	assert.Equal(t, []string{"e1"}, f.repo.cancelled)

	err := f.svc.Cancel(context.Background(), "e2")
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)
}

func TestEnrollmentServiceMatriculate(t *testing.T) {
	f := newEnrollmentFixture()
	f.admission.student = &models.Student{ID: "s1", FirstName: "Ana", LastName: "Gómez", StudentCode: "EST20240001", Status: models.StudentActive, Active: true}

	result, err := f.svc.Matriculate(context.Background(), "e1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "EST20240001", result.Student.StudentCode)
	assert.Equal(t, "Ana Gómez", result.Student.FullNameText)
	assert.Len(t, result.AccessCode, 8)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, result.AccessCode)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.admission.req.AccessCodeHash), []byte(result.AccessCode)))
	assert.Equal(t, "admin-1", f.admission.req.ActorID)

	assert.Equal(t, 1, f.cache.calls)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionMatriculate, f.audit.logs[0].Action)
	assert.Equal(t, "e1", *f.audit.logs[0].ResourceID)
	assert.Contains(t, scrape(t, f.metrics), `matriculations_total{result="success"} 1`)
}

func TestEnrollmentServiceMatriculateFailures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    *appErrors.Error
		message string
		result  string
	}{
		{name: "not approved", err: repository.ErrEnrollmentNotApproved, kind: appErrors.ErrBusinessRule, message: "Solo se pueden matricular inscripciones aprobadas", result: ResultRejected},
		{name: "already matriculated", err: repository.ErrAlreadyMatriculated, kind: appErrors.ErrBusinessRule, message: "Esta inscripción ya fue matriculada", result: ResultRejected},
		{name: "no seats", err: repository.ErrNoSeatsAvailable, kind: appErrors.ErrBusinessRule, message: "No hay cupos disponibles", result: ResultRejected},
		{name: "unknown", err: sql.ErrNoRows, kind: appErrors.ErrNotFound, message: "Inscripción no encontrada", result: ResultRejected},
		{name: "code collision", err: &pq.Error{Code: "23505", Constraint: "students_student_code_key"}, kind: appErrors.ErrRetryable, result: ResultConflict},
		{name: "serialization", err: &pq.Error{Code: "40001"}, kind: appErrors.ErrRetryable, result: ResultConflict},
		{name: "database down", err: errors.New("connection refused"), kind: appErrors.ErrInternal, result: ResultError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEnrollmentFixture()
			f.admission.err = tc.err

			_, err := f.svc.Matriculate(context.Background(), "e1", "admin-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			if tc.message != "" {
				assert.Equal(t, tc.message, appErrors.FromError(err).Message)
			}
			assert.Contains(t, scrape(t, f.metrics), `matriculations_total{result="`+tc.result+`"} 1`)
			assert.Zero(t, f.cache.calls)
			assert.Empty(t, f.audit.logs)
		})
	}
}

func TestEnrollmentServiceListAndSearch(t *testing.T) {
	f := newEnrollmentFixture(&models.Enrollment{ID: "e1"})

	items, page, err := f.svc.List(context.Background(), models.EnrollmentFilter{Status: models.EnrollmentPending})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, models.EnrollmentPending, f.repo.listedFilter.Status)

	_, err = f.svc.Search(context.Background(), "an")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEnrollmentServiceUpdatePriority(t *testing.T) {
	f := newEnrollmentFixture(&models.Enrollment{ID: "e1", Priority: models.PriorityMedium})

	view, err := f.svc.UpdatePriority(context.Background(), "e1", UpdateEnrollmentPriorityRequest{Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, view.Priority)

	_, err = f.svc.UpdatePriority(context.Background(), "e1", UpdateEnrollmentPriorityRequest{Priority: "urgente"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const (
	defaultTestimonialPageSize      = 10
	defaultAdminTestimonialPageSize = 20
	defaultTestimonialRating        = 5
	msgTestimonialNotFound          = "Testimonio no encontrado"
)

type testimonialRepository interface {
	List(ctx context.Context, filter models.TestimonialFilter) ([]models.Testimonial, int, error)
	Pending(ctx context.Context) ([]models.Testimonial, error)
	FindByID(ctx context.Context, id string) (*models.Testimonial, error)
	Create(ctx context.Context, t *models.Testimonial) error
	Update(ctx context.Context, t *models.Testimonial) error
	Approve(ctx context.Context, id, approvedBy string, at time.Time) (*models.Testimonial, error)
	Reject(ctx context.Context, id string) (*models.Testimonial, error)
	SetFeatured(ctx context.Context, id string, featured bool) (*models.Testimonial, error)
	Deactivate(ctx context.Context, id string) error
}

// TestimonialRequest is the payload for submitting or editing a testimonial.
type TestimonialRequest struct {
	FirstName  string `json:"nombre" validate:"notblank,max=100"`
	LastName   string `json:"apellido" validate:"notblank,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Photo      string `json:"foto" validate:"omitempty,url"`
	Body       string `json:"testimonio" validate:"required,min=50,max=1000"`
	Program    string `json:"programa" validate:"notblank,max=200"`
	Cohort     string `json:"promocion" validate:"notblank,max=20"`
	Occupation string `json:"ocupacionActual" validate:"max=200"`
	Company    string `json:"empresaActual" validate:"max=200"`
	Rating     *int   `json:"calificacion" validate:"omitempty,min=1,max=5"`
	Featured   bool   `json:"destacado"`
}

// TestimonialFeatureRequest marks or unmarks a testimonial. A missing value means true.
type TestimonialFeatureRequest struct {
	Featured *bool `json:"destacado"`
}

// TestimonialService manages graduate testimonials and their moderation.
type TestimonialService struct {
	repo      testimonialRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTestimonialService constructs the testimonial service.
func NewTestimonialService(repo testimonialRepository, validate *validator.Validate, logger *zap.Logger) *TestimonialService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestimonialService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ListPublic returns approved, active testimonials by publication date.
func (s *TestimonialService) ListPublic(ctx context.Context, filter models.TestimonialFilter) ([]models.TestimonialView, *models.Pagination, error) {
	filter.PublicOnly = true
	filter.Approved = nil
	filter.Active = nil
	filter.PageQuery = filter.PageQuery.Normalize(defaultTestimonialPageSize)
	return s.list(ctx, filter)
}

// ListAdmin returns every testimonial for moderation.
func (s *TestimonialService) ListAdmin(ctx context.Context, filter models.TestimonialFilter) ([]models.TestimonialView, *models.Pagination, error) {
	filter.PublicOnly = false
	filter.PageQuery = filter.PageQuery.Normalize(defaultAdminTestimonialPageSize)
	return s.list(ctx, filter)
}

func (s *TestimonialService) list(ctx context.Context, filter models.TestimonialFilter) ([]models.TestimonialView, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener testimonios")
	}
	return models.TestimonialViews(items), models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Pending returns testimonials awaiting approval.
func (s *TestimonialService) Pending(ctx context.Context) ([]models.TestimonialView, error) {
	items, err := s.repo.Pending(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al obtener testimonios pendientes")
	}
	return models.TestimonialViews(items), nil
}

// GetPublic returns a testimonial only when it is approved and active.
func (s *TestimonialService) GetPublic(ctx context.Context, id string) (*models.TestimonialView, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgTestimonialNotFound, "Error al obtener el testimonio")
	}
	if !t.Public() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgTestimonialNotFound)
	}
	view := t.View()
	return &view, nil
}

// Submit stores a public submission awaiting moderation.
func (s *TestimonialService) Submit(ctx context.Context, req TestimonialRequest) (*models.TestimonialView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	t := &models.Testimonial{Active: true}
	applyTestimonialRequest(t, req)
	t.Featured = false

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, appErrors.Internal(err, "Error al enviar el testimonio")
	}
	s.logger.Info("testimonial submitted", zap.String("testimonial_id", t.ID))
	view := t.View()
	return &view, nil
}

// Update edits the content of a testimonial. Moderation state is untouched.
func (s *TestimonialService) Update(ctx context.Context, id string, req TestimonialRequest) (*models.TestimonialView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgTestimonialNotFound, "Error al actualizar el testimonio")
	}
	applyTestimonialRequest(t, req)

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, lookupError(err, msgTestimonialNotFound, "Error al actualizar el testimonio")
	}
	view := t.View()
	return &view, nil
}

// Approve publishes a testimonial.
func (s *TestimonialService) Approve(ctx context.Context, id, actorID string) (*models.TestimonialView, error) {
	t, err := s.repo.Approve(ctx, id, actorID, s.now())
	if err != nil {
		return nil, lookupError(err, msgTestimonialNotFound, "Error al aprobar el testimonio")
	}
	s.logger.Info("testimonial approved", zap.String("testimonial_id", id), zap.String("approved_by", actorID))
	view := t.View()
	return &view, nil
}

// Reject hides a testimonial.
func (s *TestimonialService) Reject(ctx context.Context, id string) (*models.TestimonialView, error) {
	t, err := s.repo.Reject(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgTestimonialNotFound, "Error al rechazar el testimonio")
	}
	view := t.View()
	return &view, nil
}

// SetFeatured marks or unmarks a testimonial as featured.
func (s *TestimonialService) SetFeatured(ctx context.Context, id string, req TestimonialFeatureRequest) (*models.TestimonialView, error) {
	featured := req.Featured == nil || *req.Featured
	t, err := s.repo.SetFeatured(ctx, id, featured)
	if err != nil {
		return nil, lookupError(err, msgTestimonialNotFound, "Error al actualizar destacado")
	}
	view := t.View()
	return &view, nil
}

// Delete soft deletes a testimonial.
func (s *TestimonialService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, msgTestimonialNotFound, "Error al eliminar el testimonio")
	}
	return nil
}

func applyTestimonialRequest(t *models.Testimonial, req TestimonialRequest) {
	t.FirstName = strings.TrimSpace(req.FirstName)
	t.LastName = strings.TrimSpace(req.LastName)
	t.Email = strings.ToLower(strings.TrimSpace(req.Email))
	t.Photo = req.Photo
	t.Body = strings.TrimSpace(req.Body)
	t.Program = strings.TrimSpace(req.Program)
	t.Cohort = strings.TrimSpace(req.Cohort)
	t.Occupation = strings.TrimSpace(req.Occupation)
	t.Company = strings.TrimSpace(req.Company)
	t.Rating = defaultTestimonialRating
	if req.Rating != nil {
		t.Rating = *req.Rating
	}
	t.Featured = req.Featured
}

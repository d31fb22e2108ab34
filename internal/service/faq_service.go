package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

const (
	defaultFAQPageSize = 50
	msgFAQNotFound     = "FAQ no encontrada"
)

type faqRepository interface {
	ListPublic(ctx context.Context, category string) ([]models.FAQ, error)
	List(ctx context.Context, filter models.FAQFilter) ([]models.FAQ, int, error)
	Search(ctx context.Context, term string) ([]models.FAQ, error)
	FindByID(ctx context.Context, id string) (*models.FAQ, error)
	View(ctx context.Context, id string) (*models.FAQ, error)
	Vote(ctx context.Context, id string, helpful bool) (*models.FAQ, error)
	Toggle(ctx context.Context, id, updatedBy string) (*models.FAQ, error)
	SetOrder(ctx context.Context, id string, order int, updatedBy string) (*models.FAQ, error)
	Create(ctx context.Context, faq *models.FAQ) error
	Update(ctx context.Context, faq *models.FAQ) error
	Deactivate(ctx context.Context, id, updatedBy string) error
	Stats(ctx context.Context) (*models.FAQStats, error)
}

// FAQRequest is the payload for creating or replacing a FAQ.
type FAQRequest struct {
	Question  string `json:"pregunta" validate:"notblank,max=500"`
	Answer    string `json:"respuesta" validate:"notblank,max=5000"`
	Category  string `json:"categoria" validate:"required,oneof=Inscripción Programas Pagos General Servicios Requisitos Horarios"`
	SortOrder int    `json:"orden" validate:"min=0"`
	Active    *bool  `json:"activo"`
}

// FAQVoteRequest records whether an answer was useful.
type FAQVoteRequest struct {
	Helpful *bool `json:"util" validate:"required"`
}

// FAQOrderRequest changes the display position.
type FAQOrderRequest struct {
	SortOrder *int `json:"orden" validate:"required,min=0"`
}

// FAQListing is the cacheable public listing: grouped unless a category was requested.
type FAQListing struct {
	Category string            `json:"categoria,omitempty"`
	FAQs     []models.FAQ      `json:"faqs,omitempty"`
	Groups   []models.FAQGroup `json:"grupos,omitempty"`
}

// FAQService manages frequently asked questions.
type FAQService struct {
	repo      faqRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFAQService constructs the FAQ service.
func NewFAQService(repo faqRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FAQService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FAQService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListPublic returns active FAQs by display order, grouped by category unless one is requested.
func (s *FAQService) ListPublic(ctx context.Context, category string) (*FAQListing, bool, error) {
	category = strings.TrimSpace(category)

	var listing FAQListing
	hit, err := s.cache.Remember(ctx, spaceFAQs.key("publicas", category), &listing, func() error {
		faqs, err := s.repo.ListPublic(ctx, category)
		if err != nil {
			return err
		}
		if faqs == nil {
			faqs = []models.FAQ{}
		}
		if category != "" {
			listing = FAQListing{Category: category, FAQs: faqs}
			return nil
		}
		listing = FAQListing{Groups: models.GroupFAQs(faqs)}
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "Error al obtener preguntas frecuentes")
	}
	return &listing, hit, nil
}

// Search matches active FAQs by question or answer.
func (s *FAQService) Search(ctx context.Context, q string) ([]models.FAQ, error) {
	term, err := searchTerm(q)
	if err != nil {
		return nil, err
	}
	faqs, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al buscar preguntas frecuentes")
	}
	return faqs, nil
}

// View returns an active FAQ and counts the view.
func (s *FAQService) View(ctx context.Context, id string) (*models.FAQ, error) {
	faq, err := s.repo.View(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgFAQNotFound, "Error al obtener la FAQ")
	}
	return faq, nil
}

// Vote counts a helpful or not-helpful answer.
func (s *FAQService) Vote(ctx context.Context, id string, req FAQVoteRequest) (*models.FAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	faq, err := s.repo.Vote(ctx, id, *req.Helpful)
	if err != nil {
		return nil, lookupError(err, msgFAQNotFound, "Error al registrar la valoración")
	}
	return faq, nil
}

// ListAdmin returns FAQs for staff, inactive ones included.
func (s *FAQService) ListAdmin(ctx context.Context, filter models.FAQFilter) ([]models.FAQ, *models.Pagination, error) {
	filter.PublicOnly = false
	filter.PageQuery = filter.PageQuery.Normalize(defaultFAQPageSize)
	faqs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener preguntas frecuentes")
	}
	return faqs, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Stats summarises the catalogue.
func (s *FAQService) Stats(ctx context.Context) (*models.FAQStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "Error al obtener estadísticas")
	}
	return stats, nil
}

// Create adds a FAQ.
func (s *FAQService) Create(ctx context.Context, req FAQRequest, actorID string) (*models.FAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	faq := &models.FAQ{Active: true, CreatedBy: strPtr(actorID), UpdatedBy: strPtr(actorID)}
	applyFAQRequest(faq, req)

	if err := s.repo.Create(ctx, faq); err != nil {
		return nil, writeError(err, msgFAQNotFound, "Error al crear la FAQ")
	}
	s.invalidate(ctx)
	return faq, nil
}

// Update replaces a FAQ. Counters are preserved.
func (s *FAQService) Update(ctx context.Context, id string, req FAQRequest, actorID string) (*models.FAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	faq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgFAQNotFound, "Error al actualizar la FAQ")
	}
	applyFAQRequest(faq, req)
	faq.UpdatedBy = strPtr(actorID)

	if err := s.repo.Update(ctx, faq); err != nil {
		return nil, writeError(err, msgFAQNotFound, "Error al actualizar la FAQ")
	}
	s.invalidate(ctx)
	return faq, nil
}

// SetOrder moves a FAQ within its category.
func (s *FAQService) SetOrder(ctx context.Context, id string, req FAQOrderRequest, actorID string) (*models.FAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	faq, err := s.repo.SetOrder(ctx, id, *req.SortOrder, actorID)
	if err != nil {
		return nil, lookupError(err, msgFAQNotFound, "Error al actualizar el orden")
	}
	s.invalidate(ctx)
	return faq, nil
}

// Toggle flips the active flag.
func (s *FAQService) Toggle(ctx context.Context, id, actorID string) (*models.FAQ, error) {
	faq, err := s.repo.Toggle(ctx, id, actorID)
	if err != nil {
		return nil, lookupError(err, msgFAQNotFound, "Error al cambiar el estado")
	}
	s.invalidate(ctx)
	return faq, nil
}

// Delete soft deletes a FAQ.
func (s *FAQService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Deactivate(ctx, id, actorID); err != nil {
		return lookupError(err, msgFAQNotFound, "Error al eliminar la FAQ")
	}
	s.invalidate(ctx)
	return nil
}

func (s *FAQService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, spaceFAQs.pattern()); err != nil {
		s.logger.Warn("failed to invalidate faq cache", zap.Error(err))
	}
}

func applyFAQRequest(f *models.FAQ, req FAQRequest) {
	f.Question = strings.TrimSpace(req.Question)
	f.Answer = strings.TrimSpace(req.Answer)
	f.Category = req.Category
	f.SortOrder = req.SortOrder
	if req.Active != nil {
		f.Active = *req.Active
	}
}

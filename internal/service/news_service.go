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
	defaultNewsPageSize = 10
	defaultNewsCategory = "General"
	msgNewsNotFound     = "Noticia no encontrada"
)

type newsRepository interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error)
	FindByID(ctx context.Context, id string) (*models.News, error)
	Create(ctx context.Context, item *models.News) error
	Update(ctx context.Context, item *models.News) error
	Deactivate(ctx context.Context, id, updatedBy string) error
}

// NewsRequest is the payload for creating or replacing an article.
type NewsRequest struct {
	Title       string     `json:"titulo" validate:"notblank,max=200"`
	Content     string     `json:"contenido" validate:"notblank"`
	Image       string     `json:"imagen" validate:"omitempty,url"`
	Author      string     `json:"autor" validate:"max=100"`
	Category    string     `json:"categoria" validate:"omitempty,oneof=Académica Administrativa Evento General"`
	Featured    bool       `json:"destacada"`
	Active      *bool      `json:"activa"`
	PublishedAt *time.Time `json:"fechaPublicacion"`
}

// NewsService manages published articles.
type NewsService struct {
	repo      newsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsService constructs the news service.
func NewNewsService(repo newsRepository, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if validate == nil {
		validate = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{repo: repo, validator: validate, logger: logger}
}

// List returns active articles, newest first.
func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.News, *models.Pagination, error) {
	filter.PageQuery = filter.PageQuery.Normalize(defaultNewsPageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Error al obtener noticias")
	}
	return items, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Get returns an active article.
func (s *NewsService) Get(ctx context.Context, id string) (*models.News, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgNewsNotFound, "Error al obtener la noticia")
	}
	if !item.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgNewsNotFound)
	}
	return item, nil
}

// Create publishes an article. The author defaults to the acting user's name.
func (s *NewsService) Create(ctx context.Context, req NewsRequest, actor *models.Principal) (*models.News, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	item := &models.News{Active: true}
	applyNewsRequest(item, req, actor)
	item.CreatedBy = item.UpdatedBy

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, writeError(err, msgNewsNotFound, "Error al crear la noticia")
	}
	return item, nil
}

// Update replaces an article.
func (s *NewsService) Update(ctx context.Context, id string, req NewsRequest, actor *models.Principal) (*models.News, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, msgNewsNotFound, "Error al actualizar la noticia")
	}
	applyNewsRequest(item, req, actor)

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, writeError(err, msgNewsNotFound, "Error al actualizar la noticia")
	}
	return item, nil
}

// Delete soft deletes an article.
func (s *NewsService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Deactivate(ctx, id, actorID); err != nil {
		return lookupError(err, msgNewsNotFound, "Error al eliminar la noticia")
	}
	return nil
}

func applyNewsRequest(n *models.News, req NewsRequest, actor *models.Principal) {
	n.Title = strings.TrimSpace(req.Title)
	n.Content = req.Content
	n.Image = req.Image
	n.Author = strings.TrimSpace(req.Author)
	if n.Author == "" && actor != nil {
		n.Author = actor.Name
	}
	n.Category = req.Category
	if n.Category == "" {
		n.Category = defaultNewsCategory
	}
	n.Featured = req.Featured
	if req.Active != nil {
		n.Active = *req.Active
	}
	if req.PublishedAt != nil {
		n.PublishedAt = *req.PublishedAt
	}
	if actor != nil {
		n.UpdatedBy = strPtr(actor.ID)
	}
}

package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

const msgInstitutionNotFound = "Información institucional no encontrada"

type institutionRepository interface {
	Get(ctx context.Context) (*models.Institution, error)
	Create(ctx context.Context, inst *models.Institution) error
	Upsert(ctx context.Context, update models.InstitutionUpdate, updatedBy string, now time.Time) (*models.Institution, error)
	MergeSection(ctx context.Context, section string, fields map[string]string, updatedBy string, now time.Time) (*models.Institution, error)
}

// InstitutionService serves the singleton institution document.
type InstitutionService struct {
	repo   institutionRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewInstitutionService constructs the institution service.
func NewInstitutionService(repo institutionRepository, cache *CacheService, logger *zap.Logger) *InstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{repo: repo, cache: cache, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the document, creating it from defaults the first time.
func (s *InstitutionService) Get(ctx context.Context) (*models.Institution, bool, error) {
	var inst models.Institution
	hit, err := s.cache.Remember(ctx, spaceInstitution.key("documento"), &inst, func() error {
		loaded, err := s.getOrCreate(ctx)
		if err != nil {
			return err
		}
		inst = *loaded
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "Error al obtener la información institucional")
	}
	return &inst, hit, nil
}

// getOrCreate inserts the default document when missing. A concurrent insert loses to the
// winner's document, which is read back.
func (s *InstitutionService) getOrCreate(ctx context.Context) (*models.Institution, error) {
	inst, err := s.repo.Get(ctx)
	if err == nil {
		return inst, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	created := models.DefaultInstitution(s.now())
	if err := s.repo.Create(ctx, &created); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		return s.repo.Get(ctx)
	}
	s.logger.Info("institution document created with defaults")
	return &created, nil
}

// Update merges the supplied top-level sections, creating the document when missing.
func (s *InstitutionService) Update(ctx context.Context, update models.InstitutionUpdate, actorID string) (*models.Institution, error) {
	if update.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Debe enviar al menos una sección para actualizar")
	}
	inst, err := s.repo.Upsert(ctx, update, actorID, s.now())
	if err != nil {
		return nil, appErrors.Internal(err, "Error al actualizar la información institucional")
	}
	s.invalidate(ctx)
	return inst, nil
}

// MergeSection sets individual keys of the social networks, contact or rectorate section.
// Unknown keys are rejected and the document must already exist.
func (s *InstitutionService) MergeSection(ctx context.Context, section string, fields map[string]string, actorID string) (*models.Institution, error) {
	allowed, ok := models.InstitutionSectionFields[section]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Sección no válida")
	}
	if len(fields) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Debe enviar al menos un campo para actualizar")
	}
	if unknown := unknownKeys(fields, allowed); len(unknown) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Campos no válidos: "+strings.Join(unknown, ", "))
	}

	inst, err := s.repo.MergeSection(ctx, section, fields, actorID, s.now())
	if err != nil {
		return nil, lookupError(err, msgInstitutionNotFound, "Error al actualizar la información institucional")
	}
	s.invalidate(ctx)
	return inst, nil
}

func (s *InstitutionService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, spaceInstitution.pattern()); err != nil {
		s.logger.Warn("failed to invalidate institution cache", zap.Error(err))
	}
}

func unknownKeys(fields map[string]string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, key := range allowed {
		known[key] = true
	}
	var unknown []string
	for key := range fields {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

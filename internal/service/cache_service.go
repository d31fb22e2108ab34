package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
)

// cacheSpace groups the keys one module owns so a write can drop all of them at once.
type cacheSpace string

const (
	spacePrograms    cacheSpace = "programas"
	spaceFAQs        cacheSpace = "faqs"
	spaceInstitution cacheSpace = "informacion"
)

// key builds a key inside the space. Filter parts are digested so keys stay short.
func (c cacheSpace) key(name string, parts ...interface{}) string {
	if len(parts) == 0 {
		return string(c) + ":" + name
	}
	raw, _ := json.Marshal(parts)
	sum := sha1.Sum(raw)
	return string(c) + ":" + name + ":" + hex.EncodeToString(sum[:8])
}

func (c cacheSpace) pattern() string {
	return string(c) + ":*"
}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts public reads with Redis. A nil or disabled service passes every
// read straight to the loader.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
	flight  singleflight.Group
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reports whether key was found and decoded into dest.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// Remember serves key from cache or lets load fill dest and stores the result. Concurrent
// misses on one key share a single load. Cache failures never fail the read.
func (s *CacheService) Remember(ctx context.Context, key string, dest interface{}, load func() error) (bool, error) {
	if !s.Enabled() {
		return false, load()
	}
	if hit, err := s.Get(ctx, key, dest); err == nil && hit {
		return true, nil
	}

	loaded := false
	shared, err, _ := s.flight.Do(key, func() (interface{}, error) {
		loaded = true
		if err := load(); err != nil {
			return nil, err
		}
		_ = s.Set(ctx, key, dest, 0)
		return json.Marshal(dest)
	})
	if err != nil {
		return false, err
	}
	if !loaded {
		if err := json.Unmarshal(shared.([]byte), dest); err != nil {
			return false, err
		}
	}
	return false, nil
}

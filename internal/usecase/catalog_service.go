package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/glutenvergelijker/backend/internal/domain"
)

const (
	// DefaultCatalogCacheKey is the versioned key the normalized catalog is cached under
	DefaultCatalogCacheKey = "glutenvergelijker:catalog:v2"

	// DefaultCatalogCacheTTL is how long a cached catalog counts as fresh
	DefaultCatalogCacheTTL = time.Hour
)

// Catalog source names besides the configured source's own name
const (
	SourceCache      = "cache"
	SourceStaleCache = "stale-cache"
)

// ProductNormalizer turns a raw catalog document into canonical products
type ProductNormalizer interface {
	Normalize(data []byte) ([]domain.Product, error)
}

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheKey string
	CacheTTL time.Duration
}

// cacheEnvelope is the persisted form of a cached catalog
type cacheEnvelope struct {
	SavedAt int64            `json:"savedAt"` // unix milliseconds
	Data    []domain.Product `json:"data"`
}

// CatalogService loads the product catalog with caching and layered fallbacks
type CatalogService struct {
	source     domain.CatalogSource
	fallback   domain.CatalogSource
	cache      domain.KeyValueStore
	normalizer ProductNormalizer
	cacheKey   string
	cacheTTL   time.Duration
	group      singleflight.Group
	now        func() time.Time
	logger     *zap.Logger
}

// NewCatalogService creates a catalog service. source and cache may be nil; fallback is the
// last resort and should never fail.
func NewCatalogService(
	source domain.CatalogSource,
	fallback domain.CatalogSource,
	cache domain.KeyValueStore,
	normalizer ProductNormalizer,
	config CatalogServiceConfig,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CacheKey == "" {
		config.CacheKey = DefaultCatalogCacheKey
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCatalogCacheTTL
	}

	return &CatalogService{
		source:     source,
		fallback:   fallback,
		cache:      cache,
		normalizer: normalizer,
		cacheKey:   config.CacheKey,
		cacheTTL:   config.CacheTTL,
		now:        time.Now,
		logger:     logger.Named("catalog"),
	}
}

// Load returns the catalog.
// Flow: fresh cache -> source -> stale cache -> embedded fallback.
// Failures along the way are logged and absorbed; an error is returned only when the
// fallback itself is unusable. Concurrent calls share one load.
func (s *CatalogService) Load(ctx context.Context) (domain.Catalog, error) {
	return s.do(ctx, "load", false)
}

// Refresh is Load without the fresh-cache shortcut. When a source is configured and it
// fails, Refresh returns ErrSourceUnavailable instead of falling back.
func (s *CatalogService) Refresh(ctx context.Context) (domain.Catalog, error) {
	return s.do(ctx, "refresh", true)
}

func (s *CatalogService) do(ctx context.Context, key string, force bool) (domain.Catalog, error) {
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.load(ctx, force)
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	if shared {
		s.logger.Debug("catalog load shared", zap.String("op", key))
	}
	return v.(domain.Catalog), nil
}

func (s *CatalogService) load(ctx context.Context, force bool) (domain.Catalog, error) {
	cached, fresh := s.readCache(ctx)
	if fresh && !force {
		s.logger.Info("catalog served from cache", zap.Int("products", len(cached.Data)))
		return s.catalog(cached.Data, SourceCache), nil
	}

	if s.source != nil {
		products, err := s.fetch(ctx, s.source)
		if err == nil {
			s.writeCache(ctx, products)
			s.logger.Info("catalog loaded",
				zap.String("source", s.source.Name()),
				zap.Int("products", len(products)),
			)
			return s.catalog(products, s.source.Name()), nil
		}
		s.logger.Warn("catalog source failed", zap.String("source", s.source.Name()), zap.Error(err))
		if force {
			return domain.Catalog{}, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, s.source.Name(), err)
		}
	}

	if cached != nil {
		s.logger.Warn("serving stale catalog from cache",
			zap.Time("saved_at", time.UnixMilli(cached.SavedAt)),
			zap.Int("products", len(cached.Data)),
		)
		return s.catalog(cached.Data, SourceStaleCache), nil
	}

	if s.fallback == nil {
		return domain.Catalog{}, fmt.Errorf("%w: no source produced a catalog", domain.ErrCatalogNotLoaded)
	}
	products, err := s.fetch(ctx, s.fallback)
	if err != nil {
		s.logger.Error("fallback catalog unusable", zap.Error(err))
		return domain.Catalog{}, fmt.Errorf("%w: %v", domain.ErrCatalogNotLoaded, err)
	}
	s.logger.Warn("serving fallback catalog",
		zap.String("source", s.fallback.Name()),
		zap.Int("products", len(products)),
	)
	return s.catalog(products, s.fallback.Name()), nil
}

func (s *CatalogService) fetch(ctx context.Context, source domain.CatalogSource) ([]domain.Product, error) {
	data, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(data)
}

func (s *CatalogService) catalog(products []domain.Product, source string) domain.Catalog {
	return domain.Catalog{
		Products: products,
		Source:   source,
		LoadedAt: s.now(),
	}
}

// readCache returns the cached envelope, if any, and whether it is still fresh.
// Corrupt entries are deleted.
func (s *CatalogService) readCache(ctx context.Context) (*cacheEnvelope, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, s.cacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("catalog cache unreadable", zap.Error(err))
		}
		return nil, false
	}

	var env cacheEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		s.logger.Warn("discarding corrupt catalog cache", zap.String("key", s.cacheKey), zap.Error(err))
		if err := s.cache.Delete(ctx, s.cacheKey); err != nil {
			s.logger.Warn("failed to delete corrupt catalog cache", zap.Error(err))
		}
		return nil, false
	}

	age := s.now().Sub(time.UnixMilli(env.SavedAt))
	return &env, age >= 0 && age < s.cacheTTL
}

// writeCache stores products without a store-level expiry so that a stale copy survives
// for offline fallback; freshness is judged from savedAt
func (s *CatalogService) writeCache(ctx context.Context, products []domain.Product) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(cacheEnvelope{SavedAt: s.now().UnixMilli(), Data: products})
	if err != nil {
		s.logger.Warn("catalog cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey, raw, 0); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

// Package app wires configuration into the catalog core. It is shared by the HTTP server
// and the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/glutenvergelijker/backend/config"
	"github.com/glutenvergelijker/backend/internal/domain"
	"github.com/glutenvergelijker/backend/internal/infrastructure/cache"
	"github.com/glutenvergelijker/backend/internal/infrastructure/feed"
	"github.com/glutenvergelijker/backend/internal/infrastructure/scheduler"
	"github.com/glutenvergelijker/backend/internal/infrastructure/storage"
	"github.com/glutenvergelijker/backend/internal/infrastructure/watcher"
	"github.com/glutenvergelijker/backend/internal/usecase"
)

// App owns the long-lived components built from configuration
type App struct {
	Config  *config.Config
	State   *usecase.AppState
	Catalog *usecase.CatalogService

	logger    *zap.Logger
	refresher *scheduler.Refresher
	watcher   *watcher.FileWatcher
	closers   []func() error
}

// New builds the store, catalog service, favorites and session state, and loads the catalog
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, logger: logger}

	store, closeStore, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	var catalogCache domain.KeyValueStore
	if cfg.Cache.Enabled {
		catalogCache = store
	}

	a.Catalog = usecase.NewCatalogService(
		NewSource(cfg.Catalog, logger),
		feed.SampleSource{},
		catalogCache,
		feed.NewNormalizer(logger),
		usecase.CatalogServiceConfig{
			CacheKey: cfg.Cache.Key,
			CacheTTL: cfg.Cache.TTL,
		},
		logger,
	)

	favorites := usecase.NewFavoritesStore(ctx, storage.NewFavoritesRepository(store, cfg.Favorites.Key), logger)

	a.State, err = usecase.NewAppState(ctx, a.Catalog, favorites, usecase.AppStateConfig{
		PageSize:        cfg.Filter.PageSize,
		SearchDebounce:  cfg.Filter.SearchDebounce,
		DefaultMaxPrice: cfg.Filter.DefaultMaxPrice,
		TopBrands:       cfg.Filter.TopBrands,
	}, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return a, nil
}

// OpenStore opens the configured key-value store. The returned close func may be nil.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (domain.KeyValueStore, func() error, error) {
	switch cfg.Type {
	case "", "memory":
		return cache.NewMemoryStore(), nil, nil
	case "sqlite":
		s, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// NewSource picks the catalog source: a remote URL wins over a local file.
// It returns nil when neither is configured, leaving only the embedded sample.
func NewSource(cfg config.CatalogConfig, logger *zap.Logger) domain.CatalogSource {
	switch {
	case cfg.SourceURL != "":
		return feed.NewClient(feed.ClientConfig{
			URL:               cfg.SourceURL,
			Timeout:           cfg.FetchTimeout,
			MaxRetries:        cfg.MaxRetries,
			RetryDelay:        cfg.RetryDelay,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}, logger)
	case cfg.FilePath != "":
		return feed.NewFileSource(cfg.FilePath)
	default:
		return nil
	}
}

// StartBackground starts the scheduled refresh and the catalog file watcher when configured
func (a *App) StartBackground(ctx context.Context) error {
	refresh := func(ctx context.Context) error {
		_, err := a.State.Refresh(ctx)
		return err
	}

	if schedule := a.Config.Catalog.RefreshSchedule; schedule != "" {
		r, err := scheduler.NewRefresher(schedule, refresh, 0, a.logger)
		if err != nil {
			return err
		}
		if err := r.Start(); err != nil {
			return err
		}
		a.refresher = r
	}

	if a.Config.Catalog.WatchFile {
		if a.Config.Catalog.SourceURL != "" {
			a.logger.Warn("catalog file watch ignored, a source url is configured")
			return nil
		}
		w, err := watcher.New(a.Config.Catalog.FilePath, 0, refresh, a.logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			return err
		}
		a.watcher = w
	}

	return nil
}

// Close stops background work and releases the store
func (a *App) Close() error {
	var errs []error

	if a.refresher != nil {
		a.refresher.Stop()
		a.refresher = nil
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
		a.watcher = nil
	}
	if a.State != nil {
		a.State.Close()
	}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil

	return errors.Join(errs...)
}

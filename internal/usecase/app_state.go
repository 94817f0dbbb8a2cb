package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// CatalogLoader provides catalog snapshots
type CatalogLoader interface {
	Load(ctx context.Context) (domain.Catalog, error)
	Refresh(ctx context.Context) (domain.Catalog, error)
}

// AppStateConfig holds configuration for the browsing session
type AppStateConfig struct {
	PageSize        int
	SearchDebounce  time.Duration
	DefaultMaxPrice float64
	TopBrands       int
}

// View is the visible state of the browsing session
type View struct {
	Criteria domain.FilterCriteria `json:"criteria"`
	Total    int                   `json:"total"`
	Items    []domain.Product      `json:"items"`
	HasMore  bool                  `json:"hasMore"`
	Source   string                `json:"source"`
}

// Page is one increment of revealed results
type Page struct {
	Items   []domain.Product `json:"items"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}

// AppState owns the catalog snapshot, criteria, favorites and pagination of one browsing
// session. Every change to criteria, catalog or favorites recomputes results and resets
// pagination to the first page. All methods are safe for concurrent use.
type AppState struct {
	mu        sync.Mutex
	loader    CatalogLoader
	favorites *FavoritesStore
	catalog   domain.Catalog
	criteria  domain.FilterCriteria
	defaults  domain.FilterCriteria
	results   []domain.Product
	paginator *Paginator
	debouncer *Debouncer
	searchGen uint64 // bumped whenever a pending debounced search becomes outdated
	topBrands int
	logger    *zap.Logger
}

// NewAppState loads the catalog and computes the initial view
func NewAppState(
	ctx context.Context,
	loader CatalogLoader,
	favorites *FavoritesStore,
	config AppStateConfig,
	logger *zap.Logger,
) (*AppState, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultMaxPrice <= 0 {
		config.DefaultMaxPrice = domain.DefaultMaxPrice
	}
	if favorites == nil {
		favorites = NewFavoritesStore(ctx, nil, logger)
	}

	catalog, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	defaults := domain.DefaultCriteriaWithMax(config.DefaultMaxPrice)
	a := &AppState{
		loader:    loader,
		favorites: favorites,
		catalog:   catalog,
		criteria:  defaults,
		defaults:  defaults,
		paginator: NewPaginator(config.PageSize),
		debouncer: NewDebouncer(config.SearchDebounce),
		topBrands: config.TopBrands,
		logger:    logger.Named("state"),
	}
	a.recompute()

	a.logger.Info("session ready",
		zap.String("source", catalog.Source),
		zap.Int("products", catalog.Len()),
		zap.Int("results", len(a.results)),
	)
	return a, nil
}

// View returns every result revealed so far
func (a *AppState) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

// Criteria returns a copy of the active criteria
func (a *AppState) Criteria() domain.FilterCriteria {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneCriteria(a.criteria)
}

// Defaults returns the criteria restored by ResetFilters
func (a *AppState) Defaults() domain.FilterCriteria {
	return cloneCriteria(a.defaults)
}

// UpdateCriteria replaces the criteria and cancels any pending debounced search
func (a *AppState) UpdateCriteria(criteria domain.FilterCriteria) View {
	a.debouncer.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.replaceCriteriaLocked(cloneCriteria(criteria).Normalized())
	return a.viewLocked()
}

// SetSearch schedules a search term update after the debounce delay
func (a *AppState) SetSearch(term string) {
	a.mu.Lock()
	a.searchGen++
	gen := a.searchGen
	a.mu.Unlock()

	a.debouncer.Trigger(func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		// newer input may have landed after the timer fired
		if gen != a.searchGen {
			return
		}
		a.criteria.Search = term
		a.recompute()
		a.logger.Debug("search applied", zap.String("search", term), zap.Int("results", len(a.results)))
	})
}

// ApplySearch updates the search term immediately, dropping any pending debounced update
func (a *AppState) ApplySearch(term string) View {
	a.debouncer.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	criteria := a.criteria
	criteria.Search = term
	a.replaceCriteriaLocked(criteria)
	return a.viewLocked()
}

// SearchPending reports whether a debounced search has not been applied yet
func (a *AppState) SearchPending() bool {
	return a.debouncer.Pending()
}

// ResetFilters restores the default criteria
func (a *AppState) ResetFilters() View {
	a.debouncer.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.replaceCriteriaLocked(cloneCriteria(a.defaults))
	return a.viewLocked()
}

// ToggleFavoritesOnly flips the favorites-only view
func (a *AppState) ToggleFavoritesOnly() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.criteria.FavoritesOnly = !a.criteria.FavoritesOnly
	a.recompute()
	return a.viewLocked()
}

// ToggleFavorite flips the favorite state of a catalog product and returns the new state.
// Results are recomputed when the favorites-only view is active.
func (a *AppState) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.catalog.FindByID(id); !ok {
		return false, domain.ErrProductNotFound
	}

	favorite := a.favorites.Toggle(ctx, id)
	if a.criteria.FavoritesOnly {
		a.recompute()
	}
	return favorite, nil
}

// IsFavorite reports whether id is a favorite
func (a *AppState) IsFavorite(id string) bool {
	return a.favorites.IsFavorite(id)
}

// Favorites returns the favorite products in insertion order. Ids no longer in the
// catalog are skipped.
func (a *AppState) Favorites() []domain.Product {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := []domain.Product{}
	for _, id := range a.favorites.List() {
		if p, ok := a.catalog.FindByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// NextPage reveals the next page of results
func (a *AppState) NextPage() Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Page{
		Items:   a.paginator.Next(),
		Total:   a.paginator.Total(),
		HasMore: a.paginator.HasMore(),
	}
}

// Product returns a catalog product by id
func (a *AppState) Product(id string) (domain.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.catalog.FindByID(id)
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// Query filters the catalog with ad-hoc criteria without touching the session
func (a *AppState) Query(criteria domain.FilterCriteria) []domain.Product {
	a.mu.Lock()
	products := a.catalog.Products
	a.mu.Unlock()
	return Apply(products, criteria, a.favorites.Snapshot())
}

// Catalog returns the current snapshot
func (a *AppState) Catalog() domain.Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog
}

// Stats aggregates the whole catalog
func (a *AppState) Stats() Statistics {
	a.mu.Lock()
	products := a.catalog.Products
	a.mu.Unlock()

	stats := ComputeStatistics(products, a.topBrands)
	stats.Favorites = a.favorites.Len()
	return stats
}

// Refresh reloads the catalog, replacing the snapshot as a whole. The previous snapshot
// stays in place when the configured source fails.
func (a *AppState) Refresh(ctx context.Context) (domain.Catalog, error) {
	catalog, err := a.loader.Refresh(ctx)
	if err != nil {
		a.logger.Warn("catalog refresh failed", zap.Error(err))
		return domain.Catalog{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.catalog = catalog
	a.recompute()

	a.logger.Info("catalog refreshed",
		zap.String("source", catalog.Source),
		zap.Int("products", catalog.Len()),
	)
	return catalog, nil
}

// Close stops pending debounced work
func (a *AppState) Close() {
	a.debouncer.Stop()
}

// replaceCriteriaLocked installs criteria and invalidates any debounced search still in
// flight. Callers hold a.mu.
func (a *AppState) replaceCriteriaLocked(criteria domain.FilterCriteria) {
	a.searchGen++
	a.criteria = criteria
	a.recompute()
}

// recompute re-runs the filter engine and reveals the first page. Callers hold a.mu.
func (a *AppState) recompute() {
	a.results = Apply(a.catalog.Products, a.criteria, a.favorites.Snapshot())
	a.paginator.Reset(a.results)
	a.paginator.Next()
}

func (a *AppState) viewLocked() View {
	return View{
		Criteria: cloneCriteria(a.criteria),
		Total:    a.paginator.Total(),
		Items:    a.paginator.Revealed(),
		HasMore:  a.paginator.HasMore(),
		Source:   a.catalog.Source,
	}
}

func cloneCriteria(c domain.FilterCriteria) domain.FilterCriteria {
	c.Brands = cloneOrEmpty(c.Brands)
	c.Categories = cloneOrEmpty(c.Categories)
	c.Stores = cloneOrEmpty(c.Stores)
	return c
}

func cloneOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/glutenvergelijker/backend/internal/domain"
	"github.com/glutenvergelijker/backend/internal/infrastructure/feed"
	"github.com/glutenvergelijker/backend/internal/usecase"
)

const (
	serviceName    = "glutenvergelijker-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	state    *usecase.AppState
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(state *usecase.AppState, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		state:    state,
		validate: newRequestValidator(),
		logger:   logger.Named("http"),
	}
}

// criteriaRequest is the body of PUT /view/criteria. Absent price bounds use the defaults.
type criteriaRequest struct {
	Search        string   `json:"search" validate:"max=200"`
	Brands        []string `json:"brands" validate:"omitempty,dive,required"`
	Categories    []string `json:"categories" validate:"omitempty,dive,required"`
	Stores        []string `json:"stores" validate:"omitempty,dive,required"`
	MinPrice      *float64 `json:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice      *float64 `json:"maxPrice" validate:"omitempty,gte=0"`
	Sort          string   `json:"sort"`
	FavoritesOnly bool     `json:"favoritesOnly"`
}

type searchRequest struct {
	Search string `json:"search" validate:"max=200"`
}

// productDetail is a product with its best-price markers
type productDetail struct {
	domain.Product
	BestStores []string `json:"bestStores"`
	Favorite   bool     `json:"favorite"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	catalog := h.state.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  serviceName,
		"version":  serviceVersion,
		"source":   catalog.Source,
		"products": catalog.Len(),
	})
}

// ListProducts filters the catalog with criteria taken from the query string.
// The browsing session is left untouched.
func (h *Handler) ListProducts(c *gin.Context) {
	criteria, err := h.criteriaFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := h.state.Query(criteria)
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

// GetProduct returns one product with the stores offering its lowest price
func (h *Handler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := h.state.Product(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	best := product.BestStores()
	if best == nil {
		best = []string{}
	}
	c.JSON(http.StatusOK, productDetail{
		Product:    product,
		BestStores: best,
		Favorite:   h.state.IsFavorite(id),
	})
}

// GetView returns every result revealed so far in the session
func (h *Handler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.View())
}

// UpdateCriteria replaces the session criteria and returns the first page
func (h *Handler) UpdateCriteria(c *gin.Context) {
	var req criteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if err := h.validateRequest(req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.state.UpdateCriteria(h.criteriaFromRequest(req)))
}

// Search updates the search term. The update is debounced unless immediate=true is passed.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	if err := h.validateRequest(req); err != nil {
		h.respondError(c, err)
		return
	}

	if immediate, _ := strconv.ParseBool(c.Query("immediate")); immediate {
		c.JSON(http.StatusOK, h.state.ApplySearch(req.Search))
		return
	}

	h.state.SetSearch(req.Search)
	c.JSON(http.StatusAccepted, gin.H{
		"search":  req.Search,
		"pending": true,
	})
}

// ResetFilters restores the default criteria
func (h *Handler) ResetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.ResetFilters())
}

// ToggleFavoritesOnly flips the favorites-only view
func (h *Handler) ToggleFavoritesOnly(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.ToggleFavoritesOnly())
}

// NextPage reveals the next page of the session results
func (h *Handler) NextPage(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.NextPage())
}

// ListFavorites returns the favorite products in the order they were added
func (h *Handler) ListFavorites(c *gin.Context) {
	items := h.state.Favorites()
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

// ToggleFavorite flips the favorite state of a product
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id := c.Param("id")
	favorite, err := h.state.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       id,
		"favorite": favorite,
	})
}

// Stats returns aggregate statistics over the whole catalog
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Stats())
}

// RefreshCatalog reloads the catalog from its source
func (h *Handler) RefreshCatalog(c *gin.Context) {
	catalog, err := h.state.Refresh(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":   catalog.Source,
		"products": catalog.Len(),
		"loadedAt": catalog.LoadedAt,
	})
}

func (h *Handler) criteriaFromQuery(c *gin.Context) (domain.FilterCriteria, error) {
	criteria := h.state.Defaults()
	criteria.Search = c.Query("search")
	criteria.Brands = nonEmpty(c.QueryArray("brand"))
	criteria.Categories = nonEmpty(c.QueryArray("category"))
	criteria.Stores = storeIDs(c.QueryArray("store"))
	criteria.Sort = domain.ParseSortKey(c.Query("sort"))

	if raw := c.Query("min_price"); raw != "" {
		v, err := parsePrice("min_price", raw)
		if err != nil {
			return domain.FilterCriteria{}, err
		}
		criteria.MinPrice = v
	}
	if raw := c.Query("max_price"); raw != "" {
		v, err := parsePrice("max_price", raw)
		if err != nil {
			return domain.FilterCriteria{}, err
		}
		criteria.MaxPrice = v
	}
	if raw := c.Query("favorites_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.FilterCriteria{}, fmt.Errorf("%w: favorites_only must be a boolean", domain.ErrInvalidRequest)
		}
		criteria.FavoritesOnly = v
	}

	return criteria.Normalized(), nil
}

func (h *Handler) criteriaFromRequest(req criteriaRequest) domain.FilterCriteria {
	criteria := h.state.Defaults()
	criteria.Search = req.Search
	criteria.Brands = nonEmpty(req.Brands)
	criteria.Categories = nonEmpty(req.Categories)
	criteria.Stores = storeIDs(req.Stores)
	criteria.Sort = domain.ParseSortKey(req.Sort)
	criteria.FavoritesOnly = req.FavoritesOnly
	if req.MinPrice != nil {
		criteria.MinPrice = *req.MinPrice
	}
	if req.MaxPrice != nil {
		criteria.MaxPrice = *req.MaxPrice
	}
	return criteria
}

func (h *Handler) validateRequest(req any) error {
	if err := h.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%w: %s failed '%s' check", domain.ErrInvalidRequest, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCatalogNotLoaded), errors.Is(err, domain.ErrSourceUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func parsePrice(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidRequest, field)
	}
	return v, nil
}

// storeIDs accepts store ids as well as display names ("Albert Heijn")
func storeIDs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if id := feed.StoreID(s); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

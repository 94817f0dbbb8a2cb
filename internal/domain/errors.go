package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product id is not in the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in the key-value store
	ErrCacheMiss = errors.New("cache miss")

	// ErrSourceUnavailable is returned when the catalog source cannot be read
	ErrSourceUnavailable = errors.New("catalog source unavailable")

	// ErrInvalidCatalog is returned when catalog data cannot be parsed
	ErrInvalidCatalog = errors.New("invalid catalog document")

	// ErrPersistence is returned when local state cannot be written
	ErrPersistence = errors.New("local persistence failed")

	// ErrCatalogNotLoaded is returned when the catalog has not been loaded yet
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
)

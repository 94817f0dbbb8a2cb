package domain

import (
	"context"
	"time"
)

// KeyValueStore is the local persistent key-value store.
// A ttl of zero means the entry never expires.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogSource returns the raw catalog document
type CatalogSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

// FavoritesRepository persists the ordered favorite id list
type FavoritesRepository interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

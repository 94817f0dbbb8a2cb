package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// DefaultFavoritesKey is the namespaced key the favorites list is stored under
const DefaultFavoritesKey = "glutenvergelijker:favorites:v1"

// FavoritesRepository persists the favorites list as a JSON array in a key-value store
type FavoritesRepository struct {
	store domain.KeyValueStore
	key   string
}

// NewFavoritesRepository creates a repository; an empty key uses DefaultFavoritesKey
func NewFavoritesRepository(store domain.KeyValueStore, key string) *FavoritesRepository {
	if key == "" {
		key = DefaultFavoritesKey
	}
	return &FavoritesRepository{store: store, key: key}
}

// Load returns the stored ids. An absent key is an empty list.
func (r *FavoritesRepository) Load(ctx context.Context) ([]string, error) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: malformed favorites: %v", domain.ErrPersistence, err)
	}
	return ids, nil
}

// Save replaces the stored list
func (r *FavoritesRepository) Save(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return r.store.Set(ctx, r.key, raw, 0)
}

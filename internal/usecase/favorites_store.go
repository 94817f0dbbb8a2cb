package usecase

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// FavoritesStore is the persisted, insertion-ordered set of favorite product ids
type FavoritesStore struct {
	mu     sync.RWMutex
	repo   domain.FavoritesRepository
	ids    []string
	index  map[string]struct{}
	logger *zap.Logger
}

// NewFavoritesStore reads the persisted favorites. A missing or unreadable list starts empty.
func NewFavoritesStore(ctx context.Context, repo domain.FavoritesRepository, logger *zap.Logger) *FavoritesStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FavoritesStore{
		repo:   repo,
		index:  make(map[string]struct{}),
		logger: logger.Named("favorites"),
	}

	if repo == nil {
		return s
	}

	stored, err := repo.Load(ctx)
	if err != nil {
		s.logger.Warn("favorites unreadable, starting empty", zap.Error(err))
		return s
	}
	for _, id := range stored {
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	s.logger.Debug("favorites loaded", zap.Int("count", len(s.ids)))
	return s
}

// IsFavorite reports whether id is in the set
func (s *FavoritesStore) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Toggle adds an absent id or removes a present one, persists the full list, and returns
// the new membership state. A failed write is logged; the in-memory state stays updated.
func (s *FavoritesStore) Toggle(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, present := s.index[id]
	if present {
		delete(s.index, id)
		s.ids = slices.DeleteFunc(s.ids, func(v string) bool { return v == id })
	} else {
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, slices.Clone(s.ids)); err != nil {
			s.logger.Warn("favorites not persisted", zap.String("product_id", id), zap.Error(err))
		}
	}

	s.logger.Info("favorite toggled", zap.String("product_id", id), zap.Bool("favorite", !present))
	return !present
}

// List returns an ordered snapshot of the favorite ids
func (s *FavoritesStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Snapshot returns an immutable set view for the filter engine
func (s *FavoritesStore) Snapshot() domain.FavoriteSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.NewFavoriteSet(s.ids...)
}

// Len returns the number of favorites
func (s *FavoritesStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

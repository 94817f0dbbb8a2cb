package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glutenvergelijker/backend/internal/domain"
)

// MockFavoritesRepository is a mock implementation of domain.FavoritesRepository
type MockFavoritesRepository struct {
	stored    []string
	loadError error
	saveError error
	saves     int
}

func (m *MockFavoritesRepository) Load(ctx context.Context) ([]string, error) {
	if m.loadError != nil {
		return nil, m.loadError
	}
	return append([]string(nil), m.stored...), nil
}

func (m *MockFavoritesRepository) Save(ctx context.Context, ids []string) error {
	m.saves++
	if m.saveError != nil {
		return m.saveError
	}
	m.stored = append([]string(nil), ids...)
	return nil
}

func TestNewFavoritesStore(t *testing.T) {
	ctx := context.Background()

	t.Run("loads persisted ids in order", func(t *testing.T) {
		repo := &MockFavoritesRepository{stored: []string{"b", "a", "c"}}
		store := NewFavoritesStore(ctx, repo, nil)

		assert.Equal(t, []string{"b", "a", "c"}, store.List())
		assert.True(t, store.IsFavorite("a"))
	})

	t.Run("drops duplicates and empty ids", func(t *testing.T) {
		repo := &MockFavoritesRepository{stored: []string{"a", "", "a", "b"}}
		store := NewFavoritesStore(ctx, repo, nil)

		assert.Equal(t, []string{"a", "b"}, store.List())
	})

	t.Run("starts empty when load fails", func(t *testing.T) {
		repo := &MockFavoritesRepository{loadError: errors.New("corrupt json")}
		store := NewFavoritesStore(ctx, repo, nil)

		assert.Empty(t, store.List())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("works without persistence", func(t *testing.T) {
		store := NewFavoritesStore(ctx, nil, nil)
		assert.True(t, store.Toggle(ctx, "x"))
		assert.Equal(t, []string{"x"}, store.List())
	})
}

func TestFavoritesStore_Toggle(t *testing.T) {
	ctx := context.Background()

	t.Run("adds then removes", func(t *testing.T) {
		repo := &MockFavoritesRepository{}
		store := NewFavoritesStore(ctx, repo, nil)

		assert.True(t, store.Toggle(ctx, "8008698011256"))
		assert.True(t, store.IsFavorite("8008698011256"))
		assert.Equal(t, []string{"8008698011256"}, repo.stored)

		assert.False(t, store.Toggle(ctx, "8008698011256"))
		assert.False(t, store.IsFavorite("8008698011256"))
		assert.Empty(t, repo.stored)
		assert.Equal(t, 2, repo.saves, "every toggle writes the full list")
	})

	t.Run("double toggle restores membership and persisted list", func(t *testing.T) {
		repo := &MockFavoritesRepository{stored: []string{"a", "b"}}
		store := NewFavoritesStore(ctx, repo, nil)

		before := store.List()
		store.Toggle(ctx, "c")
		store.Toggle(ctx, "c")

		assert.Equal(t, before, store.List())
		assert.Equal(t, []string{"a", "b"}, repo.stored)
	})

	t.Run("removal keeps insertion order of the rest", func(t *testing.T) {
		store := NewFavoritesStore(ctx, &MockFavoritesRepository{stored: []string{"a", "b", "c"}}, nil)
		store.Toggle(ctx, "b")
		assert.Equal(t, []string{"a", "c"}, store.List())
	})

	t.Run("keeps in-memory state when save fails", func(t *testing.T) {
		repo := &MockFavoritesRepository{saveError: domain.ErrPersistence}
		store := NewFavoritesStore(ctx, repo, nil)

		require.True(t, store.Toggle(ctx, "a"))
		assert.True(t, store.IsFavorite("a"))
		assert.Empty(t, repo.stored)
	})
}

func TestFavoritesStore_SnapshotIsIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewFavoritesStore(ctx, nil, nil)
	store.Toggle(ctx, "a")

	snap := store.Snapshot()
	store.Toggle(ctx, "b")

	assert.True(t, snap.IsFavorite("a"))
	assert.False(t, snap.IsFavorite("b"))

	list := store.List()
	list[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, store.List())
}

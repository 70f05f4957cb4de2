package memory

import (
	"context"
	"sort"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/favorite"
)

type favoriteEntry struct {
	fav domain.Favorite
	seq uint64
}

type FavoriteRepository struct {
	s *Store
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := make([]favoriteEntry, 0, len(r.s.favorites[userID]))
	for _, e := range r.s.favorites[userID] {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].fav.CreatedAt.Equal(entries[j].fav.CreatedAt) {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].fav.CreatedAt.After(entries[j].fav.CreatedAt)
	})
	out := make([]domain.Favorite, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.fav)
	}
	return out, nil
}

func (r *FavoriteRepository) Add(ctx context.Context, f domain.Favorite) (bool, error) {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byProduct, ok := r.s.favorites[f.UserID]
	if !ok {
		byProduct = make(map[string]favoriteEntry)
		r.s.favorites[f.UserID] = byProduct
	}
	if _, exists := byProduct[f.ProductID]; exists {
		return false, nil
	}
	r.s.favoriteSeq++
	byProduct[f.ProductID] = favoriteEntry{fav: f, seq: r.s.favoriteSeq}
	return true, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, productID string) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.favorites[userID], productID)
	return nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.favorites[userID][productID]
	return ok, nil
}

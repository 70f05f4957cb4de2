package memory

import (
	"context"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
)

type CatalogRepository struct {
	s *Store
}

func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.s.products[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *CatalogRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *CatalogRepository) Exists(ctx context.Context, id string) (bool, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.products[id]
	return ok, nil
}

func (r *CatalogRepository) CountProducts(ctx context.Context, status domain.ProductStatus) (int, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if status == "" {
		return len(r.s.products), nil
	}
	n := 0
	for _, p := range r.s.products {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *CatalogRepository) CountCategories(ctx context.Context) (int, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.categories), nil
}

// UpsertCategory stores c, replacing any category with the same id.
func (r *CatalogRepository) UpsertCategory(ctx context.Context, c domain.Category) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.categories[c.ID] = c
	return nil
}

// UpsertProduct stores p, replacing any product with the same id.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clone := p.Clone()
	r.s.products[p.ID] = &clone
	return nil
}

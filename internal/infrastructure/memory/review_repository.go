package memory

import (
	"context"
	"sort"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/review"
)

type ReviewRepository struct {
	s *Store
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return domain.ErrAlreadyReviewed
		}
	}
	clone := *rv
	r.s.reviews[rv.ID] = &clone
	return nil
}

func (r *ReviewRepository) Get(ctx context.Context, id string) (*domain.Review, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.withAuthor(rv), nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[rv.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *rv
	r.s.reviews[rv.ID] = &clone
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]*domain.Review, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.Review
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			matched = append(matched, rv)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := min(max(offset, 0), len(matched))
	end := len(matched)
	if limit > 0 {
		end = min(start+limit, len(matched))
	}
	out := make([]*domain.Review, 0, end-start)
	for _, rv := range matched[start:end] {
		out = append(out, r.s.withAuthor(rv))
	}
	return out, nil
}

func (r *ReviewRepository) Stats(ctx context.Context, productID string) (domain.Stats, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st domain.Stats
	sum := 0
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			st.TotalReviews++
			sum += rv.Rating
		}
	}
	if st.TotalReviews > 0 {
		st.AverageRating = float64(sum) / float64(st.TotalReviews)
	}
	return st, nil
}

// withAuthor copies rv and fills in the author's display name. Caller holds a read lock.
func (s *Store) withAuthor(rv *domain.Review) *domain.Review {
	clone := *rv
	if u, ok := s.users[rv.UserID]; ok {
		clone.UserName = u.Name
	}
	return &clone
}

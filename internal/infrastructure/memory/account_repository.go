package memory

import (
	"context"
	"strings"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/account"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := r.s.userEmails[email]; taken {
		return domain.ErrEmailTaken
	}
	clone := *u
	r.s.users[u.ID] = &clone
	r.s.userEmails[email] = u.ID
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.userEmails[strings.ToLower(email)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *u
	r.s.users[u.ID] = &clone
	return nil
}

type AdminRepository struct {
	s *Store
}

func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(a.Email)
	if id, taken := r.s.adminEmails[email]; taken && id != a.ID {
		return domain.ErrEmailTaken
	}
	clone := *a
	r.s.admins[a.ID] = &clone
	r.s.adminEmails[email] = a.ID
	return nil
}

func (r *AdminRepository) Get(ctx context.Context, id string) (*domain.Admin, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.admins[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	r.s.mu.RLock()
	id, ok := r.s.adminEmails[strings.ToLower(email)]
	r.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

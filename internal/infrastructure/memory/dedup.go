package memory

import (
	"context"
	"sync"
	"time"
)

// DedupStore is a process-local claim set with expiry, used when Redis is not configured.
type DedupStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	claims map[string]time.Time // key -> expiry
}

func NewDedupStore(ttl time.Duration) *DedupStore {
	return &DedupStore{
		ttl:    ttl,
		now:    time.Now,
		claims: make(map[string]time.Time),
	}
}

func (d *DedupStore) Claim(ctx context.Context, key string) (bool, error) {
	_ = ctx

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if exp, ok := d.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	d.claims[key] = now.Add(d.ttl)
	d.sweep(now)
	return true, nil
}

func (d *DedupStore) Release(ctx context.Context, key string) error {
	_ = ctx

	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.claims, key)
	return nil
}

// sweep drops expired claims. Caller holds the lock.
func (d *DedupStore) sweep(now time.Time) {
	for k, exp := range d.claims {
		if !now.Before(exp) {
			delete(d.claims, k)
		}
	}
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/order"

	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	s *Store
}

// NewOrderRepository returns an order repository over a fresh store.
func NewOrderRepository() *OrderRepository {
	return NewStore().Orders()
}

func (r *OrderRepository) Place(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	if _, exists := s.numbers[order.Number]; exists {
		return domain.ErrConflict
	}
	if key := order.IdempotencyKey; key != "" {
		if _, exists := s.idempotency[idempotencyKey{order.IdempotencyScope(), key}]; exists {
			return domain.ErrConflict
		}
	}
	if ref := order.PaymentRef; ref != "" {
		if _, taken := s.paymentRefs[ref]; taken {
			return domain.ErrPaymentRefTaken
		}
	}

	if err := s.reserve(quantities(order.Items)); err != nil {
		return err
	}
	s.put(order)
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.order(id)
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, scope, key string) (*domain.Order, error) {
	_ = ctx
	if key == "" {
		return nil, domain.ErrNotFound
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.order(r.s.idempotency[idempotencyKey{scope, key}])
}

func (r *OrderRepository) FindByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	_ = ctx
	if ref == "" {
		return nil, domain.ErrNotFound
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.order(r.s.paymentRefs[ref])
}

func (r *OrderRepository) SetStatus(ctx context.Context, id string, from, to domain.Status) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrConflict
	}
	if o.StockReleased && domain.Reopens(from, to) {
		if err := r.s.reserve(quantities(o.Items)); err != nil {
			return err
		}
		o.StockReleased = false
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id, ref string) (bool, error) {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.PaymentStatus == domain.PaymentPaid {
		return false, nil
	}
	if err := r.s.linkPaymentRef(o, ref); err != nil {
		return false, err
	}
	o.PaymentStatus = domain.PaymentPaid
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *OrderRepository) MarkPaymentFailed(ctx context.Context, id string) (bool, error) {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	switch o.PaymentStatus {
	case domain.PaymentPaid:
		return false, domain.ErrAlreadyPaid
	case domain.PaymentFailed:
		return false, nil
	}
	o.PaymentStatus = domain.PaymentFailed
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *OrderRepository) AttachPaymentRef(ctx context.Context, id, ref string) error {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.PaymentStatus == domain.PaymentPaid {
		return domain.ErrAlreadyPaid
	}
	if err := r.s.linkPaymentRef(o, ref); err != nil {
		return err
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *OrderRepository) ReleaseStock(ctx context.Context, id string) (bool, error) {
	_ = ctx

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if order.StockReleased || order.Status != domain.StatusCancelled {
		return false, nil
	}
	order.StockReleased = true
	for productID, qty := range quantities(order.Items) {
		if p, ok := r.s.products[productID]; ok {
			p.Stock += qty
		}
	}
	return true, nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.Filter, page domain.Page) ([]*domain.Order, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := r.s.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := min(max(page.Offset, 0), len(matched))
	end := len(matched)
	if page.Limit > 0 {
		end = min(start+page.Limit, len(matched))
	}

	out := make([]*domain.Order, 0, end-start)
	for _, o := range matched[start:end] {
		out = append(out, o.Clone())
	}
	return out, nil
}

func (r *OrderRepository) Count(ctx context.Context, filter domain.Filter) (int, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.match(filter)), nil
}

func (r *OrderRepository) SumTotal(ctx context.Context, filter domain.Filter) (decimal.Decimal, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum := decimal.Zero
	for _, o := range r.s.match(filter) {
		sum = sum.Add(o.Total)
	}
	return sum, nil
}

// put stores a clone and refreshes the secondary indexes. Caller holds the write lock.
func (s *Store) put(order *domain.Order) {
	clone := order.Clone()
	s.orders[clone.ID] = clone
	s.numbers[clone.Number] = clone.ID
	if clone.IdempotencyKey != "" {
		s.idempotency[idempotencyKey{clone.IdempotencyScope(), clone.IdempotencyKey}] = clone.ID
	}
	if clone.PaymentRef != "" {
		s.paymentRefs[clone.PaymentRef] = clone.ID
	}
}

// order returns a copy of the stored order with id. Caller holds a lock.
func (s *Store) order(id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

// reserve takes need (product id -> quantity) off the shelf, or nothing when any line is short.
// Caller holds the write lock.
func (s *Store) reserve(need map[string]int) error {
	for productID, qty := range need {
		p, ok := s.products[productID]
		if !ok {
			return domcatalog.ErrNotFound
		}
		if p.Stock < qty {
			return fmt.Errorf("%w: product %s", domcatalog.ErrInsufficientStock, productID)
		}
	}
	for productID, qty := range need {
		s.products[productID].Stock -= qty
	}
	return nil
}

// linkPaymentRef points o at ref, keeping references unique across orders. Caller holds the
// write lock and o is the stored order.
func (s *Store) linkPaymentRef(o *domain.Order, ref string) error {
	if ref == "" || ref == o.PaymentRef {
		return nil
	}
	if owner, taken := s.paymentRefs[ref]; taken && owner != o.ID {
		return domain.ErrPaymentRefTaken
	}
	if o.PaymentRef != "" {
		delete(s.paymentRefs, o.PaymentRef)
	}
	o.PaymentRef = ref
	s.paymentRefs[ref] = o.ID
	return nil
}

func quantities(items []domain.Item) map[string]int {
	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	return need
}

// match returns the stored orders accepted by f. Caller holds a read lock.
func (s *Store) match(f domain.Filter) []*domain.Order {
	search := strings.ToLower(f.Search)
	var out []*domain.Order
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.HasPaymentRef && o.PaymentRef == "" {
			continue
		}
		if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		if !f.CreatedUntil.IsZero() && !o.CreatedAt.Before(f.CreatedUntil) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.Number), search) &&
			!strings.Contains(strings.ToLower(o.Customer.Email), search) &&
			!strings.Contains(strings.ToLower(o.Customer.Name), search) {
			continue
		}
		out = append(out, o)
	}
	return out
}

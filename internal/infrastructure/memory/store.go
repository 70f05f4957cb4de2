package memory

import (
	"sync"

	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domreview "github.com/Zhima-Mochi/shophub/internal/domain/review"
)

// Store keeps every aggregate in process memory behind a single lock, so order placement can
// check and decrement stock in the same critical section the order is inserted in.
// Repositories returned by the accessors share the store.
type Store struct {
	mu sync.RWMutex

	products   map[string]*domcatalog.Product
	categories map[string]domcatalog.Category

	orders      map[string]*domorder.Order
	numbers     map[string]string // order number -> id
	idempotency map[idempotencyKey]string
	paymentRefs map[string]string // payment ref -> id

	reviews map[string]*domreview.Review
	// favorites is keyed by user id, then product id.
	favorites   map[string]map[string]favoriteEntry
	favoriteSeq uint64

	users       map[string]*domaccount.User
	userEmails  map[string]string
	admins      map[string]*domaccount.Admin
	adminEmails map[string]string
}

type idempotencyKey struct {
	scope, key string
}

func NewStore() *Store {
	return &Store{
		products:    make(map[string]*domcatalog.Product),
		categories:  make(map[string]domcatalog.Category),
		orders:      make(map[string]*domorder.Order),
		numbers:     make(map[string]string),
		idempotency: make(map[idempotencyKey]string),
		paymentRefs: make(map[string]string),
		reviews:     make(map[string]*domreview.Review),
		favorites:   make(map[string]map[string]favoriteEntry),
		users:       make(map[string]*domaccount.User),
		userEmails:  make(map[string]string),
		admins:      make(map[string]*domaccount.Admin),
		adminEmails: make(map[string]string),
	}
}

func (s *Store) Orders() *OrderRepository       { return &OrderRepository{s: s} }
func (s *Store) Catalog() *CatalogRepository    { return &CatalogRepository{s: s} }
func (s *Store) Reviews() *ReviewRepository     { return &ReviewRepository{s: s} }
func (s *Store) Favorites() *FavoriteRepository { return &FavoriteRepository{s: s} }
func (s *Store) Users() *UserRepository         { return &UserRepository{s: s} }
func (s *Store) Admins() *AdminRepository       { return &AdminRepository{s: s} }

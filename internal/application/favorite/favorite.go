package favorite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/favorite"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const favoriteService = "favorite-service"

var ErrProductNotFound = domcatalog.ErrNotFound

// Products is the slice of the catalog favorites need.
type Products interface {
	GetByIDs(ctx context.Context, ids []string) ([]domcatalog.Product, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo     domain.Repository
	products Products
	now      application.Clock
	in       application.Instruments
}

func NewService(repo domain.Repository, products Products, tel observability.Observability) *Service {
	return &Service{
		repo:     repo,
		products: products,
		now:      time.Now,
		in:       application.NewInstruments(tel, favoriteService),
	}
}

// List returns the user's favorite products, most recently added first.
func (s *Service) List(ctx context.Context, userID string) (_ []domcatalog.Product, err error) {
	ctx, run := s.in.Start(ctx, "favorite.list", "ListFavorites")
	defer func() { run.End(err) }()

	favs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		run.Fail("FAVORITES_LOAD_FAILED")
		return nil, wrap(err)
	}
	ids := make([]string, 0, len(favs))
	rank := make(map[string]int, len(favs))
	for i, f := range favs {
		ids = append(ids, f.ProductID)
		rank[f.ProductID] = i
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		run.Fail("PRODUCTS_LOAD_FAILED")
		return nil, wrap(err)
	}
	sort.SliceStable(products, func(i, j int) bool { return rank[products[i].ID] < rank[products[j].ID] })
	run.Field("count", len(products))
	return products, nil
}

// Add stores a favorite and reports whether it was new.
func (s *Service) Add(ctx context.Context, userID, productID string) (_ bool, err error) {
	ctx, run := s.in.Start(ctx, "favorite.add", "AddFavorite", attribute.String("product.id", productID))
	defer func() { run.End(err) }()

	ok, err := s.products.Exists(ctx, productID)
	if err != nil {
		run.Fail("PRODUCT_LOAD_FAILED")
		return false, wrap(err)
	}
	if !ok {
		run.Fail("PRODUCT_NOT_FOUND")
		return false, ErrProductNotFound
	}
	created, err := s.repo.Add(ctx, domain.Favorite{UserID: userID, ProductID: productID, CreatedAt: s.now().UTC()})
	if err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return false, wrap(err)
	}
	if !created {
		run.Status("ALREADY_FAVORITE")
	}
	return created, nil
}

// Remove is idempotent.
func (s *Service) Remove(ctx context.Context, userID, productID string) (err error) {
	ctx, run := s.in.Start(ctx, "favorite.remove", "RemoveFavorite", attribute.String("product.id", productID))
	defer func() { run.End(err) }()

	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		run.Fail("REPO_DELETE_FAILED")
		return wrap(err)
	}
	return nil
}

func (s *Service) Check(ctx context.Context, userID, productID string) (_ bool, err error) {
	ctx, run := s.in.Start(ctx, "favorite.check", "CheckFavorite", attribute.String("product.id", productID))
	defer func() { run.End(err) }()

	ok, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		run.Fail("REPO_LOAD_FAILED")
		return false, wrap(err)
	}
	return ok, nil
}

func wrap(err error) error {
	if err == nil || errors.Is(err, domcatalog.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", application.ErrRepository, err)
}

package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// namespace derives stable ids from slugs so reseeding targets the same rows.
var namespace = uuid.MustParse("6f1c3e8a-2d4b-4c1a-9f53-7b0e2a9d4c11")

// CatalogWriter is the write side the seeder needs from a catalog store.
type CatalogWriter interface {
	Exists(ctx context.Context, id string) (bool, error)
	UpsertCategory(ctx context.Context, c domcatalog.Category) error
	UpsertProduct(ctx context.Context, p domcatalog.Product) error
}

type Admin struct {
	Email    string
	Password string
	Name     string
}

type Result struct {
	Categories      int
	ProductsCreated int
	AdminCreated    bool
}

// CategoryID and ProductID return the id the seeder assigns to a slug.
func CategoryID(slug string) string { return uuid.NewSHA1(namespace, []byte("category:"+slug)).String() }
func ProductID(slug string) string  { return uuid.NewSHA1(namespace, []byte("product:"+slug)).String() }

// Run creates the demo categories, any missing products and the back-office admin.
// Existing products keep their stock.
func Run(
	ctx context.Context,
	catalog CatalogWriter,
	admins domaccount.AdminRepository,
	hasher domaccount.PasswordHasher,
	admin Admin,
	logger observability.Logger,
) (Result, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	var res Result
	now := time.Now().UTC()

	for _, c := range categories {
		err := catalog.UpsertCategory(ctx, domcatalog.Category{ID: CategoryID(c.slug), Name: c.name, Slug: c.slug})
		if err != nil {
			return res, fmt.Errorf("seed category %s: %w", c.slug, err)
		}
		res.Categories++
	}

	for _, p := range products {
		id := ProductID(p.slug)
		exists, err := catalog.Exists(ctx, id)
		if err != nil {
			return res, fmt.Errorf("seed product %s: %w", p.slug, err)
		}
		if exists {
			continue
		}
		var images []string
		if p.image != "" {
			images = []string{p.image}
		}
		err = catalog.UpsertProduct(ctx, domcatalog.Product{
			ID:          id,
			Name:        p.name,
			Slug:        p.slug,
			Description: p.desc,
			Price:       decimal.RequireFromString(p.price),
			Stock:       p.stock,
			Status:      domcatalog.ProductActive,
			CategoryID:  CategoryID(p.category),
			Images:      images,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return res, fmt.Errorf("seed product %s: %w", p.slug, err)
		}
		res.ProductsCreated++
	}

	if admin.Email != "" {
		created, err := ensureAdmin(ctx, admins, hasher, admin, now)
		if err != nil {
			return res, err
		}
		res.AdminCreated = created
	}

	logger.Info("seed_completed",
		observability.F("categories", res.Categories),
		observability.F("products_created", res.ProductsCreated),
		observability.F("admin_created", res.AdminCreated),
	)
	return res, nil
}

func ensureAdmin(ctx context.Context, admins domaccount.AdminRepository, hasher domaccount.PasswordHasher, admin Admin, now time.Time) (bool, error) {
	_, err := admins.GetByEmail(ctx, admin.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domaccount.ErrNotFound) {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return false, fmt.Errorf("seed admin: hash password: %w", err)
	}
	name := admin.Name
	if name == "" {
		name = "Admin"
	}
	err = admins.Create(ctx, &domaccount.Admin{
		ID:           uuid.NewSHA1(namespace, []byte("admin:"+admin.Email)).String(),
		Email:        admin.Email,
		Name:         name,
		Role:         "admin",
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CatalogRepository struct {
	db *DB
}

const productColumns = `id, name, slug, description, price::text, stock, status,
	COALESCE(category_id, ''), images, created_at, updated_at`

func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(r.db.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *CatalogRepository) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *CatalogRepository) CountProducts(ctx context.Context, status domain.ProductStatus) (int, error) {
	var n int
	var err error
	if status == "" {
		err = r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	} else {
		err = r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE status = $1`, string(status)).Scan(&n)
	}
	return n, err
}

func (r *CatalogRepository) CountCategories(ctx context.Context) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n)
	return n, err
}

// UpsertCategory stores c, replacing any category with the same id.
func (r *CatalogRepository) UpsertCategory(ctx context.Context, c domain.Category) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug
	`, c.ID, c.Name, c.Slug)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// UpsertProduct stores p, replacing any product with the same id.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	return upsertProduct(ctx, r.db.pool, p)
}

func upsertProduct(ctx context.Context, q querier, p domain.Product) error {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	_, err := q.Exec(ctx, `
		INSERT INTO products (id, name, slug, description, price, stock, status, category_id, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
			price = EXCLUDED.price, stock = EXCLUDED.stock, status = EXCLUDED.status,
			category_id = EXCLUDED.category_id, images = EXCLUDED.images, updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Slug, p.Description, p.Price.String(), p.Stock, string(p.Status),
		nullable(p.CategoryID), images, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p      domain.Product
		price  string
		status string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &price, &p.Stock, &status,
		&p.CategoryID, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Status = domain.ProductStatus(status)
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("parse product price: %w", err)
	}
	return p, nil
}

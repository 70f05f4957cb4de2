package catalog

import "context"

// Repository is the read side of the catalog.
// Stock moves only inside order placement and release so they share the order's transaction.
type Repository interface {
	// GetByIDs returns the products that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Exists(ctx context.Context, id string) (bool, error)
	CountProducts(ctx context.Context, status ProductStatus) (int, error)
	CountCategories(ctx context.Context) (int, error)
}

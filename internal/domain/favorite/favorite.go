package favorite

import (
	"context"
	"time"
)

type Favorite struct {
	UserID    string
	ProductID string
	CreatedAt time.Time
}

type Repository interface {
	// ListByUser returns favorites newest first.
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
	// Add stores the favorite and reports whether it was new.
	Add(ctx context.Context, f Favorite) (bool, error)
	Remove(ctx context.Context, userID, productID string) error
	Exists(ctx context.Context, userID, productID string) (bool, error)
}

package postgres

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/favorite"
)

type FavoriteRepository struct {
	db *DB
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT user_id, product_id, created_at FROM favorites
		WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.UserID, &f.ProductID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FavoriteRepository) Add(ctx context.Context, f domain.Favorite) (bool, error) {
	tag, err := r.db.pool.Exec(ctx, `
		INSERT INTO favorites (user_id, product_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, f.UserID, f.ProductID, f.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert favorite: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return err
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&ok)
	return ok, err
}

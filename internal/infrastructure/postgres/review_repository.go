package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/shophub/internal/domain/review"

	"github.com/jackc/pgx/v5"
)

type ReviewRepository struct {
	db *DB
}

const reviewSelect = `
	SELECT r.id, r.product_id, r.user_id, COALESCE(u.name, ''), r.rating, r.comment, r.created_at, r.updated_at
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id`

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt)
	if err != nil {
		if name, dup := uniqueConstraint(err); dup && name == "reviews_user_product_key" {
			return domain.ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) Get(ctx context.Context, id string) (*domain.Review, error) {
	rv, err := scanReview(r.db.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rv, err
}

func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE reviews SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4`,
		rv.Rating, rv.Comment, rv.UpdatedAt, rv.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, offset, limit int) ([]*domain.Review, error) {
	query := reviewSelect + ` WHERE r.product_id = $1 ORDER BY r.created_at DESC, r.id DESC OFFSET $2`
	args := []any{productID, max(offset, 0)}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepository) Stats(ctx context.Context, productID string) (domain.Stats, error) {
	var st domain.Stats
	err := r.db.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE product_id = $1`,
		productID).Scan(&st.AverageRating, &st.TotalReviews)
	return st, err
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment,
		&rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

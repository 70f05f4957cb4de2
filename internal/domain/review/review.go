package review

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound        = errors.New("review: not found")
	ErrAlreadyReviewed = errors.New("review: you have already reviewed this product")
	ErrNotAuthor       = errors.New("review: not authorized")
	ErrInvalidRating   = errors.New("review: rating must be between 1 and 5")
	ErrInvalidComment  = errors.New("review: comment must be between 10 and 1000 characters")
)

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
	MaxCommentLength = 1000
)

type Review struct {
	ID        string
	ProductID string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats aggregates a product's reviews. AverageRating is 0 when there are none.
type Stats struct {
	AverageRating float64
	TotalReviews  int
}

func New(id, productID, userID string, rating int, comment string, now time.Time) (*Review, error) {
	if err := Validate(rating, comment); err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Review{
		ID:        id,
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks rating and comment bounds. Comment length counts characters, not bytes.
func Validate(rating int, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if n := utf8.RuneCountInString(comment); n < MinCommentLength || n > MaxCommentLength {
		return ErrInvalidComment
	}
	return nil
}

// Revise replaces rating and comment. Only the author may revise.
func (r *Review) Revise(userID string, rating int, comment string) error {
	if r.UserID != userID {
		return ErrNotAuthor
	}
	if err := Validate(rating, comment); err != nil {
		return err
	}
	r.Rating = rating
	r.Comment = comment
	r.UpdatedAt = time.Now().UTC()
	return nil
}

type Repository interface {
	// Create fails with ErrAlreadyReviewed when the user already reviewed the product.
	Create(ctx context.Context, r *Review) error
	Get(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	// ListByProduct returns reviews newest first with the author's name filled in.
	ListByProduct(ctx context.Context, productID string, offset, limit int) ([]*Review, error)
	Stats(ctx context.Context, productID string) (Stats, error)
}

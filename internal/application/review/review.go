package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/review"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	reviewService = "review-service"

	useCaseList   = "review.list"
	useCaseCreate = "review.create"
	useCaseUpdate = "review.update"
	useCaseDelete = "review.delete"

	DefaultPageLimit = 10
)

var (
	ErrNotFound        = domain.ErrNotFound
	ErrNotAuthor       = domain.ErrNotAuthor
	ErrAlreadyReviewed = domain.ErrAlreadyReviewed
	ErrProductNotFound = domcatalog.ErrNotFound
)

// ProductChecker confirms a product exists before it is reviewed.
type ProductChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service groups the review use cases; they share a repository and instruments.
type Service struct {
	repo     domain.Repository
	products ProductChecker
	ids      application.IDGenerator
	now      application.Clock
	in       application.Instruments
}

func NewService(repo domain.Repository, products ProductChecker, ids application.IDGenerator, tel observability.Observability) *Service {
	return &Service{
		repo:     repo,
		products: products,
		ids:      ids,
		now:      time.Now,
		in:       application.NewInstruments(tel, reviewService),
	}
}

type ListInput struct {
	ProductID string
	Page      application.PageRequest
}

type ListResult struct {
	Reviews    []*domain.Review
	Stats      domain.Stats
	Pagination application.Pagination
}

func (s *Service) List(ctx context.Context, in ListInput) (_ *ListResult, err error) {
	ctx, run := s.in.Start(ctx, useCaseList, "ListReviews", attribute.String("product.id", in.ProductID))
	defer func() { run.End(err) }()

	page := in.Page.Normalize(DefaultPageLimit)
	stats, err := s.repo.Stats(ctx, in.ProductID)
	if err != nil {
		run.Fail("STATS_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	reviews, err := s.repo.ListByProduct(ctx, in.ProductID, page.Offset(), page.Limit)
	if err != nil {
		run.Fail("REVIEWS_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return &ListResult{
		Reviews:    reviews,
		Stats:      stats,
		Pagination: application.NewPagination(page, stats.TotalReviews),
	}, nil
}

type WriteInput struct {
	UserID  string
	Rating  int
	Comment string
}

type CreateInput struct {
	ProductID string
	WriteInput
}

func (s *Service) Create(ctx context.Context, in CreateInput) (_ *domain.Review, err error) {
	ctx, run := s.in.Start(ctx, useCaseCreate, "CreateReview", attribute.String("product.id", in.ProductID))
	defer func() { run.End(err) }()

	if verr := validate(in.WriteInput); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}
	ok, err := s.products.Exists(ctx, in.ProductID)
	if err != nil {
		run.Fail("PRODUCT_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if !ok {
		run.Fail("PRODUCT_NOT_FOUND")
		return nil, ErrProductNotFound
	}

	r, err := domain.New(s.ids.NewID(), in.ProductID, in.UserID, in.Rating, in.Comment, s.now())
	if err != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrAlreadyReviewed) {
			run.Fail("ALREADY_REVIEWED")
			return nil, ErrAlreadyReviewed
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("review_id", r.ID)

	// Reload so the author's name is filled in.
	if created, gerr := s.repo.Get(ctx, r.ID); gerr == nil {
		return created, nil
	}
	return r, nil
}

type UpdateInput struct {
	ReviewID string
	WriteInput
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (_ *domain.Review, err error) {
	ctx, run := s.in.Start(ctx, useCaseUpdate, "UpdateReview", attribute.String("review.id", in.ReviewID))
	defer func() { run.End(err) }()

	if verr := validate(in.WriteInput); verr != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, verr
	}
	r, err := s.repo.Get(ctx, in.ReviewID)
	if err != nil {
		run.Fail("REVIEW_LOAD_FAILED")
		return nil, wrapRepositoryError(err)
	}
	if err := r.Revise(in.UserID, in.Rating, in.Comment); err != nil {
		run.Fail("NOT_AUTHOR")
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		run.Fail("REPO_UPDATE_FAILED")
		return nil, wrapRepositoryError(err)
	}
	return r, nil
}

type DeleteInput struct {
	ReviewID string
	UserID   string
}

func (s *Service) Delete(ctx context.Context, in DeleteInput) (err error) {
	ctx, run := s.in.Start(ctx, useCaseDelete, "DeleteReview", attribute.String("review.id", in.ReviewID))
	defer func() { run.End(err) }()

	r, err := s.repo.Get(ctx, in.ReviewID)
	if err != nil {
		run.Fail("REVIEW_LOAD_FAILED")
		return wrapRepositoryError(err)
	}
	if r.UserID != in.UserID {
		run.Fail("NOT_AUTHOR")
		return ErrNotAuthor
	}
	if err := s.repo.Delete(ctx, r.ID); err != nil {
		run.Fail("REPO_DELETE_FAILED")
		return wrapRepositoryError(err)
	}
	return nil
}

func validate(in WriteInput) error {
	var v application.Validator
	v.Check(in.Rating >= domain.MinRating && in.Rating <= domain.MaxRating, "rating", "must be an integer between 1 and 5")
	n := len([]rune(in.Comment))
	v.Check(n >= domain.MinCommentLength && n <= domain.MaxCommentLength, "comment", "must be between 10 and 1000 characters")
	return v.Err()
}

func wrapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", application.ErrRepository, err)
	}
}

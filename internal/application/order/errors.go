package order

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/shophub/internal/domain/order"
)

var (
	ErrConflict             = domain.ErrConflict
	ErrNotFound             = domain.ErrNotFound
	ErrPaymentRefTaken      = domain.ErrPaymentRefTaken
	ErrProductNotFound      = errors.New("order: one or more products not found")
	ErrInsufficientStock    = domcatalog.ErrInsufficientStock
	ErrRepository           = application.ErrRepository
	// ErrIdempotencyKeyReused answers a replayed key whose request differs from the first one.
	ErrIdempotencyKeyReused = errors.New("order: idempotency key reused with a different request")
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	case errors.Is(err, domain.ErrPaymentRefTaken):
		return ErrPaymentRefTaken
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, domcatalog.ErrNotFound):
		return ErrProductNotFound
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

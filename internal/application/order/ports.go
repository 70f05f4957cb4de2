package order

import (
	"context"

	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
)

// ProductReader loads price and name snapshots for checkout.
type ProductReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]domcatalog.Product, error)
}

// PaymentLookup confirms a client-side payment before the order is recorded.
type PaymentLookup interface {
	RetrieveIntent(ctx context.Context, id string) (dompayment.Intent, error)
}

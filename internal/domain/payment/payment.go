package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount    = errors.New("payment: amount must be greater than zero")
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrIntentNotFound   = errors.New("payment: intent not found")
	ErrGateway          = errors.New("payment: gateway failure")
)

// IntentStatus mirrors the provider's payment intent lifecycle.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       decimal.Decimal
	Currency     string
	OrderID      string
}

func (i Intent) Succeeded() bool { return i.Status == IntentSucceeded }

type IntentRequest struct {
	Amount   decimal.Decimal
	Currency string
	OrderID  string
}

// Gateway is the outbound port to the payment provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	RetrieveIntent(ctx context.Context, id string) (Intent, error)
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Event is a verified provider notification.
type Event struct {
	ID       string
	Type     string
	IntentID string
	OrderID  string
}

// WebhookVerifier authenticates and decodes provider callbacks.
type WebhookVerifier interface {
	ParseEvent(payload []byte, signature string) (Event, error)
}

// DedupStore remembers processed provider event ids for a while.
type DedupStore interface {
	// Claim records key and reports whether it was new.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a retried delivery is processed again.
	Release(ctx context.Context, key string) error
}

// MinorUnits converts an amount to the provider's smallest currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

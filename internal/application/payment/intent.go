package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/shophub/internal/application"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const useCaseCreateIntent = "payment.create_intent"

type CreateIntentInput struct {
	Amount decimal.Decimal
	// OrderID, when set, charges the order total and links the intent to the order.
	OrderID string
}

type CreateIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
	Amount          decimal.Decimal
}

type CreateIntentUseCase struct {
	orders   domorder.Repository
	gateway  dompayment.Gateway
	currency string
	in       application.Instruments
}

func NewCreateIntentUseCase(orders domorder.Repository, gateway dompayment.Gateway, currency string, tel observability.Observability) *CreateIntentUseCase {
	if currency == "" {
		currency = "usd"
	}
	return &CreateIntentUseCase{
		orders:   orders,
		gateway:  gateway,
		currency: currency,
		in:       application.NewInstruments(tel, paymentService),
	}
}

func (uc *CreateIntentUseCase) Execute(ctx context.Context, cmd CreateIntentInput) (_ *CreateIntentResult, err error) {
	ctx, run := uc.in.Start(ctx, useCaseCreateIntent, "CreateIntent",
		attribute.String("order.id", cmd.OrderID),
	)
	defer func() { run.End(err) }()

	amount := cmd.Amount
	var order *domorder.Order
	if cmd.OrderID != "" {
		order, err = uc.orders.Get(ctx, cmd.OrderID)
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return nil, wrapRepositoryError(err)
		}
		if order.PaymentStatus == domorder.PaymentPaid {
			run.Fail("ORDER_ALREADY_PAID")
			return nil, ErrAlreadyPaid
		}
		amount = order.Total
	}
	if !amount.IsPositive() {
		run.Fail("AMOUNT_INVALID")
		return nil, application.NewValidation("Invalid amount",
			application.FieldError{Field: "amount", Message: "must be greater than zero"},
		)
	}

	start := time.Now()
	intent, err := uc.gateway.CreateIntent(ctx, dompayment.IntentRequest{
		Amount:   amount,
		Currency: uc.currency,
		OrderID:  cmd.OrderID,
	})
	uc.in.ObserveExternal(gatewayPeer, "create_intent", application.Outcome(err), start)
	if err != nil {
		run.Fail("GATEWAY_CREATE_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	run.Field("payment_intent_id", intent.ID)

	if order != nil {
		// The intent already exists at the provider and carries the order id in its metadata,
		// so a failed link is logged and the webhook still finds the order.
		switch lerr := uc.orders.AttachPaymentRef(ctx, order.ID, intent.ID); {
		case errors.Is(lerr, domorder.ErrAlreadyPaid):
			run.Fail("ORDER_ALREADY_PAID")
			return nil, ErrAlreadyPaid
		case lerr != nil:
			run.Status("ORDER_LINK_FAILED")
			run.Logger().Warn("payment_ref_link_failed",
				observability.F("order_id", order.ID),
				observability.F("error", lerr.Error()),
			)
		}
	}

	return &CreateIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
	}, nil
}

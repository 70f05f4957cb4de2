package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// MetadataOrderID is the intent metadata key that links an intent back to its order.
const MetadataOrderID = "orderId"

// Gateway talks to the Stripe PaymentIntents API.
type Gateway struct {
	api *client.API
}

func NewGateway(secretKey string) (*Gateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	return &Gateway{api: client.New(secretKey, nil)}, nil
}

// NewGatewayWithBackends points the client at custom backends; tests use it with an httptest server.
func NewGatewayWithBackends(secretKey string, backends *stripego.Backends) *Gateway {
	return &Gateway{api: client.New(secretKey, backends)}
}

func (g *Gateway) CreateIntent(ctx context.Context, req dompayment.IntentRequest) (dompayment.Intent, error) {
	if !req.Amount.IsPositive() {
		return dompayment.Intent{}, dompayment.ErrInvalidAmount
	}
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(dompayment.MinorUnits(req.Amount)),
		Currency: stripego.String(req.Currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	if req.OrderID != "" {
		params.AddMetadata(MetadataOrderID, req.OrderID)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return dompayment.Intent{}, translate(err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) RetrieveIntent(ctx context.Context, id string) (dompayment.Intent, error) {
	if id == "" {
		return dompayment.Intent{}, dompayment.ErrIntentNotFound
	}
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return dompayment.Intent{}, translate(err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripego.PaymentIntent) dompayment.Intent {
	return dompayment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       dompayment.IntentStatus(pi.Status),
		Amount:       dompayment.FromMinorUnits(pi.Amount),
		Currency:     string(pi.Currency),
		OrderID:      pi.Metadata[MetadataOrderID],
	}
}

func translate(err error) error {
	var serr *stripego.Error
	if errors.As(err, &serr) {
		if serr.HTTPStatusCode == http.StatusNotFound || serr.Code == stripego.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s", dompayment.ErrIntentNotFound, serr.Msg)
		}
		return fmt.Errorf("%w: %s (%s)", dompayment.ErrGateway, serr.Msg, serr.Type)
	}
	return fmt.Errorf("%w: %w", dompayment.ErrGateway, err)
}
